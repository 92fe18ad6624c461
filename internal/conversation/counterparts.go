package conversation

import "github.com/MacklinHill1/neighborhood-help-app/internal/domain"

// Counterparts returns the distinct users me has exchanged messages with,
// in order of first appearance in rows. me itself is never included, so a
// self-message contributes nothing. An empty me yields nil.
func Counterparts(rows []domain.Participants, me string) []string {
	if me == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if id == "" || id == me {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, r := range rows {
		add(r.SenderID)
		add(r.ReceiverID)
	}
	return out
}

// ChannelName is the change-feed channel of the pair {me, counterpart}.
func ChannelName(me, counterpart string) string {
	return domain.PairChannel(me, counterpart)
}
