package views

import (
	"strings"
	"testing"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
)

func TestEmptyState(t *testing.T) {
	me := &domain.User{ID: "alice"}
	tests := []struct {
		name string
		st   conversation.State
		want string
	}{
		{"signed out", conversation.State{}, SignedOutText},
		{"nothing open", conversation.State{User: me}, NoneOpenText},
		{"loading", conversation.State{User: me, Selected: "bob", Loading: true}, LoadingText},
		{"empty thread", conversation.State{User: me, Selected: "bob"}, EmptyText},
		{"messages", conversation.State{User: me, Selected: "bob", Messages: []domain.Message{{ID: "1"}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emptyState(tt.st); got != tt.want {
				t.Errorf("emptyState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderThreadAlignsOwnMessagesRight(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	msgs := []domain.Message{
		{ID: "1", SenderID: "alice", ReceiverID: "bob", Content: "hi", CreatedAt: now},
		{ID: "2", SenderID: "bob", ReceiverID: "alice", Content: "hey", CreatedAt: now},
	}
	out := renderThread(msgs, "alice", "Bob", 40, ui.DefaultTheme(), now)
	lines := strings.Split(out, "\n")

	var own, other string
	for _, l := range lines {
		switch strings.TrimSpace(l) {
		case "hi":
			own = l
		case "hey":
			other = l
		}
	}
	if own != strings.Repeat(" ", 38)+"hi" {
		t.Errorf("own line = %q, want right aligned", own)
	}
	if other != "hey" {
		t.Errorf("other line = %q, want left aligned", other)
	}
	if !strings.Contains(out, "You · 12:00") || !strings.Contains(out, "Bob · 12:00") {
		t.Errorf("headers missing in %q", out)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  []string
	}{
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 7, []string{"hello", "world"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"a\n\nb", 10, []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.in, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	in := "ok \U0001F44D\U0001F3FD done\u200d\ufe0f"
	if got := sanitizeForTerminal(in); got != "ok \U0001F44D done" {
		t.Errorf("sanitizeForTerminal() = %q", got)
	}
}

func TestInitials(t *testing.T) {
	for in, want := range map[string]string{
		"rosa parks":     "RP",
		"  Ada  ":        "A",
		"Mary Ann Evans": "MA",
		"":               "",
	} {
		if got := initials(in); got != want {
			t.Errorf("initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderQRIsSquareish(t *testing.T) {
	out := renderQR(ProfileURIPrefix + "alice")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("QR has %d lines, want a full code", len(lines))
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Error("QR contains no blocks")
	}
}

func TestConversationListFilterAndIndex(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	cl.Update([]conversation.Conversation{
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Neighbor carol", Placeholder: true},
	}, "bob", true)

	if got := cl.ByIndex(2); got != "carol" {
		t.Errorf("ByIndex(2) = %q, want carol", got)
	}
	cl.SetFilter("CAR")
	if got := cl.ByIndex(1); got != "carol" {
		t.Errorf("filtered ByIndex(1) = %q, want carol", got)
	}
	if got := cl.ByIndex(2); got != "" {
		t.Errorf("filtered ByIndex(2) = %q, want empty", got)
	}
	if got := cl.NameOf("dave"); got != domain.PlaceholderName("dave") {
		t.Errorf("NameOf(unlisted) = %q", got)
	}
}
