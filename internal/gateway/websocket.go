package gateway

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readTimeout = 60 * time.Second
)

// checkOrigin lets through clients that send no Origin header. Browsers must
// come from the gateway's own host or a configured origin.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range g.origins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	g.logger.Warn("websocket origin rejected", zap.String("origin", origin))
	return false
}

// frame is the JSON sent for every feed event.
type frame struct {
	Type            string          `json:"type"`
	Channel         string          `json:"channel,omitempty"`
	Schema          string          `json:"schema,omitempty"`
	Table           string          `json:"table,omitempty"`
	Record          *domain.Message `json:"record,omitempty"`
	CommitTimestamp *time.Time      `json:"commit_timestamp,omitempty"`
}

func changeFrame(c domain.Change) frame {
	f := frame{Type: string(c.Type), Schema: c.Schema, Table: c.Table, Record: c.Record}
	if !c.CommitTimestamp.IsZero() {
		ts := c.CommitTimestamp
		f.CommitTimestamp = &ts
	}
	return f
}

// serveWebsocket subscribes the connection to the feed channel of one pair.
// Only rows exchanged between the two users are sent. The filter defaults to
// inserts on public.messages.
func (g *Gateway) serveWebsocket(c *gin.Context) {
	name := c.Query("channel")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}
	a, b, ok := domain.ParsePairChannel(name)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel must be " + domain.ChannelPrefix + "<user-id>:<user-id>"})
		return
	}
	filter := domain.MessageInserts
	if v := c.Query("schema"); v != "" {
		filter.Schema = v
	}
	if v := c.Query("table"); v != "" {
		filter.Table = v
	}
	if v := c.Query("event"); v != "" {
		filter.Event = domain.ChangeType(v)
	}

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer func() { _ = ws.Close() }()

	ch := g.svc.Subscribe(name, filter, 64)
	defer ch.Close()

	// The read loop only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		ws.SetReadLimit(4096)
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(readTimeout))
		})
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(ws, frame{Type: string(domain.ChangeSubscribed), Channel: name}); err != nil {
		return
	}
	g.logger.Debug("websocket subscribed", zap.String("channel", name))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case change, ok := <-ch.Changes():
			if !ok {
				return
			}
			if change.Record != nil && !change.Record.Between(a, b) {
				continue
			}
			if err := writeJSON(ws, changeFrame(change)); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeJSON(ws *websocket.Conn, v any) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(v)
}
