package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/realtime"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
	"github.com/gorilla/websocket"
)

func testGateway(t *testing.T, origins ...string) (*Gateway, *backend.Service) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := backend.New(db, realtime.NewHub(bus.New(), nil), nil, nil)
	return New(svc, "", origins, nil), svc
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	g, _ := testGateway(t)
	rec := do(t, g.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMessagesAndConversations(t *testing.T) {
	g, _ := testGateway(t)
	h := g.Handler()

	for _, m := range []map[string]string{
		{"sender_id": "A", "receiver_id": "B", "content": "hi"},
		{"sender_id": "B", "receiver_id": "A", "content": "hey"},
		{"sender_id": "A", "receiver_id": "C", "content": "yo"},
	} {
		rec := do(t, h, http.MethodPost, "/api/v1/messages", m)
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST status = %d, body = %s", rec.Code, rec.Body)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/conversations?user_id=A", nil)
	var convs struct {
		Counterparts []string `json:"counterparts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &convs); err != nil {
		t.Fatal(err)
	}
	if strings.Join(convs.Counterparts, ",") != "C,B" {
		t.Errorf("counterparts = %v, want [C B]", convs.Counterparts)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/messages?user_id=A&counterpart_id=B", nil)
	var thread struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatal(err)
	}
	if len(thread.Messages) != 2 || thread.Messages[0].Content != "hi" {
		t.Errorf("thread = %+v", thread.Messages)
	}
}

func TestInsertValidation(t *testing.T) {
	g, _ := testGateway(t)
	h := g.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"sender_id": "A"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/messages", map[string]string{"sender_id": "A", "receiver_id": "B", "content": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank content status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/conversations", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id status = %d", rec.Code)
	}
}

func TestResolveProfiles(t *testing.T) {
	g, svc := testGateway(t)
	if _, err := svc.UpsertProfile(context.Background(), &domain.Profile{ID: "A", FullName: "Ann"}); err != nil {
		t.Fatal(err)
	}
	rec := do(t, g.Handler(), http.MethodGet, "/api/v1/profiles?id=A&id=B", nil)
	var out struct {
		Profiles []domain.Profile `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Profiles) != 1 || out.Profiles[0].FullName != "Ann" {
		t.Errorf("profiles = %+v", out.Profiles)
	}
}

func TestWebsocketStreamsInserts(t *testing.T) {
	g, svc := testGateway(t)
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	ws := dialChannel(t, srv, "chat:A:B", nil)

	m, err := svc.InsertMessage(context.Background(), domain.NewMessage{SenderID: "A", ReceiverID: "B", Content: "hi"})
	if err != nil {
		t.Fatal(err)
	}

	var next frame
	if err := ws.ReadJSON(&next); err != nil {
		t.Fatal(err)
	}
	if next.Type != string(domain.ChangeInsert) || next.Table != domain.TableMessages {
		t.Errorf("frame = %+v", next)
	}
	if next.Record == nil || next.Record.ID != m.ID {
		t.Errorf("record = %+v", next.Record)
	}
}

// dialChannel opens a realtime websocket and reads the SUBSCRIBED frame.
func dialChannel(t *testing.T, srv *httptest.Server, channel string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime/v1/websocket?channel=" + channel
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first frame
	if err := ws.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Type != string(domain.ChangeSubscribed) || first.Channel != channel {
		t.Fatalf("first frame = %+v", first)
	}
	return ws
}

func TestWebsocketOnlyStreamsItsPair(t *testing.T) {
	g, svc := testGateway(t)
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	ws := dialChannel(t, srv, "chat:A:B", nil)

	ctx := context.Background()
	for _, nm := range []domain.NewMessage{
		{SenderID: "A", ReceiverID: "C", Content: "for C"},
		{SenderID: "C", ReceiverID: "B", Content: "C to B"},
		{SenderID: "B", ReceiverID: "A", Content: "for A"},
	} {
		if _, err := svc.InsertMessage(ctx, nm); err != nil {
			t.Fatal(err)
		}
	}

	var next frame
	if err := ws.ReadJSON(&next); err != nil {
		t.Fatal(err)
	}
	if next.Record == nil || next.Record.Content != "for A" {
		t.Errorf("record = %+v, want the B to A message", next.Record)
	}
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	g, _ := testGateway(t, "https://app.locaid.example")
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime/v1/websocket?channel=chat:A:B"
	header := http.Header{"Origin": {"https://elsewhere.example"}}
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		_ = ws.Close()
		t.Fatal("dial from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	dialChannel(t, srv, "chat:A:B", http.Header{"Origin": {"https://app.locaid.example"}})
	dialChannel(t, srv, "chat:A:B", http.Header{"Origin": {srv.URL}})
}

func TestWebsocketRejectsNonPairChannel(t *testing.T) {
	g, _ := testGateway(t)
	for _, name := range []string{"everything", "chat:A", "chat:A:B:C"} {
		rec := do(t, g.Handler(), http.MethodGet, "/realtime/v1/websocket?channel="+name, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("channel %q: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestWebsocketRequiresChannel(t *testing.T) {
	g, _ := testGateway(t)
	rec := do(t, g.Handler(), http.MethodGet, "/realtime/v1/websocket", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
