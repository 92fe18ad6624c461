package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func send(t *testing.T, db *DB, from, to, content string) *domain.Message {
	t.Helper()
	m, err := db.InsertMessage(context.Background(), domain.NewMessage{SenderID: from, ReceiverID: to, Content: content})
	if err != nil {
		t.Fatalf("InsertMessage(%s->%s): %v", from, to, err)
	}
	return m
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert message", "INSERT INTO messages (id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, ?)", []any{"m1", "a", "b", "hi", 1000}},
		{"insert profile", "INSERT INTO profiles (id, full_name, avatar_url, zip_code, bio, updated_at) VALUES (?, ?, ?, ?, ?, ?)", []any{"a", "Ann", "", "94110", "", 1000}},
		{"insert setting", "INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)", []any{"k", "v", 1000}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestEmptyContentRejected(t *testing.T) {
	db := testDB(t)
	_, err := db.InsertMessage(context.Background(), domain.NewMessage{SenderID: "a", ReceiverID: "b", Content: ""})
	if err == nil {
		t.Fatal("expected constraint error for empty content")
	}
}

func TestInsertAssignsIDAndTimestamp(t *testing.T) {
	db := testDB(t)
	before := time.Now().Add(-time.Second)

	m := send(t, db, "a", "b", "hello")
	if m.ID == "" {
		t.Error("ID not assigned")
	}
	if m.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want after %v", m.CreatedAt, before)
	}

	other := send(t, db, "a", "b", "hello")
	if other.ID == m.ID {
		t.Error("ids must be unique")
	}

	n, err := db.MessageCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestListThreadScenario(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	send(t, db, "A", "B", "hi")
	send(t, db, "B", "A", "hey")
	send(t, db, "A", "C", "yo")

	thread, err := db.ListThread(ctx, "A", "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread len = %d, want 2", len(thread))
	}
	if thread[0].Content != "hi" || thread[1].Content != "hey" {
		t.Errorf("thread = [%q, %q], want [hi, hey]", thread[0].Content, thread[1].Content)
	}

	// The thread is symmetric in its two parties.
	reverse, err := db.ListThread(ctx, "B", "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(reverse) != len(thread) {
		t.Fatalf("reverse len = %d, want %d", len(reverse), len(thread))
	}
	for i := range thread {
		if reverse[i].ID != thread[i].ID {
			t.Errorf("reverse[%d] = %s, want %s", i, reverse[i].ID, thread[i].ID)
		}
	}

	none, err := db.ListThread(ctx, "B", "C")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("thread(B, C) len = %d, want 0", len(none))
	}
}

func TestListParticipantsNewestFirst(t *testing.T) {
	db := testDB(t)

	send(t, db, "A", "B", "hi")
	send(t, db, "B", "A", "hey")
	send(t, db, "A", "C", "yo")
	send(t, db, "D", "E", "unrelated")

	rows, err := db.ListParticipants(context.Background(), "A")
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.Participants{
		{SenderID: "A", ReceiverID: "C"},
		{SenderID: "B", ReceiverID: "A"},
		{SenderID: "A", ReceiverID: "B"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("rows[%d] = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestProfiles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.GetProfile(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfile(ghost) err = %v, want ErrNotFound", err)
	}

	if _, err := db.UpsertProfile(ctx, &domain.Profile{ID: "a", FullName: "Ann", ZipCode: "94110"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertProfile(ctx, &domain.Profile{ID: "a", FullName: "Ann Lee", ZipCode: "94110", Bio: "gardener"}); err != nil {
		t.Fatal(err)
	}

	p, err := db.GetProfile(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Ann Lee" || p.Bio != "gardener" {
		t.Errorf("profile = %+v", p)
	}

	// EnsureProfile must not clobber an existing row.
	if err := db.EnsureProfile(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureProfile(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetProfiles(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("GetProfiles len = %d, want 2", len(got))
	}
	byID := map[string]domain.Profile{}
	for _, p := range got {
		byID[p.ID] = p
	}
	if byID["a"].FullName != "Ann Lee" {
		t.Errorf("a.FullName = %q after EnsureProfile", byID["a"].FullName)
	}
	if byID["b"].FullName != "" {
		t.Errorf("b.FullName = %q, want empty", byID["b"].FullName)
	}

	empty, err := db.GetProfiles(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetProfiles(nil) = %v, %v", empty, err)
	}
}

func TestSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, ok, err := db.GetSetting(ctx, "session.user_id"); err != nil || ok {
		t.Fatalf("unset key: ok=%v err=%v", ok, err)
	}
	if err := db.PutSetting(ctx, "session.user_id", "u1"); err != nil {
		t.Fatal(err)
	}
	if err := db.PutSetting(ctx, "session.user_id", "u2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.GetSetting(ctx, "session.user_id")
	if err != nil || !ok || v != "u2" {
		t.Fatalf("GetSetting = %q, %v, %v", v, ok, err)
	}
	if err := db.DeleteSetting(ctx, "session.user_id"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := db.GetSetting(ctx, "session.user_id"); ok {
		t.Error("key still set after delete")
	}
}
