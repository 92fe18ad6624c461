package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
)

func testStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInitialState(t *testing.T) {
	p := NewProvider(testStore(t), bus.New(), nil)
	if p.State() != SignedOut {
		t.Errorf("state = %s, want SIGNED_OUT", p.State())
	}
	if p.Current() != nil {
		t.Error("Current() should be nil before sign-in")
	}
}

func TestSignInEmitsEvent(t *testing.T) {
	b := bus.New()
	p := NewProvider(testStore(t), b, nil)
	sub := p.Watch(10)
	defer sub.Close()

	u, err := p.SignIn(context.Background(), "user-1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "user-1" || u.Email != "a@example.com" {
		t.Errorf("user = %+v", u)
	}

	select {
	case evt := <-sub.C:
		ae, ok := evt.Payload.(AuthEvent)
		if !ok {
			t.Fatalf("payload type = %T", evt.Payload)
		}
		if ae.Type != EventSignedIn || ae.User == nil || ae.User.ID != "user-1" {
			t.Errorf("event = %+v", ae)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestSignInCreatesProfile(t *testing.T) {
	db := testStore(t)
	p := NewProvider(db, nil, nil)
	if _, err := p.SignIn(context.Background(), "user-1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetProfile(context.Background(), "user-1"); err != nil {
		t.Errorf("profile not created: %v", err)
	}
}

func TestSignInRequiresID(t *testing.T) {
	p := NewProvider(testStore(t), nil, nil)
	if _, err := p.SignIn(context.Background(), "  ", ""); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("err = %v, want ErrInvalidUser", err)
	}
}

func TestSignOut(t *testing.T) {
	b := bus.New()
	p := NewProvider(testStore(t), b, nil)
	ctx := context.Background()

	if err := p.SignOut(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("SignOut without session err = %v, want ErrNoSession", err)
	}
	if _, err := p.SignIn(ctx, "user-1", ""); err != nil {
		t.Fatal(err)
	}

	sub := p.Watch(10)
	defer sub.Close()
	if err := p.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if p.Current() != nil {
		t.Error("Current() should be nil after sign-out")
	}

	select {
	case evt := <-sub.C:
		if ae := evt.Payload.(AuthEvent); ae.Type != EventSignedOut || ae.User != nil {
			t.Errorf("event = %+v", ae)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestRestoreSession(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	first := NewProvider(db, nil, nil)
	if _, err := first.SignIn(ctx, "user-1", "a@example.com"); err != nil {
		t.Fatal(err)
	}

	second := NewProvider(db, nil, nil)
	if err := second.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	u := second.Current()
	if u == nil || u.ID != "user-1" || u.Email != "a@example.com" {
		t.Fatalf("restored user = %+v", u)
	}
	if second.State() != SignedIn {
		t.Errorf("state = %s, want SIGNED_IN", second.State())
	}

	if err := second.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	third := NewProvider(db, nil, nil)
	if err := third.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if third.Current() != nil {
		t.Error("session restored after sign-out")
	}
}

func TestSwitchUser(t *testing.T) {
	p := NewProvider(testStore(t), nil, nil)
	ctx := context.Background()
	if _, err := p.SignIn(ctx, "user-1", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := p.SignIn(ctx, "user-2", ""); err != nil {
		t.Fatal(err)
	}
	if got := p.Current().ID; got != "user-2" {
		t.Errorf("Current().ID = %q, want user-2", got)
	}
}
