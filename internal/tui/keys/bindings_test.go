package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestViewBindingWinsOverGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'p', Handler: func() { got = "global" }})
	r.AddView("Chat", &Action{Key: tcell.KeyRune, Rune: 'p', Handler: func() { got = "chat" }})

	ev := tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone)
	if !r.HandleEvent("Chat", ev) || got != "chat" {
		t.Errorf("on Chat: handled by %q, want chat", got)
	}
	got = ""
	if !r.HandleEvent("Help", ev) || got != "global" {
		t.Errorf("on Help: handled by %q, want global", got)
	}
}

func TestUnmatchedEventNotHandled(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() {}})
	if r.HandleEvent("Chat", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("expected 'x' to be unhandled")
	}
	if r.HandleEvent("Chat", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Error("expected Enter to be unhandled")
	}
}

func TestScopesKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Label: "q"})
	r.AddView("Chat", &Action{Label: "i"})
	r.AddView("Profile", &Action{Label: "e"})
	r.AddView("Chat", &Action{Label: "p"})

	scopes := r.Scopes()
	if len(scopes) != 3 {
		t.Fatalf("len(Scopes()) = %d, want 3", len(scopes))
	}
	want := []string{"Global", "Chat", "Profile"}
	for i, s := range scopes {
		if s.Name != want[i] {
			t.Errorf("scope %d = %q, want %q", i, s.Name, want[i])
		}
	}
	if len(scopes[1].Actions) != 2 || scopes[1].Actions[1].Label != "p" {
		t.Errorf("Chat actions = %+v", scopes[1].Actions)
	}
}
