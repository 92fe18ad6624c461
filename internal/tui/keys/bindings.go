package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string
	Description string
	Handler     func()
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings by scope, in registration order.
type Registry struct {
	global []*Action
	views  map[string][]*Action
	order  []string
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a keybinding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a keybinding active on one page.
func (r *Registry) AddView(view string, a *Action) {
	if _, ok := r.views[view]; !ok {
		r.order = append(r.order, view)
	}
	r.views[view] = append(r.views[view], a)
}

// Scope is a named group of bindings, for help screens.
type Scope struct {
	Name    string
	Actions []*Action
}

// Scopes returns the global bindings followed by each view's, in
// registration order.
func (r *Registry) Scopes() []Scope {
	scopes := []Scope{{Name: "Global", Actions: r.global}}
	for _, v := range r.order {
		scopes = append(scopes, Scope{Name: v, Actions: r.views[v]})
	}
	return scopes
}

// HandleEvent dispatches a key event to the first matching action, view
// bindings before global ones. Returns true if a handler matched.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, a := range r.views[view] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
