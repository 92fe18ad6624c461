package views

import (
	"fmt"
	"strings"

	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/keys"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/rivo/tview"
)

// CommandHelp describes one command of the ':' prompt.
type CommandHelp struct {
	Usage       string
	Description string
}

// HelpView displays the key binding and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	return &HelpView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders the bindings of every scope followed by the commands.
func (hv *HelpView) Update(scopes []keys.Scope, commands []CommandHelp) {
	hv.Clear()
	kc := ui.ColorName(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range scopes {
		if len(s.Actions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.Name)
		for _, a := range s.Actions {
			fmt.Fprintf(&b, "  [%s]%-8s[-:-:-] %s\n", kc, tview.Escape(a.Label), a.Description)
		}
	}
	if len(commands) > 0 {
		b.WriteString("\n  [::b]Commands (: mode)[-:-:-]\n\n")
		for _, c := range commands {
			fmt.Fprintf(&b, "  [%s]%-18s[-:-:-] %s\n", kc, tview.Escape(c.Usage), c.Description)
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
	hv.ScrollToBeginning()
}
