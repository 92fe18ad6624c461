package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays the compact LocAid wordmark.
type Logo struct {
	*tview.TextView
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 0)

	title := ColorName(theme.TitleColor)
	fg := ColorName(theme.FgColor)
	_, _ = fmt.Fprintf(tv,
		"[%s::b]╦  ╔═╗╔═╗╔═╗╦╔╦╗[-:-:-]\n"+
			"[%s::b]║  ║ ║║  ╠═╣║ ║║[-:-:-]\n"+
			"[%s::b]╩═╝╚═╝╚═╝╩ ╩╩═╩╝[-:-:-]\n"+
			"[%s]neighbors helping neighbors[-:-:-]",
		title, title, title, fg,
	)
	return &Logo{TextView: tv}
}
