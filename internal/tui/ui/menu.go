package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// menuRows is the number of hints per column.
const menuRows = 4

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints column by column, menuRows per column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := ColorName(m.theme.MenuKeyColor)
	numColor := ColorName(m.theme.NumericKeyColor)

	cells := make([]string, len(hints))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		cells[i] = fmt.Sprintf("[%s::b]%-8s[-:-:-] %-12s", kc, "<"+h.Key+">", h.Description)
	}

	for row := 0; row < menuRows; row++ {
		for i := row; i < len(cells); i += menuRows {
			_, _ = fmt.Fprint(m, cells[i])
		}
		_, _ = fmt.Fprintln(m)
	}
}
