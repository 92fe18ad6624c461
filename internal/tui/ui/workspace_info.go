package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// WorkspaceData holds the header summary.
type WorkspaceData struct {
	Workspace     string
	UserID        string
	Email         string
	Conversations int
	Counterpart   string
	Loading       bool
}

// WorkspaceInfo displays workspace and session metadata in the header.
type WorkspaceInfo struct {
	*tview.TextView
	theme *Theme
}

// NewWorkspaceInfo creates a new workspace info panel.
func NewWorkspaceInfo(theme *Theme) *WorkspaceInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &WorkspaceInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the workspace info.
func (wi *WorkspaceInfo) Update(data WorkspaceData) {
	wi.Clear()

	fg := ColorName(wi.theme.FgColor)
	val := ColorName(wi.theme.CounterColor)

	user := "signed out"
	if data.UserID != "" {
		user = data.UserID
		if data.Email != "" {
			user += " <" + data.Email + ">"
		}
	}
	chat := "-"
	if data.Counterpart != "" {
		chat = data.Counterpart
		if data.Loading {
			chat += " (loading)"
		}
	}

	_, _ = fmt.Fprintf(wi,
		"[%s::b]Workspace:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Neighbors:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Chat:[-:-:-]      [%s]%s[-]",
		fg, val, tview.Escape(data.Workspace),
		fg, val, tview.Escape(user),
		fg, val, data.Conversations,
		fg, val, tview.Escape(chat),
	)
}
