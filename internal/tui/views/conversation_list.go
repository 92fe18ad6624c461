package views

import (
	"fmt"

	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ConversationList is the neighbor sidebar of the chat page.
type ConversationList struct {
	*tview.Table
	theme    *ui.Theme
	convs    []conversation.Conversation
	visible  []conversation.Conversation
	selected string
	filter   string
	signedIn bool
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Neighbors ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Update replaces the list and marks the open conversation.
func (cl *ConversationList) Update(convs []conversation.Conversation, selected string, signedIn bool) {
	cl.convs = convs
	cl.selected = selected
	cl.signedIn = signedIn
	cl.render()
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string {
	return cl.filter
}

func (cl *ConversationList) render() {
	row, _ := cl.GetSelection()
	cl.Clear()

	for col, h := range []string{"  NEIGHBOR", "ZIP"} {
		cl.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1-col))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if cl.filter != "" && !containsFold(c.Name, cl.filter) && !containsFold(c.ID, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
	}

	if len(cl.visible) == 0 {
		msg := "No messages yet."
		switch {
		case !cl.signedIn:
			msg = "Signed out."
		case cl.filter != "":
			msg = "No match."
		}
		cl.SetCell(1, 0, tview.NewTableCell("  "+msg).
			SetSelectable(false).
			SetTextColor(cl.theme.PlaceholderColor))
	}

	for i, c := range cl.visible {
		marker := "  "
		if c.ID == cl.selected {
			marker = "● "
		}
		color := cl.theme.FgColor
		if c.Placeholder {
			color = cl.theme.PlaceholderColor
		}
		cl.SetCell(i+1, 0, tview.NewTableCell(marker+tview.Escape(sanitizeForTerminal(c.Name))).
			SetExpansion(1).
			SetTextColor(color))
		cl.SetCell(i+1, 1, tview.NewTableCell(tview.Escape(c.ZipCode)).
			SetTextColor(cl.theme.FgColor))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Neighbors (%d/%d) /%s ", len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Neighbors (%d) ", len(cl.convs)))
	}

	switch {
	case len(cl.visible) == 0:
	case row < 1:
		cl.Select(1, 0)
	case row > len(cl.visible):
		cl.Select(len(cl.visible), 0)
	}
}

// HighlightedID returns the id of the conversation under the cursor.
func (cl *ConversationList) HighlightedID() string {
	row, _ := cl.GetSelection()
	return cl.ByIndex(row)
}

// ByIndex returns the id of the Nth visible conversation (1-based).
func (cl *ConversationList) ByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].ID
}

// NameOf returns the display name of a listed counterpart, or its
// placeholder when it is not listed yet.
func (cl *ConversationList) NameOf(id string) string {
	for _, c := range cl.convs {
		if c.ID == id {
			return c.Name
		}
	}
	return domain.PlaceholderName(id)
}
