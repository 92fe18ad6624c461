package views

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Empty-state texts of the thread pane.
const (
	SignedOutText = "Please log in to chat with neighbors."
	NoneOpenText  = "Select a neighbor to start chatting"
	EmptyText     = "No messages yet. Say hello!"
	LoadingText   = "Loading..."
)

// MessageThread displays the open conversation and its composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	onSend   func()
	onDraft  func(text string)
	onLeave  func()
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0).
		SetPlaceholder("Type a message...")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, false).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetChangedFunc(func(text string) {
		if mt.onDraft != nil {
			mt.onDraft(text)
		}
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if mt.onSend != nil {
				mt.onSend()
			}
		case tcell.KeyEscape, tcell.KeyTab:
			if mt.onLeave != nil {
				mt.onLeave()
			}
		}
	})

	return mt
}

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func()) {
	mt.onSend = fn
}

// SetOnDraft sets the callback fired on every composer edit.
func (mt *MessageThread) SetOnDraft(fn func(text string)) {
	mt.onDraft = fn
}

// SetOnLeave sets the callback for Esc or Tab in the composer.
func (mt *MessageThread) SetOnLeave(fn func()) {
	mt.onLeave = fn
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

// Messages returns the message pane (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Update renders st. name is the display name of the open counterpart.
func (mt *MessageThread) Update(st conversation.State, name string) {
	if mt.composer.GetText() != st.Draft {
		mt.composer.SetText(st.Draft)
	}

	mt.messages.Clear()
	mt.messages.SetTitle(" Messages ")
	if st.Selected != "" {
		mt.messages.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(name))))
	}

	if text := emptyState(st); text != "" {
		mt.messages.SetTextAlign(tview.AlignCenter)
		_, _ = fmt.Fprintf(mt.messages, "\n\n[%s]%s[-]", ui.ColorName(mt.theme.PlaceholderColor), text)
		return
	}

	_, _, width, _ := mt.messages.GetInnerRect()
	mt.messages.SetTextAlign(tview.AlignLeft)
	_, _ = fmt.Fprint(mt.messages, renderThread(st.Messages, st.User.ID, name, width, mt.theme, time.Now()))
	mt.messages.ScrollToEnd()
}

// emptyState returns the placeholder text for st, or empty when there are
// messages to show.
func emptyState(st conversation.State) string {
	switch {
	case st.User == nil:
		return SignedOutText
	case st.Selected == "":
		return NoneOpenText
	case len(st.Messages) > 0:
		return ""
	case st.Loading:
		return LoadingText
	default:
		return EmptyText
	}
}

// renderThread lays out msgs for a pane width columns wide. Messages sent
// by me are right aligned and labelled "You"; the counterpart's carry name.
func renderThread(msgs []domain.Message, me, name string, width int, theme *ui.Theme, now time.Time) string {
	if width < 20 {
		width = 20
	}
	bubble := width * 2 / 3

	own := ui.ColorName(theme.OwnMessageColor)
	other := ui.ColorName(theme.OtherMessageColor)

	var b strings.Builder
	for _, m := range msgs {
		mine := m.SenderID == me
		sender, color := name, other
		if mine {
			sender, color = "You", own
		}
		header := sender + " · " + formatTimestamp(m.CreatedAt, now)
		lines := wrapText(sanitizeForTerminal(m.Content), bubble)

		indent := func(s string) string {
			if !mine {
				return ""
			}
			if n := width - utf8.RuneCountInString(s); n > 0 {
				return strings.Repeat(" ", n)
			}
			return ""
		}

		fmt.Fprintf(&b, "%s[%s::b]%s[-:-:-]\n", indent(header), color, tview.Escape(header))
		for _, l := range lines {
			fmt.Fprintf(&b, "%s%s\n", indent(l), tview.Escape(l))
		}
		b.WriteString("\n")
	}
	return b.String()
}
