package views

import (
	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/rivo/tview"
)

// sidebarWidth is the width of the neighbor list.
const sidebarWidth = 36

// ChatPage is the main page: the neighbor list beside the open thread.
type ChatPage struct {
	*tview.Flex
	List   *ConversationList
	Thread *MessageThread
}

// NewChatPage creates the chat page.
func NewChatPage(theme *ui.Theme) *ChatPage {
	list := NewConversationList(theme)
	thread := NewMessageThread(theme)
	flex := tview.NewFlex().
		AddItem(list, sidebarWidth, 0, true).
		AddItem(thread, 0, 1, false)
	return &ChatPage{Flex: flex, List: list, Thread: thread}
}

// Name implements ui.Component.
func (cp *ChatPage) Name() string { return "Chat" }

// Hints implements ui.Component.
func (cp *ChatPage) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "i", Description: "Compose"},
		{Key: "p", Description: "Profile"},
		{Key: "r", Description: "Reload"},
		{Key: "/", Description: "Filter"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "q", Description: "Quit"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update renders the view state.
func (cp *ChatPage) Update(st conversation.State) {
	cp.List.Update(st.Conversations, st.Selected, st.User != nil)
	cp.Thread.Update(st, cp.List.NameOf(st.Selected))
}
