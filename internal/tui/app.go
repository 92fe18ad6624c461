// Package tui is the terminal client of LocAid: a neighbor list, the open
// thread with its composer, sign-in and profile pages.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/keys"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/model"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	headerHeight  = 4
	promptHeight  = 3
	authRetry     = 2 * time.Second
	flashInterval = time.Second
)

var commandHelp = []views.CommandHelp{
	{Usage: "chat <id>", Description: "Open or start a conversation"},
	{Usage: "profile [id]", Description: "Show a profile (yours by default)"},
	{Usage: "login", Description: "Sign in"},
	{Usage: "logout", Description: "Sign out"},
	{Usage: "reload", Description: "Reload the neighbor list"},
	{Usage: "help", Description: "Show this help"},
	{Usage: "quit", Description: "Quit"},
}

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	theme     *ui.Theme
	vm        *model.ViewModel
	registry  *keys.Registry
	flash     *ui.FlashModel
	logger    *zap.Logger
	workspace string

	root     *tview.Flex
	info     *ui.WorkspaceInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	pages    *ui.Pages
	prompt   *ui.Prompt
	flashBar *ui.FlashBar

	chat    *views.ChatPage
	login   *views.LoginView
	profile *views.ProfileView
	help    *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application for a workspace.
func NewApp(b model.Backend, workspace string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		vm:        model.NewViewModel(b, logger),
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		logger:    logger,
		workspace: workspace,
		info:      ui.NewWorkspaceInfo(theme),
		menu:      ui.NewMenu(theme),
		crumbs:    ui.NewCrumbs(theme),
		pages:     ui.NewPages(),
		prompt:    ui.NewPrompt(theme),
		flashBar:  ui.NewFlashBar(theme),
		chat:      views.NewChatPage(theme),
		login:     views.NewLoginView(theme),
		profile:   views.NewProfileView(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.help.Update(a.registry.Scopes(), commandHelp)

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Label: "q",
		Description: "Quit",
		Handler:     a.app.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Label: "?",
		Description: "Help",
		Handler:     func() { a.pages.Push(a.help.Name()) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Label: ":",
		Description: "Command prompt",
		Handler:     func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyEscape, Label: "Esc",
		Description: "Back",
		Handler:     a.back,
	})

	chat := a.chat.Name()
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Label: "i",
		Description: "Focus composer",
		Handler:     a.focusComposer,
	})
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyTab, Label: "Tab",
		Description: "Focus composer",
		Handler:     a.focusComposer,
	})
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Label: "/",
		Description: "Filter neighbors",
		Handler:     func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'p', Label: "p",
		Description: "Profile of the highlighted neighbor",
		Handler: func() {
			if id := a.chat.List.HighlightedID(); id != "" {
				a.showProfile(id)
			}
		},
	})
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Label: "r",
		Description: "Reload neighbors",
		Handler:     a.reload,
	})
	a.registry.AddView(chat, &keys.Action{
		Key: tcell.KeyRune, Rune: 'l', Label: "l",
		Description: "Sign in",
		Handler:     a.showLogin,
	})

	a.registry.AddView(a.profile.Name(), &keys.Action{
		Key: tcell.KeyRune, Rune: 'm', Label: "m",
		Description: "Message this neighbor",
		Handler: func() {
			if p := a.vm.Profile(); p != nil {
				a.openConversation(p.ID)
			}
		},
	})
}

func (a *App) setupCallbacks() {
	a.chat.List.SetSelectedFunc(func(row, _ int) {
		if id := a.chat.List.ByIndex(row); id != "" {
			a.openConversation(id)
		}
	})

	a.chat.Thread.SetOnDraft(a.vm.View.SetDraft)
	a.chat.Thread.SetOnSend(func() {
		go func() {
			if err := a.vm.Send(a.ctx); err != nil {
				a.flash.Err("Send failed", err)
			}
		}()
	})
	a.chat.Thread.SetOnLeave(func() { a.app.SetFocus(a.chat.List) })

	a.login.SetOnSubmit(a.signIn)
	a.login.SetOnCancel(a.back)

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.chat.List.SetFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.chat.List.SetFilter("")
		}
		a.hidePrompt()
	})

	a.pages.SetOnChange(func(top ui.Component, stack []ui.Component) {
		names := make([]string, len(stack))
		for i, c := range stack {
			names[i] = c.Name()
		}
		a.crumbs.Update(names)
		a.menu.Update(top.Hints())
		a.app.SetFocus(top)
	})
}

func (a *App) setupLayout() {
	logo := ui.NewLogo(a.theme)
	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(logo, 30, 0, false)

	for _, c := range []ui.Component{a.chat, a.login, a.profile, a.help} {
		a.pages.Register(c)
	}

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)

	a.app.SetRoot(a.root, true)
	a.pages.Reset(a.chat.Name())

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Text widgets and the sign-in form get every key.
		switch a.app.GetFocus().(type) {
		case *tview.InputField, *tview.Button:
			return event
		}

		current := a.pages.Current()
		if current == a.chat.Name() && event.Key() == tcell.KeyRune && event.Rune() >= '1' && event.Rune() <= '9' {
			if id := a.chat.List.ByIndex(int(event.Rune() - '0')); id != "" {
				a.openConversation(id)
			}
			return nil
		}

		if a.registry.HandleEvent(current, event) {
			return nil
		}
		return event
	})
}

// Run starts the TUI and blocks until it quits.
func (a *App) Run() error {
	go a.watchAuth()
	go a.refreshLoop()

	defer a.Stop()
	return a.app.Run()
}

// Stop shuts down the background loops and releases the open channel.
func (a *App) Stop() {
	a.cancel()
	_ = a.vm.Close()
	a.app.Stop()
}

// watchAuth keeps the view in step with the daemon session, reconnecting
// the stream if it breaks.
func (a *App) watchAuth() {
	for {
		err := a.vm.WatchAuth(a.ctx)
		if a.ctx.Err() != nil {
			return
		}
		if err != nil {
			a.logger.Warn("auth stream lost", zap.Error(err))
			a.flash.Warn("Connection to the daemon lost, retrying...")
		}
		select {
		case <-time.After(authRetry):
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refreshLoop() {
	ticker := time.NewTicker(flashInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.View.RefreshCh():
			a.app.QueueUpdateDraw(a.render)
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(func() { a.profile.Update(a.vm.Profile()) })
		case <-a.flash.Changed():
			a.app.QueueUpdateDraw(a.renderFlash)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderFlash)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) render() {
	st := a.vm.View.Snapshot()
	a.chat.Update(st)

	data := ui.WorkspaceData{
		Workspace:     a.workspace,
		Conversations: len(st.Conversations),
		Loading:       st.Loading,
	}
	if st.User != nil {
		data.UserID, data.Email = st.User.ID, st.User.Email
	}
	if st.Selected != "" {
		data.Counterpart = a.chat.List.NameOf(st.Selected)
	}
	a.info.Update(data)
	a.renderFlash()
}

func (a *App) renderFlash() {
	a.flashBar.Update(a.flash.Current())
}

func (a *App) back() {
	if a.pages.Current() == a.chat.Name() {
		if a.chat.List.Filter() != "" {
			a.chat.List.SetFilter("")
		}
		return
	}
	a.pages.Pop()
}

func (a *App) focusComposer() {
	if a.vm.View.Snapshot().Selected == "" {
		a.flash.Info("Select a neighbor first")
		return
	}
	a.app.SetFocus(a.chat.Thread.Composer())
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.app.SetFocus(a.pages)
}

func (a *App) showLogin() {
	a.login.Reset()
	a.pages.Push(a.login.Name())
}

func (a *App) showProfile(id string) {
	a.profile.Update(nil)
	a.pages.Push(a.profile.Name())
	go func() {
		if err := a.vm.LoadProfile(a.ctx, id); err != nil {
			a.flash.Err("Load profile failed", err)
		}
	}()
}

// openConversation returns to the chat page and opens id's thread.
func (a *App) openConversation(id string) {
	if !a.vm.View.SignedIn() {
		a.flash.Warn(views.SignedOutText)
		return
	}
	a.pages.Reset(a.chat.Name())
	go func() {
		if err := a.vm.Open(a.ctx, id); err != nil {
			a.flash.Err("Open conversation failed", err)
		}
	}()
}

func (a *App) reload() {
	go func() {
		if err := a.vm.Reload(a.ctx); err != nil {
			a.flash.Err("Reload failed", err)
		}
	}()
}

func (a *App) signIn(userID, email string) {
	if userID == "" {
		a.flash.Warn("User ID is required")
		return
	}
	go func() {
		err := a.vm.SignIn(a.ctx, userID, email)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err("Sign in failed", err)
				return
			}
			a.flash.Info(fmt.Sprintf("Signed in as %s", userID))
			a.pages.Reset(a.chat.Name())
		})
	}()
}

func (a *App) signOut() {
	go func() {
		if err := a.vm.SignOut(a.ctx); err != nil {
			a.flash.Err("Sign out failed", err)
			return
		}
		a.flash.Info("Signed out")
	}()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "quit":
		a.app.Stop()
	case "help":
		a.pages.Push(a.help.Name())
	case "login":
		a.showLogin()
	case "logout":
		a.signOut()
	case "reload":
		a.reload()
	case "chat":
		if cmd.Arg(0) == "" {
			a.flash.Warn("usage: chat <id>")
			return
		}
		a.openConversation(cmd.Arg(0))
	case "profile":
		id := cmd.Arg(0)
		if id == "" {
			st := a.vm.View.Snapshot()
			if st.User == nil {
				a.flash.Warn(views.SignedOutText)
				return
			}
			id = st.User.ID
		}
		a.showProfile(id)
	default:
		a.flash.Warn(fmt.Sprintf("unknown command %q", cmd.Name))
	}
}
