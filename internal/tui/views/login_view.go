package views

import (
	"strings"

	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/rivo/tview"
)

// LoginView is the sign-in form.
type LoginView struct {
	*tview.Form
	onSubmit func(userID, email string)
	onCancel func()
}

// NewLoginView creates a new sign-in form.
func NewLoginView(theme *ui.Theme) *LoginView {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetTitle(" Sign in ")
	form.SetTitleColor(theme.TitleColor)
	form.SetFieldBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.BorderColor)

	lv := &LoginView{Form: form}

	form.AddInputField("User ID", "", 40, nil, nil)
	form.AddInputField("Email", "", 40, nil, nil)
	form.AddButton("Sign in", func() {
		if lv.onSubmit == nil {
			return
		}
		id, email := lv.values()
		lv.onSubmit(id, email)
	})
	form.AddButton("Cancel", func() {
		if lv.onCancel != nil {
			lv.onCancel()
		}
	})
	form.SetCancelFunc(func() {
		if lv.onCancel != nil {
			lv.onCancel()
		}
	})

	return lv
}

// Name implements ui.Component.
func (lv *LoginView) Name() string { return "Login" }

// Hints implements ui.Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSubmit sets the callback for the sign-in button.
func (lv *LoginView) SetOnSubmit(fn func(userID, email string)) {
	lv.onSubmit = fn
}

// SetOnCancel sets the callback for Cancel and Esc.
func (lv *LoginView) SetOnCancel(fn func()) {
	lv.onCancel = fn
}

// Reset clears the fields and focuses the first one.
func (lv *LoginView) Reset() {
	for i := 0; i < lv.GetFormItemCount(); i++ {
		if f, ok := lv.GetFormItem(i).(*tview.InputField); ok {
			f.SetText("")
		}
	}
	lv.SetFocus(0)
}

func (lv *LoginView) values() (userID, email string) {
	if f, ok := lv.GetFormItemByLabel("User ID").(*tview.InputField); ok {
		userID = strings.TrimSpace(f.GetText())
	}
	if f, ok := lv.GetFormItemByLabel("Email").(*tview.InputField); ok {
		email = strings.TrimSpace(f.GetText())
	}
	return userID, email
}
