package views

import (
	"fmt"
	"strings"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/tui/ui"
	"github.com/rivo/tview"
	qrcode "github.com/skip2/go-qrcode"
)

// ProfileURIPrefix prefixes the user id in profile share codes.
const ProfileURIPrefix = "locaid://profile/"

// ProfileView displays a neighbor's profile card and its share code.
type ProfileView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)

	return &ProfileView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (pv *ProfileView) Name() string { return "Profile" }

// Hints implements ui.Component.
func (pv *ProfileView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "m", Description: "Message"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders the profile card. A profile without a name shows the
// member fallback.
func (pv *ProfileView) Update(p *domain.Profile) {
	pv.Clear()
	if p == nil {
		return
	}

	fg := ui.ColorName(pv.theme.FgColor)
	val := ui.ColorName(pv.theme.CounterColor)
	title := ui.ColorName(pv.theme.TitleColor)

	name := strings.TrimSpace(p.FullName)
	if name == "" {
		name = domain.MemberName
	}
	avatar := initials(p.FullName)
	if avatar == "" {
		avatar = "?"
	}

	_, _ = fmt.Fprintf(pv, "\n  [%s::b]( %s )[-:-:-]  [%s::b]%s[-:-:-]\n\n", title, tview.Escape(avatar), title, tview.Escape(sanitizeForTerminal(name)))
	field := func(label, value string) {
		if value == "" {
			return
		}
		_, _ = fmt.Fprintf(pv, "  [%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, label, val, tview.Escape(sanitizeForTerminal(value)))
	}
	field("ID", p.ID)
	field("Zip", p.ZipCode)
	field("Avatar", p.AvatarURL)
	if bio := strings.TrimSpace(p.Bio); bio != "" {
		_, _ = fmt.Fprintf(pv, "\n  [%s::b]About[-:-:-]\n", fg)
		for _, l := range wrapText(sanitizeForTerminal(bio), 60) {
			_, _ = fmt.Fprintf(pv, "  %s\n", tview.Escape(l))
		}
	}

	uri := ProfileURIPrefix + p.ID
	_, _ = fmt.Fprintf(pv, "\n  [%s::d]Share %s[-:-:-]\n%s", fg, tview.Escape(uri), renderQR(uri))
	pv.ScrollToBeginning()
	pv.SetTitle(fmt.Sprintf(" %s ", tview.Escape(sanitizeForTerminal(name))))
}

// renderQR converts a string to a compact QR code using Unicode half-block
// characters. Two bitmap rows become one terminal line.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	var sb strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		sb.WriteString("  ")
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
