package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kong/loopctl/internal/loop"
	"github.com/kong/loopctl/internal/loop/render"
	"github.com/kong/loopctl/internal/theme"
	"github.com/kong/loopctl/internal/util/i18n"
)

type themeStyles struct {
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	heading     lipgloss.Style
	field       lipgloss.Style
	button      lipgloss.Style
	buttonOff   lipgloss.Style
	link        lipgloss.Style
	muted       lipgloss.Style
	rule        lipgloss.Style
	menuItem    lipgloss.Style
	menuCursor  lipgloss.Style
	spinner     lipgloss.Style
	levels      map[loop.Level]lipgloss.Style
}

func buildThemeStyles(p theme.Palette, useColor bool) themeStyles {
	plain := lipgloss.NewStyle()
	field := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	if !useColor {
		return themeStyles{
			tabActive:   plain.Bold(true).Underline(true),
			tabInactive: plain,
			heading:     plain,
			field:       field,
			button:      plain,
			buttonOff:   plain,
			link:        plain,
			muted:       plain,
			rule:        plain,
			menuItem:    plain,
			menuCursor:  plain,
			spinner:     plain,
			levels:      map[loop.Level]lipgloss.Style{},
		}
	}
	return themeStyles{
		tabActive: lipgloss.NewStyle().
			Foreground(p.Adaptive(theme.ColorPrimaryText)).
			Background(p.Adaptive(theme.ColorPrimary)).
			Bold(true),
		tabInactive: p.ForegroundStyle(theme.ColorTextMuted),
		heading: p.ForegroundStyle(theme.ColorTextPrimary).
			Bold(true),
		field: field.
			BorderForeground(p.Adaptive(theme.ColorBorder)).
			Foreground(p.Adaptive(theme.ColorTextPrimary)),
		button: lipgloss.NewStyle().
			Foreground(p.Adaptive(theme.ColorPrimaryText)).
			Background(p.Adaptive(theme.ColorPrimary)),
		buttonOff: p.ForegroundStyle(theme.ColorTextMuted),
		link: p.ForegroundStyle(theme.ColorPrimary).
			Underline(true),
		muted:      p.ForegroundStyle(theme.ColorTextMuted),
		rule:       p.ForegroundStyle(theme.ColorBorder),
		menuItem:   p.ForegroundStyle(theme.ColorTextPrimary),
		menuCursor: p.ForegroundStyle(theme.ColorHighlight).Bold(true),
		spinner:    p.ForegroundStyle(theme.ColorHighlight),
		levels: map[loop.Level]lipgloss.Style{
			loop.LevelError:   p.ForegroundStyle(theme.ColorDanger),
			loop.LevelWarning: p.ForegroundStyle(theme.ColorWarning),
			loop.LevelInfo:    p.ForegroundStyle(theme.ColorInfo),
			loop.LevelSuccess: p.ForegroundStyle(theme.ColorSuccess),
		},
	}
}

var levelIcons = map[loop.Level]string{
	loop.LevelError:   "✖",
	loop.LevelWarning: "!",
	loop.LevelInfo:    "i",
	loop.LevelSuccess: "✔",
}

func (m *model) View() string {
	width := m.contentWidth()
	c := newCanvas(m.zones)

	m.renderNotifications(c, width)
	m.renderTabs(c)
	c.newline()

	switch m.tab {
	case tabCall:
		m.renderCallURL(c, width)
	case tabContacts:
		c.block("", m.styles.muted.Render(wordwrap.String(m.l10n.T(i18n.ContactsPlaceholder), width)))
	}

	if !m.seenToS {
		c.newline()
		c.block("", m.renderToS(width))
	}

	c.newline()
	m.renderFooter(c, width)
	m.renderMenu(c)

	c.newline()
	c.block("", m.help.View(m.keys))

	m.layout = c
	return m.zones.Scan(c.String())
}

func (m *model) renderNotifications(c *canvas, width int) {
	notes := m.notifications.List()
	for _, n := range notes {
		text := fmt.Sprintf("%s %s", levelIcons[n.Level], n.Message)
		style, ok := m.styles.levels[n.Level]
		if !ok {
			style = lipgloss.NewStyle()
		}
		c.block(fmt.Sprintf("%s%d", regionNoticePrefix, n.ID), style.Render(wordwrap.String(text, width)))
	}
	if len(notes) > 0 {
		c.newline()
	}
}

func (m *model) renderTabs(c *canvas) {
	labels := []string{m.l10n.T(i18n.TabCall), m.l10n.T(i18n.TabContacts)}
	for i, label := range labels {
		if i > 0 {
			c.write(" ")
		}
		style := m.styles.tabInactive
		if i == m.tab {
			style = m.styles.tabActive
		}
		c.writeRegion(fmt.Sprintf("%s%d", regionTabPrefix, i), style.Render(" "+label+" "))
	}
	c.newline()
}

func (m *model) renderCallURL(c *canvas, width int) {
	state := m.session.Snapshot()

	c.block("", m.styles.heading.Render(wordwrap.String(m.l10n.T(i18n.ShareLinkHeaderText), width)))

	// border and padding take four columns
	inner := width - 4
	var value string
	switch state.Status {
	case loop.StatusPending:
		value = m.spinner.View() + " " + m.styles.muted.Render(m.l10n.T(i18n.GeneratingURL))
	case loop.StatusReady:
		value = truncate.StringWithTail(state.URL, uint(inner), "…")
	}
	c.block("", m.styles.field.Width(width-2).Render(value))

	ready := state.Status == loop.StatusReady && state.URL != ""
	copyLabel := m.l10n.T(i18n.CopyURLButton)
	if state.Copied {
		copyLabel = m.l10n.T(i18n.CopiedURLButton)
	}
	c.writeRegion(regionButtonEmail, m.renderButton(m.l10n.T(i18n.ShareButton), ready))
	c.write(" ")
	c.writeRegion(regionButtonCopy, m.renderButton(copyLabel, ready))
	c.newline()
}

func (m *model) renderButton(label string, enabled bool) string {
	text := "[ " + label + " ]"
	if !enabled {
		return m.styles.buttonOff.Render(text)
	}
	return m.styles.button.Render(text)
}

func (m *model) renderToS(width int) string {
	if m.tosCache != "" && m.tosWidth == width {
		return m.tosCache
	}
	text := m.l10n.T(i18n.LegalTextAndLinks,
		m.l10n.T(i18n.ClientShortnameFallback),
		render.Link(m.l10n.T(i18n.LegalTextToS), m.tosURL),
		render.Link(m.l10n.T(i18n.LegalTextPrivacy), m.privacyURL),
	)
	m.tosCache = render.Markdown(text, render.Options{NoColor: !m.opts.UseColor, Width: width})
	m.tosWidth = width
	return m.tosCache
}

func (m *model) identityLabel() string {
	if m.account != nil && strings.TrimSpace(m.account.Email) != "" {
		return m.account.Email
	}
	return m.l10n.T(i18n.DisplayNameGuest)
}

func (m *model) availabilityLabel() string {
	if m.opts.Availability != nil && m.opts.Availability.DoNotDisturb() {
		return m.l10n.T(i18n.DisplayNameDNDStatus)
	}
	return m.l10n.T(i18n.DisplayNameAvailable)
}

func (m *model) renderFooter(c *canvas, width int) {
	c.block("", m.styles.rule.Render(strings.Repeat("─", width)))

	identity := m.styles.menuItem.Render(m.identityLabel())
	availability := m.styles.menuItem.Render("● " + m.availabilityLabel() + " ▾")
	var signIn string
	if !m.signedIn {
		signIn = m.styles.link.Render(m.l10n.T(i18n.PanelFooterSignInOrSignUp))
	}
	settings := m.styles.menuItem.Render("⚙ " + m.l10n.T(i18n.SettingsMenuButtonTooltip) + " ▾")

	left := identity + " · " + availability
	right := settings
	if signIn != "" {
		right = signIn + "  " + settings
	}

	c.write(identity + " · ")
	c.writeRegion(triggerRegion(menuAvailability), availability)
	c.pad(padBetween(left, right, width))
	if signIn != "" {
		c.writeRegion(regionSignIn, signIn)
		c.write("  ")
	}
	c.writeRegion(triggerRegion(menuSettings), settings)
	c.newline()
}

func (m *model) renderMenu(c *canvas) {
	open := m.menus.Current()
	if open != m.availability && open != m.settings {
		return
	}
	indent := c.column(triggerRegion(open.Name()))
	for i, item := range m.menuItems(open.Name()) {
		marker := "  "
		style := m.styles.menuItem
		if i == m.menuCursor {
			marker = "› "
			style = m.styles.menuCursor
		}
		label := marker + item.label
		if item.checked {
			label += " ✓"
		}
		c.pad(indent)
		c.writeRegion(itemRegionPrefix(open.Name())+item.action, style.Render(label))
		c.newline()
	}
}
