package panel

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/kong/loopctl/internal/config"
	"github.com/kong/loopctl/internal/iostreams"
	applog "github.com/kong/loopctl/internal/log"
	"github.com/kong/loopctl/internal/loop"
	"github.com/kong/loopctl/internal/profile"
	"github.com/kong/loopctl/internal/theme"
	"github.com/kong/loopctl/internal/util/i18n"
)

// Options configure the interactive panel.
type Options struct {
	Client     loop.URLRequester
	Telemetry  loop.Telemetry
	InitialURL string

	Env          loop.Environment
	Availability loop.Availability
	Auth         loop.Auth
	Signals      *loop.Signals
	Menus        *loop.MenuController
	Clipboard    loop.Clipboard
	Mailer       loop.Mailer
	Translator   *i18n.Translator

	Theme      theme.Palette
	UseColor   bool
	Width      int
	ConfigPath string

	NewConversationID func() string
}

const (
	tabCall = iota
	tabContacts
	tabCount
)

const (
	menuAvailability = "availability"
	menuSettings     = "settings"
)

const (
	defaultWidth = 60
	minWidth     = 30
	maxWidth     = 80
)

type callURLResultMsg struct {
	result loop.Result
}

type menuItem struct {
	action  string
	label   string
	checked bool
}

type model struct {
	ctx  context.Context
	opts Options

	styles  themeStyles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	l10n          *i18n.Translator
	session       *loop.Session
	notifications *loop.NotificationCenter
	signals       *loop.Signals
	menus         *loop.MenuController
	availability  *loop.Menu
	settings      *loop.Menu
	menuCursor    int

	tab        int
	width      int
	account    *profile.Account
	signedIn   bool
	seenToS    bool
	tosURL     string
	privacyURL string
	tosCache   string
	tosWidth   int

	zones   *zone.Manager
	layout  *canvas
	pending []tea.Cmd
	unsubs  []func()
	closed  bool
}

// Run starts the panel and blocks until the user quits.
func Run(ctx context.Context, streams *iostreams.IOStreams, opts Options) error {
	logger := applog.FromContext(ctx)
	logger.LogAttrs(ctx, slog.LevelInfo, "loop panel started",
		slog.Bool("preseeded", opts.InitialURL != ""))

	m := newModel(ctx, opts)
	defer m.teardown()

	program := tea.NewProgram(
		m,
		tea.WithContext(ctx),
		tea.WithInput(streams.In),
		tea.WithOutput(streams.Out),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
		tea.WithoutSignalHandler(),
	)
	_, err := program.Run()

	logger.LogAttrs(ctx, slog.LevelInfo, "loop panel finished",
		slog.String("status", m.session.Snapshot().Status.String()))
	return err
}

func newModel(ctx context.Context, opts Options) *model {
	if opts.Translator == nil {
		opts.Translator = i18n.Default()
	}
	if opts.Signals == nil {
		opts.Signals = loop.NewSignals(true)
	}
	if opts.Menus == nil {
		opts.Menus = loop.NewMenuController()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = loop.SystemClipboard{}
	}
	if opts.Mailer == nil {
		opts.Mailer = loop.SystemMailer{}
	}
	if opts.Availability == nil {
		if a, ok := opts.Env.(loop.Availability); ok {
			opts.Availability = a
		}
	}
	if opts.Auth == nil {
		if a, ok := opts.Env.(loop.Auth); ok {
			opts.Auth = a
		}
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.Default()
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}

	styles := buildThemeStyles(opts.Theme, opts.UseColor)
	spin := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	spin.Style = styles.spinner

	notifications := loop.NewNotificationCenter(opts.Translator)
	m := &model{
		ctx:     ctx,
		opts:    opts,
		styles:  styles,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spin,
		l10n:    opts.Translator,
		session: loop.NewSession(loop.SessionOptions{
			Client:            opts.Client,
			Notifications:     notifications,
			Telemetry:         opts.Telemetry,
			InitialURL:        opts.InitialURL,
			NewConversationID: opts.NewConversationID,
		}),
		notifications: notifications,
		signals:       opts.Signals,
		menus:         opts.Menus,
		width:         width,
		zones:         zone.New(),
	}
	m.availability = loop.NewMenu(menuAvailability, m.menus, m.resetMenuCursor)
	m.settings = loop.NewMenu(menuSettings, m.menus, m.resetMenuCursor)

	m.readPreferences()
	m.reloadIdentity()

	m.unsubs = append(m.unsubs,
		m.signals.OnVisible(m.refreshOnShow),
		m.signals.OnAuthStatusChanged(m.reloadIdentity),
	)
	return m
}

func (m *model) logger() *slog.Logger {
	return applog.FromContext(m.ctx)
}

// readPreferences snapshots the preferences the panel reads at mount.
func (m *model) readPreferences() {
	if m.opts.Env == nil {
		m.seenToS = true
		return
	}
	m.seenToS = m.opts.Env.GetPreference(loop.PrefSeenToS) != config.SeenToSUnseen
	m.tosURL = m.opts.Env.GetPreference(loop.PrefToSURL)
	m.privacyURL = m.opts.Env.GetPreference(loop.PrefPrivacyURL)
}

func (m *model) reloadIdentity() {
	if m.opts.Env == nil {
		m.account, m.signedIn = nil, false
		return
	}
	m.account = m.opts.Env.CurrentProfile()
	m.signedIn = m.opts.Env.IsSignedIn()
}

func (m *model) refreshOnShow() {
	if req := m.session.Refresh(m.ctx); req != nil {
		m.pending = append(m.pending, m.fetchCmd(req))
	}
}

func (m *model) resetMenuCursor() {
	m.menuCursor = 0
}

func (m *model) fetchCmd(req *loop.Request) tea.Cmd {
	ctx := m.ctx
	return tea.Batch(
		func() tea.Msg { return callURLResultMsg{result: req.Do(ctx)} },
		m.spinner.Tick,
	)
}

// drain returns the commands queued by signal subscribers.
func (m *model) drain(cmds ...tea.Cmd) tea.Cmd {
	cmds = append(cmds, m.pending...)
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *model) Init() tea.Cmd {
	if req := m.session.Mount(m.ctx); req != nil {
		return m.fetchCmd(req)
	}
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callURLResultMsg:
		outcome := m.session.Apply(m.ctx, msg.result)
		m.logger().LogAttrs(m.ctx, slog.LevelDebug, "call url result applied",
			slog.String("outcome", outcome.String()))
		return m, nil
	case spinner.TickMsg:
		if m.session.Snapshot().Status != loop.StatusPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		m.help.Width = m.contentWidth()
		return m, nil
	case tea.FocusMsg, tea.ResumeMsg:
		m.signals.SetVisible(true)
		return m, m.drain()
	case tea.BlurMsg:
		m.hide()
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, m.drain()
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, m.drain(cmd)
	}
	return m, nil
}

func (m *model) hide() {
	m.signals.SetVisible(false)
	m.notifications.Reset()
	if open := m.menus.Current(); open != nil {
		open.FocusLost()
	}
}

func (m *model) teardown() {
	if m.closed {
		return
	}
	m.closed = true
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.menus.CloseAll()
	m.session.Close()
	m.zones.Close()
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.teardown()
		return tea.Quit
	}
	if key.Matches(msg, m.keys.Suspend) {
		m.hide()
		return tea.Suspend
	}

	if open := m.menus.Current(); open != nil {
		items := m.menuItems(open.Name())
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.menuCursor > 0 {
				m.menuCursor--
			}
			return nil
		case key.Matches(msg, m.keys.Down):
			if m.menuCursor < len(items)-1 {
				m.menuCursor++
			}
			return nil
		case key.Matches(msg, m.keys.Select):
			if m.menuCursor < len(items) {
				m.selectItem(open.Name(), items[m.menuCursor].action)
			}
			return nil
		case key.Matches(msg, m.keys.Close):
			open.Hide()
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keys.Copy):
		if m.tab == tabCall {
			m.copyURL()
		}
	case key.Matches(msg, m.keys.Email):
		if m.tab == tabCall {
			m.emailURL()
		}
	case key.Matches(msg, m.keys.Availability):
		m.availability.Toggle()
	case key.Matches(msg, m.keys.Settings):
		m.settings.Toggle()
	case key.Matches(msg, m.keys.Close):
		m.menus.CloseAll()
	}
	return nil
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	if m.layout == nil {
		return
	}
	if msg.Action == tea.MouseActionMotion {
		open := m.menus.Current()
		if open == nil {
			return
		}
		x0, y0, x1, y1, ok := m.layout.bounds(triggerRegion(open.Name()), itemRegionPrefix(open.Name()))
		if !ok || msg.X < x0 || msg.X >= x1 || msg.Y < y0 || msg.Y >= y1 {
			open.PointerLeft()
		}
		return
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	id, ok := m.layout.hit(msg)
	if !ok {
		m.menus.CloseAll()
		return
	}
	m.activate(id)
}

const (
	regionTabPrefix     = "tab:"
	regionButtonCopy    = "button:copy"
	regionButtonEmail   = "button:email"
	regionSignIn        = "link:signin"
	regionNoticePrefix  = "notice:"
	regionItemPrefix    = "item:"
	regionTriggerPrefix = "trigger:"
)

func triggerRegion(menu string) string    { return regionTriggerPrefix + menu }
func itemRegionPrefix(menu string) string { return regionItemPrefix + menu + ":" }

func (m *model) activate(id string) {
	switch {
	case id == regionButtonCopy:
		m.copyURL()
	case id == regionButtonEmail:
		m.emailURL()
	case id == regionSignIn:
		m.signIn()
	case id == triggerRegion(menuAvailability):
		m.availability.Toggle()
	case id == triggerRegion(menuSettings):
		m.settings.Toggle()
	case strings.HasPrefix(id, regionTabPrefix):
		if n, err := strconv.Atoi(strings.TrimPrefix(id, regionTabPrefix)); err == nil && n >= 0 && n < tabCount {
			m.tab = n
		}
	case strings.HasPrefix(id, regionNoticePrefix):
		if n, err := strconv.Atoi(strings.TrimPrefix(id, regionNoticePrefix)); err == nil {
			m.notifications.Dismiss(n)
		}
	case strings.HasPrefix(id, regionItemPrefix):
		menu, action, ok := strings.Cut(strings.TrimPrefix(id, regionItemPrefix), ":")
		if ok {
			m.selectItem(menu, action)
		}
	}
}

const (
	actionAvailable    = "available"
	actionDoNotDisturb = "dnd"
	actionSettings     = "settings"
	actionAccount      = "account"
	actionSignIn       = "signin"
	actionSignOut      = "signout"
)

func (m *model) menuItems(menu string) []menuItem {
	switch menu {
	case menuAvailability:
		dnd := m.opts.Availability != nil && m.opts.Availability.DoNotDisturb()
		return []menuItem{
			{action: actionAvailable, label: m.l10n.T(i18n.DisplayNameAvailable), checked: !dnd},
			{action: actionDoNotDisturb, label: m.l10n.T(i18n.DisplayNameDNDStatus), checked: dnd},
		}
	case menuSettings:
		items := []menuItem{{action: actionSettings, label: m.l10n.T(i18n.SettingsMenuItemSettings)}}
		if m.signedIn {
			items = append(items,
				menuItem{action: actionAccount, label: m.l10n.T(i18n.SettingsMenuItemAccount)},
				menuItem{action: actionSignOut, label: m.l10n.T(i18n.SettingsMenuItemSignOut)})
		} else {
			items = append(items, menuItem{action: actionSignIn, label: m.l10n.T(i18n.SettingsMenuItemSignIn)})
		}
		return items
	}
	return nil
}

func (m *model) selectItem(menu, action string) {
	switch menu {
	case menuAvailability:
		m.availability.Hide()
		m.setDoNotDisturb(action == actionDoNotDisturb)
	case menuSettings:
		m.settings.Hide()
		switch action {
		case actionSettings:
			if m.opts.ConfigPath != "" {
				m.notifications.AddL10n(loop.LevelInfo, i18n.SettingsLocation, m.opts.ConfigPath)
			}
		case actionAccount:
			if m.account != nil {
				m.notifications.AddL10n(loop.LevelInfo, i18n.AccountSignedInAs, m.account.Email)
			}
		case actionSignIn:
			m.signIn()
		case actionSignOut:
			m.signOut()
		}
	}
}

func (m *model) copyURL() {
	state := m.session.Snapshot()
	if state.Status != loop.StatusReady || state.URL == "" {
		return
	}
	// the click counts for telemetry whether or not the clipboard works
	m.session.RecordExpiryTelemetry(m.ctx)
	if err := m.opts.Clipboard.CopyString(state.URL); err != nil {
		m.notifications.ErrorL10n(i18n.ClipboardFailed)
		m.logger().LogAttrs(m.ctx, slog.LevelWarn, "copy call url failed",
			slog.String("error", err.Error()))
		return
	}
	m.session.MarkCopied()
}

func (m *model) emailURL() {
	state := m.session.Snapshot()
	if state.Status != loop.StatusReady || state.URL == "" {
		return
	}
	subject := m.l10n.T(i18n.ShareEmailSubject)
	body := m.l10n.T(i18n.ShareEmailBody, state.URL)
	m.session.RecordExpiryTelemetry(m.ctx)
	if err := m.opts.Mailer.ComposeEmail(subject, body); err != nil {
		m.notifications.ErrorL10n(i18n.EmailFailed)
		m.logger().LogAttrs(m.ctx, slog.LevelWarn, "compose call url email failed",
			slog.String("error", err.Error()))
	}
}

func (m *model) setDoNotDisturb(dnd bool) {
	if m.opts.Availability == nil {
		return
	}
	if err := m.opts.Availability.SetDoNotDisturb(dnd); err != nil {
		m.notifications.ErrorL10n(i18n.AvailabilityUpdateFailed)
		m.logger().LogAttrs(m.ctx, slog.LevelWarn, "availability update failed",
			slog.Bool("dnd", dnd),
			slog.String("error", err.Error()))
	}
}

func (m *model) signIn() {
	if m.opts.Auth == nil {
		return
	}
	if err := m.opts.Auth.LogIn(m.ctx); err != nil {
		m.notifications.ErrorL10n(i18n.AuthFailed)
		m.logger().LogAttrs(m.ctx, slog.LevelWarn, "sign in failed", slog.String("error", err.Error()))
	}
}

func (m *model) signOut() {
	if m.opts.Auth == nil {
		return
	}
	if err := m.opts.Auth.LogOut(m.ctx); err != nil {
		m.notifications.ErrorL10n(i18n.AuthFailed)
		m.logger().LogAttrs(m.ctx, slog.LevelWarn, "sign out failed", slog.String("error", err.Error()))
	}
}

func (m *model) contentWidth() int {
	return min(max(m.width, minWidth), maxWidth)
}
