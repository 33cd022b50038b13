package panel

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kong/loopctl/internal/loop"
	"github.com/kong/loopctl/internal/profile"
	"github.com/kong/loopctl/internal/util/i18n"
)

const testCallURL = "http://loop.test/call/abc123"

type fakeEnv struct {
	prefs   map[string]string
	account *profile.Account
	dnd     bool
	dndErr  error
	signals *loop.Signals
}

func (e *fakeEnv) GetPreference(name string) string { return e.prefs[name] }

func (e *fakeEnv) CurrentProfile() *profile.Account { return e.account }

func (e *fakeEnv) IsSignedIn() bool { return e.account != nil }

func (e *fakeEnv) DoNotDisturb() bool { return e.dnd }

func (e *fakeEnv) SetDoNotDisturb(dnd bool) error {
	if e.dndErr != nil {
		return e.dndErr
	}
	e.dnd = dnd
	return nil
}

func (e *fakeEnv) LogIn(context.Context) error {
	e.account = &profile.Account{Email: "ada@example.com"}
	e.signals.NotifyAuthStatusChanged()
	return nil
}

func (e *fakeEnv) LogOut(context.Context) error {
	e.account = nil
	e.signals.NotifyAuthStatusChanged()
	return nil
}

type fakeClipboard struct {
	copied []string
	err    error
}

func (c *fakeClipboard) CopyString(text string) error {
	if c.err != nil {
		return c.err
	}
	c.copied = append(c.copied, text)
	return nil
}

type fakeMailer struct {
	subject, body string
	calls         int
	err           error
}

func (m *fakeMailer) ComposeEmail(subject, body string) error {
	m.calls++
	m.subject, m.body = subject, body
	return m.err
}

type harness struct {
	m         *model
	env       *fakeEnv
	signals   *loop.Signals
	clipboard *fakeClipboard
	mailer    *fakeMailer
	requests  *atomic.Int32
	telemetry *atomic.Int32
	fences    int
}

type harnessOption func(*Options, *fakeEnv)

func withClientError(err error) harnessOption {
	return func(o *Options, _ *fakeEnv) {
		o.Client = loop.URLRequesterFunc(func(context.Context, string) (*loop.CallURLData, error) {
			return nil, err
		})
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		signals:   loop.NewSignals(true),
		clipboard: &fakeClipboard{},
		mailer:    &fakeMailer{},
		requests:  &atomic.Int32{},
		telemetry: &atomic.Int32{},
	}
	h.env = &fakeEnv{
		prefs: map[string]string{
			loop.PrefSeenToS:    "seen",
			loop.PrefToSURL:     "https://loop.test/legal/terms",
			loop.PrefPrivacyURL: "https://loop.test/legal/privacy",
		},
		signals: h.signals,
	}
	o := Options{
		Client: loop.URLRequesterFunc(func(context.Context, string) (*loop.CallURLData, error) {
			h.requests.Add(1)
			return &loop.CallURLData{CallURL: testCallURL, ExpiresAt: 1700000000}, nil
		}),
		Telemetry: loop.TelemetryFunc(func(context.Context, int64) {
			h.telemetry.Add(1)
		}),
		Env:       h.env,
		Signals:   h.signals,
		Clipboard: h.clipboard,
		Mailer:    h.mailer,
		Width:     60,
	}
	for _, opt := range opts {
		opt(&o, h.env)
	}
	h.m = newModel(context.Background(), o)
	t.Cleanup(h.m.zones.Close)
	return h
}

// run executes cmd and every command batched inside it, feeding call URL
// results back into the model.
func (h *harness) run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, h.run(c)...)
		}
		return out
	}
	if _, ok := msg.(callURLResultMsg); ok {
		h.m.Update(msg)
	}
	return []tea.Msg{msg}
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		h.run(h.send(msg))
	}
}

func (h *harness) view() string {
	return ansi.Strip(h.m.View())
}

func (h *harness) mount(t *testing.T) {
	t.Helper()
	h.run(h.m.Init())
	require.Equal(t, loop.StatusReady, h.m.session.Snapshot().Status)
}

// settle renders the panel and waits until the zone manager holds exactly
// the zones of that render. Scanned zones are stored in order by a worker, so
// once the fence from the previous scan is gone the render has landed.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.fences++
	fence := "fence:" + strconv.Itoa(h.fences)
	h.m.zones.Scan(h.m.zones.Mark(fence, " "))
	require.Eventually(t, func() bool { return !h.m.zones.Get(fence).IsZero() }, time.Second, time.Millisecond)
	h.m.View()
	require.Eventually(t, func() bool { return h.m.zones.Get(fence).IsZero() }, time.Second, time.Millisecond)
}

func (h *harness) zone(t *testing.T, id string) *zone.ZoneInfo {
	t.Helper()
	h.settle(t)
	z := h.m.zones.Get(id)
	require.False(t, z.IsZero(), "zone %q not rendered", id)
	return z
}

func (h *harness) click(t *testing.T, id string) {
	t.Helper()
	z := h.zone(t, id)
	h.run(h.send(tea.MouseMsg{X: z.StartX, Y: z.StartY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}))
}

func TestMountFetchesAndShowsURL(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	assert.Equal(t, int32(1), h.requests.Load())
	view := h.view()
	assert.Contains(t, view, testCallURL)
	assert.Contains(t, view, "[ Copy ]")
	assert.Contains(t, view, "[ Email ]")
}

func TestPendingShowsGenerating(t *testing.T) {
	h := newHarness(t)
	cmd := h.m.Init()
	require.NotNil(t, cmd)

	assert.Equal(t, loop.StatusPending, h.m.session.Snapshot().Status)
	assert.Contains(t, h.view(), "Generating link")
}

func TestPreseededURLSkipsMountFetch(t *testing.T) {
	h := newHarness(t, func(o *Options, _ *fakeEnv) {
		o.InitialURL = "http://loop.test/call/preseeded"
	})

	assert.Nil(t, h.m.Init())
	assert.Equal(t, int32(0), h.requests.Load())
	assert.Contains(t, h.view(), "http://loop.test/call/preseeded")
}

func TestBecomingVisibleRefreshes(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.send(tea.BlurMsg{})
	assert.False(t, h.signals.Visible())

	cmd := h.send(tea.FocusMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, loop.StatusPending, h.m.session.Snapshot().Status)
	h.run(cmd)

	assert.Equal(t, int32(2), h.requests.Load())
	assert.Equal(t, loop.StatusReady, h.m.session.Snapshot().Status)
}

func TestResumeRefreshes(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.send(tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.False(t, h.signals.Visible())

	h.run(h.send(tea.ResumeMsg{}))
	assert.Equal(t, int32(2), h.requests.Load())
}

func TestRefreshWhilePendingIsIgnored(t *testing.T) {
	h := newHarness(t)
	initCmd := h.m.Init()

	h.send(tea.BlurMsg{})
	assert.Nil(t, h.send(tea.FocusMsg{}))

	h.run(initCmd)
	assert.Equal(t, int32(1), h.requests.Load())
	assert.Equal(t, loop.StatusReady, h.m.session.Snapshot().Status)
}

func TestHidingClearsNotifications(t *testing.T) {
	h := newHarness(t, withClientError(errors.New("boom")))
	h.run(h.m.Init())
	require.Equal(t, 1, h.m.notifications.Len())

	h.send(tea.BlurMsg{})
	assert.Equal(t, 0, h.m.notifications.Len())
}

func TestFetchErrorShowsOneNotification(t *testing.T) {
	h := newHarness(t, withClientError(errors.New("connection refused")))
	h.run(h.m.Init())

	state := h.m.session.Snapshot()
	assert.Equal(t, loop.StatusIdle, state.Status)
	assert.Empty(t, state.URL)
	assert.Equal(t, 1, h.m.notifications.CountKey(i18n.UnableRetrieveURL))
	assert.Contains(t, h.view(), "unable to retrieve a call url")
}

func TestCopyKey(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("c")

	assert.Equal(t, []string{testCallURL}, h.clipboard.copied)
	assert.True(t, h.m.session.Snapshot().Copied)
	assert.Equal(t, int32(1), h.telemetry.Load())
	assert.Contains(t, h.view(), "[ Copied! ]")
}

func TestCopyWithoutURLDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.m.Init()

	h.press("c")

	assert.Empty(t, h.clipboard.copied)
	assert.False(t, h.m.session.Snapshot().Copied)
	assert.Equal(t, int32(0), h.telemetry.Load())
}

func TestCopyFailureNotifies(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.clipboard.err = errors.New("no clipboard utility")

	h.press("c")

	assert.False(t, h.m.session.Snapshot().Copied)
	assert.Equal(t, 1, h.m.notifications.CountKey(i18n.ClipboardFailed))
	assert.Equal(t, int32(1), h.telemetry.Load())
}

func TestEmailFailureNotifiesAndRecordsTelemetry(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.mailer.err = errors.New("no mail client")

	h.press("e")

	assert.Equal(t, 1, h.mailer.calls)
	assert.Equal(t, 1, h.m.notifications.CountKey(i18n.EmailFailed))
	assert.Equal(t, int32(1), h.telemetry.Load())
}

func TestEmailKey(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("e")

	require.Equal(t, 1, h.mailer.calls)
	assert.Equal(t, "You have been invited to a conversation", h.mailer.subject)
	assert.True(t, strings.HasSuffix(h.mailer.body, testCallURL))
	assert.False(t, h.m.session.Snapshot().Copied)
	assert.Equal(t, int32(1), h.telemetry.Load())
}

func TestContactsTab(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("tab")
	view := h.view()
	assert.Contains(t, view, "Contacts are not available yet.")
	assert.NotContains(t, view, testCallURL)

	h.press("c")
	assert.Empty(t, h.clipboard.copied)

	h.press("tab")
	assert.Contains(t, h.view(), testCallURL)
}

func TestMenusAreExclusive(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("a")
	assert.True(t, h.m.availability.IsOpen())

	h.press("s")
	assert.True(t, h.m.settings.IsOpen())
	assert.False(t, h.m.availability.IsOpen())

	h.press("esc")
	assert.Nil(t, h.m.menus.Current())
}

func TestAvailabilityMenuSetsDoNotDisturb(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("a", "down", "enter")

	assert.True(t, h.env.dnd)
	assert.False(t, h.m.availability.IsOpen())
	assert.Contains(t, h.view(), "Do Not Disturb")
}

func TestAvailabilityFailureNotifies(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	h.env.dndErr = errors.New("read-only config")

	h.press("a", "down", "enter")

	assert.False(t, h.env.dnd)
	assert.Equal(t, 1, h.m.notifications.CountKey(i18n.AvailabilityUpdateFailed))
}

func TestPointerLeavingMenuClosesIt(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("a")
	trigger := h.zone(t, triggerRegion(menuAvailability))

	h.send(tea.MouseMsg{X: trigger.StartX, Y: trigger.StartY, Action: tea.MouseActionMotion})
	assert.True(t, h.m.availability.IsOpen())

	item := h.zone(t, itemRegionPrefix(menuAvailability)+actionDoNotDisturb)
	h.send(tea.MouseMsg{X: item.StartX, Y: item.StartY, Action: tea.MouseActionMotion})
	assert.True(t, h.m.availability.IsOpen())

	h.send(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionMotion})
	assert.False(t, h.m.availability.IsOpen())
}

func TestClickActions(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.click(t, regionButtonCopy)
	assert.Equal(t, []string{testCallURL}, h.clipboard.copied)

	h.click(t, triggerRegion(menuAvailability))
	assert.True(t, h.m.availability.IsOpen())
	h.click(t, itemRegionPrefix(menuAvailability)+actionDoNotDisturb)
	assert.True(t, h.env.dnd)
	assert.Nil(t, h.m.menus.Current())

	h.click(t, regionTabPrefix+"1")
	assert.Equal(t, tabContacts, h.m.tab)
}

func TestClickOutsideClosesMenu(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	h.press("s")
	h.settle(t)
	h.send(tea.MouseMsg{X: 0, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Nil(t, h.m.menus.Current())
}

func TestSignInUpdatesIdentity(t *testing.T) {
	h := newHarness(t)
	h.mount(t)

	view := h.view()
	assert.Contains(t, view, "Guest")
	assert.Contains(t, view, "Sign In or Sign Up")

	h.click(t, regionSignIn)

	view = h.view()
	assert.Contains(t, view, "ada@example.com")
	assert.NotContains(t, view, "Sign In or Sign Up")

	h.press("s")
	assert.Contains(t, h.view(), "Sign Out")
	h.press("down", "down", "enter")
	assert.Nil(t, h.env.account)
	assert.Contains(t, h.view(), "Guest")
}

func TestTermsShownOnlyWhenUnseen(t *testing.T) {
	h := newHarness(t)
	h.mount(t)
	assert.NotContains(t, h.view(), "Terms")

	unseen := newHarness(t, func(_ *Options, env *fakeEnv) {
		env.prefs[loop.PrefSeenToS] = "unseen"
	})
	unseen.mount(t)
	view := unseen.view()
	assert.Contains(t, view, "Terms")
	assert.Contains(t, view, "Privacy")
}

func TestDismissNotificationByClick(t *testing.T) {
	h := newHarness(t, withClientError(errors.New("boom")))
	h.run(h.m.Init())
	notes := h.m.notifications.List()
	require.Len(t, notes, 1)

	h.click(t, regionNoticePrefix+strconv.Itoa(notes[0].ID))
	assert.Equal(t, 0, h.m.notifications.Len())
}

func TestQuitTearsDown(t *testing.T) {
	h := newHarness(t)
	initCmd := h.m.Init()

	cmd := h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	h.run(initCmd)
	assert.NotEqual(t, loop.StatusReady, h.m.session.Snapshot().Status)

	h.signals.SetVisible(false)
	h.signals.SetVisible(true)
	assert.Empty(t, h.m.pending)
}
