package loop

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kong/loopctl/internal/config"
	"github.com/kong/loopctl/internal/profile"
)

// Preference names read through Environment.GetPreference.
const (
	PrefSeenToS    = "seen-tos"
	PrefToSURL     = "legal.tos-url"
	PrefPrivacyURL = "legal.privacy-url"
)

// Environment is the read-only view of preferences and identity the panel
// is constructed with.
type Environment interface {
	GetPreference(name string) string
	CurrentProfile() *profile.Account
	IsSignedIn() bool
}

// Availability persists the do-not-disturb flag.
type Availability interface {
	DoNotDisturb() bool
	SetDoNotDisturb(dnd bool) error
}

// Auth signs the user in and out.
type Auth interface {
	LogIn(ctx context.Context) error
	LogOut(ctx context.Context) error
}

// ConfigEnvironment implements Environment, Availability and Auth on top of
// the profile configuration. Auth changes are announced on Signals.
type ConfigEnvironment struct {
	cfg      config.Hook
	accounts profile.Manager
	signals  *Signals
}

func NewConfigEnvironment(cfg config.Hook, signals *Signals) *ConfigEnvironment {
	return &ConfigEnvironment{
		cfg:      cfg,
		accounts: profile.NewManager(cfg),
		signals:  signals,
	}
}

func (e *ConfigEnvironment) GetPreference(name string) string {
	return strings.TrimSpace(e.cfg.GetString("prefs." + name))
}

func (e *ConfigEnvironment) CurrentProfile() *profile.Account {
	return e.accounts.Current()
}

func (e *ConfigEnvironment) IsSignedIn() bool {
	return e.accounts.SignedIn()
}

func (e *ConfigEnvironment) DoNotDisturb() bool {
	return e.cfg.GetBool(config.DoNotDisturbConfigPath)
}

func (e *ConfigEnvironment) SetDoNotDisturb(dnd bool) error {
	e.cfg.Set(config.DoNotDisturbConfigPath, dnd)
	return e.cfg.Save()
}

func (e *ConfigEnvironment) LogIn(ctx context.Context) error {
	acct, err := e.accounts.SignIn()
	if err != nil {
		return err
	}
	logInfo(ctx, "signed in", slog.String("email", acct.Email))
	e.notifyAuth()
	return nil
}

func (e *ConfigEnvironment) LogOut(ctx context.Context) error {
	if err := e.accounts.SignOut(); err != nil {
		return err
	}
	logInfo(ctx, "signed out")
	e.notifyAuth()
	return nil
}

func (e *ConfigEnvironment) notifyAuth() {
	if e.signals != nil {
		e.signals.NotifyAuthStatusChanged()
	}
}
