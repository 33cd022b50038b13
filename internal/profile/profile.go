package profile

import (
	"errors"
	"strings"

	"github.com/kong/loopctl/internal/config"
)

const (
	DefaultProfile = "default"
)

var (
	errorNoAccount    = errors.New("no account configured, set account.email for this profile")
	errorInvalidEmail = errors.New("invalid account email")
)

// Account is the identity of the signed-in user.
type Account struct {
	Email       string `json:"email"                  yaml:"email"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// Manager reads and updates the account stored in a profile.
type Manager interface {
	Current() *Account
	SignedIn() bool
	SignIn() (*Account, error)
	SignOut() error
	Configure(email, displayName string) error
}

type accountManager struct {
	cfg config.Hook
}

// Empty type to represent the _type_ Manager. Genesis is to support a key in a Context
type Key struct{}

// Global instance of the ProfileManagerKey type
var ProfileManagerKey = Key{}

func NewManager(cfg config.Hook) Manager {
	return &accountManager{cfg: cfg}
}

// Current returns the signed-in account, or nil when signed out.
func (m *accountManager) Current() *Account {
	if !m.SignedIn() {
		return nil
	}
	return &Account{
		Email:       strings.TrimSpace(m.cfg.GetString(config.AccountEmailConfigPath)),
		DisplayName: strings.TrimSpace(m.cfg.GetString(config.AccountDisplayNameConfigPath)),
	}
}

func (m *accountManager) SignedIn() bool {
	return m.cfg.GetBool(config.AccountSignedInConfigPath) &&
		strings.TrimSpace(m.cfg.GetString(config.AccountEmailConfigPath)) != ""
}

// SignIn marks the configured account as signed in and persists it.
func (m *accountManager) SignIn() (*Account, error) {
	if strings.TrimSpace(m.cfg.GetString(config.AccountEmailConfigPath)) == "" {
		return nil, errorNoAccount
	}
	m.cfg.Set(config.AccountSignedInConfigPath, true)
	if err := m.cfg.Save(); err != nil {
		return nil, err
	}
	return m.Current(), nil
}

func (m *accountManager) SignOut() error {
	m.cfg.Set(config.AccountSignedInConfigPath, false)
	return m.cfg.Save()
}

// Configure stores the account identity without signing in.
func (m *accountManager) Configure(email, displayName string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return errorInvalidEmail
	}
	m.cfg.SetString(config.AccountEmailConfigPath, email)
	m.cfg.SetString(config.AccountDisplayNameConfigPath, strings.TrimSpace(displayName))
	return m.cfg.Save()
}
