package loop

import (
	"slices"
	"sync"
)

// Level is the severity of a Notification.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Localizer resolves a message key to display text.
type Localizer interface {
	T(key string, args ...any) string
}

type identityLocalizer struct{}

func (identityLocalizer) T(key string, _ ...any) string { return key }

// Notification is a dismissible notice shown at the top of the panel.
type Notification struct {
	ID      int    `json:"id"            yaml:"id"`
	Level   Level  `json:"level"         yaml:"level"`
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`
	Message string `json:"message"       yaml:"message"`
}

// NotificationCenter is an ordered list of notices. IDs increase
// monotonically for the lifetime of the center and are never reused.
type NotificationCenter struct {
	mu     sync.Mutex
	l10n   Localizer
	nextID int
	items  []Notification
}

// NewNotificationCenter returns an empty center. A nil localizer shows keys verbatim.
func NewNotificationCenter(l10n Localizer) *NotificationCenter {
	if l10n == nil {
		l10n = identityLocalizer{}
	}
	return &NotificationCenter{l10n: l10n}
}

// Reset removes every notice.
func (c *NotificationCenter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// AddL10n appends a notice whose message is the localized text for key.
func (c *NotificationCenter) AddL10n(level Level, key string, args ...any) Notification {
	return c.add(level, key, c.l10n.T(key, args...))
}

// ErrorL10n appends a localized error notice.
func (c *NotificationCenter) ErrorL10n(key string, args ...any) Notification {
	return c.AddL10n(LevelError, key, args...)
}

// Add appends a notice with a literal message.
func (c *NotificationCenter) Add(level Level, message string) Notification {
	return c.add(level, "", message)
}

func (c *NotificationCenter) add(level Level, key, message string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	n := Notification{ID: c.nextID, Level: level, Key: key, Message: message}
	c.items = append(c.items, n)
	return n
}

// Dismiss removes the notice with id and reports whether it existed.
func (c *NotificationCenter) Dismiss(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.IndexFunc(c.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		return false
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return true
}

// List returns the notices in insertion order.
func (c *NotificationCenter) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *NotificationCenter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CountKey returns how many notices carry key.
func (c *NotificationCenter) CountKey(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.items {
		if item.Key == key {
			n++
		}
	}
	return n
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
