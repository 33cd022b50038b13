package config

import (
	"time"

	"github.com/spf13/pflag"
)

// MockConfigHook implements config.Hook with per-method overrides. Getters
// without a mock fall back to Values, then to the zero value.
type MockConfigHook struct {
	Values map[string]any

	GetStringMock      func(key string) string
	GetBoolMock        func(key string) bool
	GetIntMock         func(key string) int
	GetIntOrElseMock   func(key string, orElse int) int
	GetDurationMock    func(key string) time.Duration
	SaveMock           func() error
	BindFlagMock       func(string, *pflag.Flag) error
	GetProfileMock     func() string
	GetStringSliceMock func(key string) []string
	SetStringMock      func(k string, v string)
	SetMock            func(k string, v any)
	GetMock            func(k string) any
	GetPathMock        func() string
}

func (m *MockConfigHook) Save() error {
	if m.SaveMock == nil {
		return nil
	}
	return m.SaveMock()
}

func (m *MockConfigHook) GetString(key string) string {
	if m.GetStringMock != nil {
		return m.GetStringMock(key)
	}
	s, _ := m.Values[key].(string)
	return s
}

func (m *MockConfigHook) GetBool(key string) bool {
	if m.GetBoolMock != nil {
		return m.GetBoolMock(key)
	}
	b, _ := m.Values[key].(bool)
	return b
}

func (m *MockConfigHook) GetInt(key string) int {
	if m.GetIntMock != nil {
		return m.GetIntMock(key)
	}
	i, _ := m.Values[key].(int)
	return i
}

func (m *MockConfigHook) GetIntOrElse(key string, orElse int) int {
	if m.GetIntOrElseMock != nil {
		return m.GetIntOrElseMock(key, orElse)
	}
	if i, ok := m.Values[key].(int); ok {
		return i
	}
	return orElse
}

func (m *MockConfigHook) GetDuration(key string) time.Duration {
	if m.GetDurationMock != nil {
		return m.GetDurationMock(key)
	}
	d, _ := m.Values[key].(time.Duration)
	return d
}

func (m *MockConfigHook) BindFlag(configPath string, f *pflag.Flag) error {
	if m.BindFlagMock == nil {
		return nil
	}
	return m.BindFlagMock(configPath, f)
}

func (m *MockConfigHook) GetProfile() string {
	if m.GetProfileMock == nil {
		return "default"
	}
	return m.GetProfileMock()
}

func (m *MockConfigHook) GetStringSlice(key string) []string {
	if m.GetStringSliceMock != nil {
		return m.GetStringSliceMock(key)
	}
	s, _ := m.Values[key].([]string)
	return s
}

func (m *MockConfigHook) SetString(k string, v string) {
	if m.SetStringMock != nil {
		m.SetStringMock(k, v)
		return
	}
	m.Set(k, v)
}

func (m *MockConfigHook) Set(k string, v any) {
	if m.SetMock != nil {
		m.SetMock(k, v)
		return
	}
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	m.Values[k] = v
}

func (m *MockConfigHook) Get(k string) any {
	if m.GetMock != nil {
		return m.GetMock(k)
	}
	return m.Values[k]
}

func (m *MockConfigHook) IsSet(k string) bool {
	_, ok := m.Values[k]
	return ok
}

func (m *MockConfigHook) GetPath() string {
	if m.GetPathMock == nil {
		return ""
	}
	return m.GetPathMock()
}
