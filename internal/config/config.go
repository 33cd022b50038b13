package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kong/loopctl/internal/cmd/common"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/util/viper"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var defaultConfigFileName = "config.yaml"

// Configuration paths, relative to the active profile.
const (
	ServerURLConfigPath      = "loop.server-url"
	SessionTokenConfigPath   = "loop.session-token"
	RequestTimeoutConfigPath = "loop.request-timeout"
	URLExpiresInConfigPath   = "loop.url-expires-in"

	SeenToSConfigPath      = "prefs.seen-tos"
	ToSURLConfigPath       = "prefs.legal.tos-url"
	PrivacyURLConfigPath   = "prefs.legal.privacy-url"
	DoNotDisturbConfigPath = "prefs.do-not-disturb"

	AccountEmailConfigPath       = "account.email"
	AccountDisplayNameConfigPath = "account.display-name"
	AccountSignedInConfigPath    = "account.signed-in"

	TelemetryEnabledConfigPath = "telemetry.enabled"
)

const (
	DefaultServerURL      = "http://localhost:5000"
	DefaultRequestTimeout = 30 * time.Second
	// DefaultURLExpiresIn is the lifetime, in hours, requested for new call URLs.
	DefaultURLExpiresIn = 720
	SeenToSUnseen       = "unseen"
	SeenToSSeen         = "seen"
	DefaultToSURL       = "https://www.mozilla.org/about/legal/terms/firefox-hello/"
	DefaultPrivacyURL   = "https://www.mozilla.org/privacy/firefox-hello/"
)

// Returns the expanded default config path depending on what
// environment variables are set. If XDG_CONFIG_HOME is set,
// the default is $XDG_CONFIG_HOME/loopctl,
// otherwise the default is os.UserHomeDir()/.config/loopctl.
func GetDefaultConfigPath() (string, error) {
	val, set := os.LookupEnv("XDG_CONFIG_HOME")
	if !set || val == "" {
		var err error
		val, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
		val = filepath.Join(val, ".config")
	}
	val = filepath.Join(val, meta.CLIName)
	return os.ExpandEnv(val), nil
}

func GetDefaultConfigFilePath() (string, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(path, defaultConfigFileName), nil
}

// GetConfig returns the configuration for this instance of the CLI
func GetConfig(path string, profile string, defaultConfigFilePath string) (*ProfiledConfig, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); err == nil {
		// an explicit file must load cleanly
		vip, err := viper.NewViperE(path)
		if err != nil {
			return nil, err
		}
		return BuildProfiledConfig(profile, path, vip), nil
	}

	if path != defaultConfigFilePath {
		return nil, fmt.Errorf("the provided config file path does not exist")
	}

	vip, err := viper.InitializeDefaultViper(getDefaultConfig(profile, path), path)
	if err != nil {
		return nil, err
	}
	return BuildProfiledConfig(profile, path, vip), nil
}

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// Config is a global instance of the Key type
var ConfigKey = Key{}

// Hook is the restricted view of the profile configuration used by commands
// and the panel.
type Hook interface {
	// Save writes the configuration to the file system
	Save() error
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	// GetIntOrElse returns an integer value from the configuration or a default
	GetIntOrElse(key string, orElse int) int
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	SetString(key string, value string)
	Set(k string, v any)
	Get(key string) any
	IsSet(key string) bool
	// BindFlag takes a specific configuration path and
	// binds it to a specific flag
	BindFlag(configPath string, f *pflag.Flag) error
	// The profile for this configuration
	GetProfile() string
	// The file path used to load this configuration
	GetPath() string
}

// ProfiledConfig is a Viper with an associated profile. Reads and writes go
// to the profile's sub-tree; Save persists the whole file.
type ProfiledConfig struct {
	*v.Viper
	subViper    *v.Viper
	ProfileName string
	Path        string
}

func (p *ProfiledConfig) GetProfile() string {
	return p.ProfileName
}

func (p *ProfiledConfig) Save() error {
	return viper.PersistViper(p.Viper)
}

func (p *ProfiledConfig) GetString(key string) string {
	return p.subViper.GetString(key)
}

func (p *ProfiledConfig) GetBool(key string) bool {
	return p.subViper.GetBool(key)
}

func (p *ProfiledConfig) GetInt(key string) int {
	return p.subViper.GetInt(key)
}

func (p *ProfiledConfig) GetIntOrElse(key string, orElse int) int {
	if p.subViper.IsSet(key) {
		return p.subViper.GetInt(key)
	}
	return orElse
}

func (p *ProfiledConfig) GetDuration(key string) time.Duration {
	return p.subViper.GetDuration(key)
}

func (p *ProfiledConfig) GetStringSlice(key string) []string {
	return p.subViper.GetStringSlice(key)
}

func (p *ProfiledConfig) Get(key string) any {
	return p.subViper.Get(key)
}

func (p *ProfiledConfig) IsSet(key string) bool {
	return p.subViper.IsSet(key)
}

func (p *ProfiledConfig) BindFlag(configPath string, f *pflag.Flag) error {
	return p.subViper.BindPFlag(configPath, f)
}

func (p *ProfiledConfig) SetString(k string, v string) {
	p.Set(k, v)
}

// Set overrides k for the profile. viper.Sub returns a detached copy, so the
// value is also written through to the main viper for Save.
func (p *ProfiledConfig) Set(k string, v any) {
	p.subViper.Set(k, v)
	p.Viper.Set(p.ProfileName+"."+k, v)
}

func (p *ProfiledConfig) GetPath() string {
	return p.Path
}

func BuildProfiledConfig(profile string, path string, mainv *v.Viper) *ProfiledConfig {
	subv := mainv.Sub(profile)
	if subv == nil {
		// the profile has no data in the file yet
		subv = v.New()
	}
	// sub-vipers do not inherit env handling, so profile env vars
	// (LOOPCTL_<PROFILE>_<KEY>) are configured explicitly
	envPrefix := meta.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(profile, "-", "_"))
	viper.ConfigureEnvVars(subv, envPrefix)
	applyDefaults(subv)

	return &ProfiledConfig{
		Viper:       mainv,
		ProfileName: profile,
		subViper:    subv,
		Path:        path,
	}
}

func applyDefaults(subv *v.Viper) {
	subv.SetDefault(common.OutputConfigPath, common.DefaultOutputFormat)
	subv.SetDefault(common.LogLevelConfigPath, common.DefaultLogLevel)
	subv.SetDefault(common.ColorConfigPath, common.DefaultColorMode)
	subv.SetDefault(common.LocaleConfigPath, common.DefaultLocale)
	subv.SetDefault(ServerURLConfigPath, DefaultServerURL)
	subv.SetDefault(RequestTimeoutConfigPath, DefaultRequestTimeout)
	subv.SetDefault(URLExpiresInConfigPath, DefaultURLExpiresIn)
	subv.SetDefault(SeenToSConfigPath, SeenToSUnseen)
	subv.SetDefault(ToSURLConfigPath, DefaultToSURL)
	subv.SetDefault(PrivacyURLConfigPath, DefaultPrivacyURL)
	subv.SetDefault(DoNotDisturbConfigPath, false)
	subv.SetDefault(AccountSignedInConfigPath, false)
	subv.SetDefault(TelemetryEnabledConfigPath, true)
}

func getDefaultConfig(profileName, configFilePath string) map[string]any {
	configDir := filepath.Dir(configFilePath)
	defaultLogPath := filepath.Join(configDir, "logs", meta.CLIName+".log")

	return map[string]any{
		profileName: map[string]any{
			common.OutputConfigPath:   common.DefaultOutputFormat,
			common.LogFileConfigPath:  defaultLogPath,
			common.LogLevelConfigPath: common.DefaultLogLevel,
			common.ColorConfigPath:    common.DefaultColorMode,
			"loop": map[string]any{
				"server-url":     DefaultServerURL,
				"url-expires-in": DefaultURLExpiresIn,
			},
			"prefs": map[string]any{
				"seen-tos":       SeenToSUnseen,
				"do-not-disturb": false,
			},
		},
	}
}

// TelemetryDir is where expiry telemetry events are recorded for cfg.
func TelemetryDir(cfg Hook) string {
	return filepath.Join(filepath.Dir(cfg.GetPath()), "telemetry")
}
