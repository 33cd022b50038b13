package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kong/loopctl/internal/cmd/common"
	utilviper "github.com/kong/loopctl/internal/util/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfiledConfig_ProfileEnvWithDashes(t *testing.T) {
	t.Setenv("LOOPCTL_TEAM_A_B_C_LOOP_SESSION_TOKEN", "token-123")

	profile := "team-a-b-c"
	mainv := utilviper.NewViper("nonexistent.yaml")
	mainv.Set(profile, map[string]any{})

	cfg := BuildProfiledConfig(profile, "nonexistent.yaml", mainv)

	assert.Equal(t, "token-123", cfg.GetString(SessionTokenConfigPath))
}

func TestBuildProfiledConfigDefaults(t *testing.T) {
	mainv := utilviper.NewViper("nonexistent.yaml")
	cfg := BuildProfiledConfig("default", "nonexistent.yaml", mainv)

	assert.Equal(t, SeenToSUnseen, cfg.GetString(SeenToSConfigPath))
	assert.Equal(t, DefaultServerURL, cfg.GetString(ServerURLConfigPath))
	assert.Equal(t, DefaultRequestTimeout, cfg.GetDuration(RequestTimeoutConfigPath))
	assert.Equal(t, DefaultURLExpiresIn, cfg.GetInt(URLExpiresInConfigPath))
	assert.False(t, cfg.GetBool(DoNotDisturbConfigPath))
	assert.True(t, cfg.GetBool(TelemetryEnabledConfigPath))
	assert.Equal(t, common.DefaultOutputFormat, cfg.GetString(common.OutputConfigPath))
}

func TestGetConfigCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loopctl", "config.yaml")

	cfg, err := GetConfig(path, "default", path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.GetProfile())
	assert.Equal(t, path, cfg.GetPath())
	assert.Equal(t, filepath.Join(filepath.Dir(path), "logs", "loopctl.log"), cfg.GetString(common.LogFileConfigPath))
	assert.Equal(t, filepath.Join(filepath.Dir(path), "telemetry"), TelemetryDir(cfg))
}

func TestGetConfigMissingExplicitPath(t *testing.T) {
	dir := t.TempDir()
	_, err := GetConfig(filepath.Join(dir, "missing.yaml"), "default", filepath.Join(dir, "config.yaml"))
	require.Error(t, err)
}

func TestSavePersistsProfileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := GetConfig(path, "default", path)
	require.NoError(t, err)

	cfg.Set(DoNotDisturbConfigPath, true)
	cfg.SetString(SeenToSConfigPath, SeenToSSeen)
	require.NoError(t, cfg.Save())

	reloaded, err := GetConfig(path, "default", path)
	require.NoError(t, err)
	assert.True(t, reloaded.GetBool(DoNotDisturbConfigPath))
	assert.Equal(t, SeenToSSeen, reloaded.GetString(SeenToSConfigPath))
}

func TestGetIntOrElse(t *testing.T) {
	mainv := utilviper.NewViper("nonexistent.yaml")
	cfg := BuildProfiledConfig("default", "nonexistent.yaml", mainv)

	assert.Equal(t, 7, cfg.GetIntOrElse("loop.unknown", 7))
	cfg.Set("loop.unknown", 3)
	assert.Equal(t, 3, cfg.GetIntOrElse("loop.unknown", 7))
	assert.Equal(t, 5*time.Second, func() time.Duration {
		cfg.Set(RequestTimeoutConfigPath, "5s")
		return cfg.GetDuration(RequestTimeoutConfigPath)
	}())
}
