package jq

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdpkg "github.com/kong/loopctl/internal/cmd"
	cmdcommon "github.com/kong/loopctl/internal/cmd/common"
	testConfig "github.com/kong/loopctl/test/config"
)

type record struct {
	URL    string `json:"url"`
	Copied bool   `json:"copied"`
}

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	AddFlags(c.Flags())
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestResolveSettingsWithoutFlags(t *testing.T) {
	settings, err := ResolveSettings(&cobra.Command{}, nil)
	require.NoError(t, err)
	assert.False(t, settings.HasFilter())
	assert.Equal(t, DefaultTheme, settings.Theme)
}

func TestResolveSettingsEmptyFilterMeansIdentity(t *testing.T) {
	settings, err := ResolveSettings(newCommand(t, "--jq="), nil)
	require.NoError(t, err)
	assert.Equal(t, ".", settings.Filter)
}

func TestResolveSettingsRawRequiresFilter(t *testing.T) {
	_, err := ResolveSettings(newCommand(t, "-r"), nil)
	var cfgErr *cmdpkg.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolveSettingsReadsColorConfig(t *testing.T) {
	cfg := &testConfig.MockConfigHook{Values: map[string]any{
		ColorEnabledConfigPath: "never",
		ColorThemeConfigPath:   "dracula",
	}}
	settings, err := ResolveSettings(newCommand(t, "--jq", ".url"), cfg)
	require.NoError(t, err)
	assert.Equal(t, cmdcommon.ColorModeNever, settings.ColorMode)
	assert.Equal(t, "dracula", settings.Theme)
}

func TestPrintAppliesFilter(t *testing.T) {
	var out bytes.Buffer
	err := Print(record{URL: "http://loop.test/call/xyz"}, cmdcommon.JSON,
		Settings{Filter: "{u: .url}", ColorMode: cmdcommon.ColorModeNever}, &out)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	if diff := cmp.Diff(map[string]any{"u": "http://loop.test/call/xyz"}, got); diff != "" {
		t.Errorf("filtered record mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintRawOutput(t *testing.T) {
	var out bytes.Buffer
	err := Print(record{URL: "http://loop.test/call/xyz"}, cmdcommon.TEXT,
		Settings{Filter: ".url, .copied", RawOutput: true}, &out)
	require.NoError(t, err)
	assert.Equal(t, "http://loop.test/call/xyz\nfalse\n", out.String())
}

func TestPrintInvalidFilter(t *testing.T) {
	err := Print(record{}, cmdcommon.JSON, Settings{Filter: ".url |"}, &bytes.Buffer{})
	var cfgErr *cmdpkg.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPrintColorizesWhenForced(t *testing.T) {
	var out bytes.Buffer
	err := Print(record{URL: "x"}, cmdcommon.YAML,
		Settings{ColorMode: cmdcommon.ColorModeAlways, Theme: DefaultTheme}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\x1b[")
}

func TestShouldUseColorHonoursNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	prev := terminalDetector
	terminalDetector = func(uintptr) bool { return true }
	t.Cleanup(func() { terminalDetector = prev })

	assert.False(t, ShouldUseColor(cmdcommon.ColorModeAuto, &fdWriter{}))
	assert.True(t, ShouldUseColor(cmdcommon.ColorModeAlways, &fdWriter{}))
}

func TestColorizeUnknownLexer(t *testing.T) {
	assert.Equal(t, "plain", Colorize("plain", "no-such-language", DefaultTheme))
	assert.Contains(t, Colorize(`{"a": 1}`, "json", DefaultTheme), "\x1b[")
}

type fdWriter struct{ bytes.Buffer }

func (*fdWriter) Fd() uintptr { return 1 }
