package jq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/itchyny/gojq"
	"github.com/mattn/go-isatty"
	"github.com/segmentio/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cmdpkg "github.com/kong/loopctl/internal/cmd"
	cmdcommon "github.com/kong/loopctl/internal/cmd/common"
	"github.com/kong/loopctl/internal/config"
)

const (
	FlagName               = "jq"
	ColorFlagName          = "jq-color"
	ColorThemeFlagName     = "jq-color-theme"
	RawOutputFlagName      = "jq-raw-output"
	RawOutputFlagShort     = "r"
	ColorEnabledConfigPath = "jq.color.enabled"
	ColorThemeConfigPath   = "jq.color.theme"
	DefaultTheme           = "friendly"
)

var queryCache sync.Map

// Settings controls how a command's record is filtered and printed.
type Settings struct {
	Filter    string
	ColorMode cmdcommon.ColorMode
	Theme     string
	RawOutput bool
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagName, "",
		"Filter the printed record with a jq expression (implies --output json when text is selected).")

	color := cmdpkg.NewEnum(cmdcommon.ColorModes(), cmdcommon.DefaultColorMode)
	flags.Var(color, ColorFlagName,
		fmt.Sprintf(`Controls colorized json and yaml output.
- Config path: [ %s ]
- Allowed    : [ %s ]`, ColorEnabledConfigPath, strings.Join(color.Allowed, "|")))

	flags.String(ColorThemeFlagName, DefaultTheme,
		fmt.Sprintf(`Color theme for json and yaml output.
- Config path: [ %s ]
- Examples   : [ friendly, github-dark, dracula ]`, ColorThemeConfigPath))

	flags.BoolP(RawOutputFlagName, RawOutputFlagShort, false,
		"Print string results of --jq without JSON quotes (like jq -r).")
}

func BindFlags(cfg config.Hook, flags *pflag.FlagSet) error {
	if cfg == nil || flags == nil {
		return nil
	}
	bindings := []struct{ flag, path string }{
		{ColorFlagName, ColorEnabledConfigPath},
		{ColorThemeFlagName, ColorThemeConfigPath},
	}
	for _, b := range bindings {
		if f := flags.Lookup(b.flag); f != nil {
			if err := cfg.BindFlag(b.path, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveSettings reads the jq flags of command. Commands without the flags
// get the defaults.
func ResolveSettings(command *cobra.Command, cfg config.Hook) (Settings, error) {
	settings := Settings{ColorMode: cmdcommon.ColorModeAuto, Theme: DefaultTheme}
	if command == nil || command.Flags().Lookup(FlagName) == nil {
		return settings, nil
	}
	flags := command.Flags()

	filter, err := flags.GetString(FlagName)
	if err != nil {
		return Settings{}, err
	}
	filter = strings.TrimSpace(filter)
	if flags.Changed(FlagName) && filter == "" {
		filter = "."
	}
	settings.Filter = filter

	if settings.RawOutput, err = flags.GetBool(RawOutputFlagName); err != nil {
		return Settings{}, err
	}
	if settings.RawOutput && settings.Filter == "" {
		return Settings{}, &cmdpkg.ConfigurationError{
			Err: fmt.Errorf("--%s requires --%s", RawOutputFlagName, FlagName),
		}
	}

	if cfg != nil {
		mode, err := cmdcommon.ColorModeStringToIota(cfg.GetString(ColorEnabledConfigPath))
		if err != nil {
			return Settings{}, &cmdpkg.ConfigurationError{Err: err}
		}
		settings.ColorMode = mode
		if theme := strings.TrimSpace(cfg.GetString(ColorThemeConfigPath)); theme != "" {
			settings.Theme = theme
		}
	}
	return settings, nil
}

func (s Settings) HasFilter() bool {
	return strings.TrimSpace(s.Filter) != ""
}

// Print writes record to out as json or yaml after applying the filter.
// Output is colorized when the color mode allows it.
func Print(record any, outType cmdcommon.OutputFormat, settings Settings, out io.Writer) error {
	if outType == cmdcommon.TEXT {
		outType = cmdcommon.JSON
	}

	payload := record
	if settings.HasFilter() {
		results, err := Evaluate(record, settings.Filter)
		if err != nil {
			return err
		}
		if settings.RawOutput {
			return writeRaw(results, out)
		}
		switch len(results) {
		case 0:
			payload = nil
		case 1:
			payload = results[0]
		default:
			payload = results
		}
	}

	var buf bytes.Buffer
	p, err := cli.Format(outType.String(), &buf)
	if err != nil {
		return err
	}
	p.Print(payload)
	p.Flush()

	formatted := buf.String()
	if ShouldUseColor(settings.ColorMode, out) {
		formatted = Colorize(formatted, outType.String(), settings.Theme)
	}
	_, err = io.WriteString(out, formatted)
	return err
}

// Evaluate runs filter over the JSON form of record.
func Evaluate(record any, filter string) ([]any, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output before applying jq filter: %w", err)
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w", err)
	}

	query, err := cachedQuery(filter)
	if err != nil {
		return nil, &cmdpkg.ConfigurationError{Err: err}
	}

	var results []any
	iter := query.Run(payload)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func cachedQuery(filter string) (*gojq.Code, error) {
	if code, ok := queryCache.Load(filter); ok {
		return code.(*gojq.Code), nil
	}
	parsed, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	queryCache.Store(filter, code)
	return code, nil
}

func writeRaw(results []any, out io.Writer) error {
	for _, result := range results {
		line, ok := result.(string)
		if !ok {
			encoded, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to encode filtered result: %w", err)
			}
			line = string(encoded)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

var terminalDetector = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func ShouldUseColor(mode cmdcommon.ColorMode, out io.Writer) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	default:
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			return false
		}
		fw, ok := out.(interface{ Fd() uintptr })
		return ok && terminalDetector(fw.Fd())
	}
}

// Colorize highlights formatted with the chroma lexer for lang. The input is
// returned unchanged when highlighting fails.
func Colorize(formatted, lang, theme string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return formatted
	}
	iterator, err := lexer.Tokenise(nil, formatted)
	if err != nil {
		return formatted
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return formatted
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return formatted
	}
	return buf.String()
}
