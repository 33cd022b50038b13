package common

import (
	"fmt"
	"slices"
)

// Represents an enum of valid values for the format of the output for this CLI execution
type OutputFormat int

type LogLevel int

type ColorMode int

const (
	JSON OutputFormat = iota
	YAML
	TEXT
)

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

const (
	ColorModeAuto ColorMode = iota
	ColorModeAlways
	ColorModeNever
)

var (
	outputFormats = []string{"json", "yaml", "text"}
	logLevels     = []string{"trace", "debug", "info", "warn", "error"}
	colorModes    = []string{"auto", "always", "never"}
)

const (
	// related to the --output flag
	DefaultOutputFormat = "text"
	OutputFlagName      = "output"
	OutputFlagShort     = "o"
	OutputConfigPath    = OutputFlagName

	// related to the --color flag
	ColorFlagName    = "color"
	ColorConfigPath  = ColorFlagName
	DefaultColorMode = "auto"

	// related to the --profile flag
	ProfileFlagName  = "profile"
	ProfileFlagShort = "p"

	// related to the --config-file flag
	ConfigFilePathFlagName = "config-file"

	// related to the --log-level flag
	LogLevelFlagName   = "log-level"
	DefaultLogLevel    = "error"
	LogLevelConfigPath = LogLevelFlagName

	// related to the --log-file flag
	LogFileFlagName   = "log-file"
	LogFileConfigPath = LogFileFlagName

	// related to the --locale flag
	LocaleFlagName   = "locale"
	LocaleConfigPath = LocaleFlagName
	DefaultLocale    = "en"
)

func OutputFormats() []string { return slices.Clone(outputFormats) }

func LogLevels() []string { return slices.Clone(logLevels) }

func ColorModes() []string { return slices.Clone(colorModes) }

func (of OutputFormat) String() string {
	return outputFormats[of]
}

func OutputFormatStringToIota(format string) (OutputFormat, error) {
	idx := slices.Index(outputFormats, format)
	if idx < 0 {
		return TEXT, fmt.Errorf("invalid output format %q, must be one of %v", format, outputFormats)
	}
	return OutputFormat(idx), nil
}

func (ll LogLevel) String() string {
	return logLevels[ll]
}

func LogLevelStringToIota(level string) (LogLevel, error) {
	idx := slices.Index(logLevels, level)
	if idx < 0 {
		return ERROR, fmt.Errorf("invalid log level %q, must be one of %v", level, logLevels)
	}
	return LogLevel(idx), nil
}

func (cm ColorMode) String() string {
	if cm < ColorModeAuto || cm > ColorModeNever {
		return "auto"
	}
	return colorModes[cm]
}

func ColorModeStringToIota(mode string) (ColorMode, error) {
	if mode == "" {
		return ColorModeAuto, nil
	}
	idx := slices.Index(colorModes, mode)
	if idx < 0 {
		return ColorModeAuto, fmt.Errorf("invalid color mode %q, must be one of %v", mode, colorModes)
	}
	return ColorMode(idx), nil
}
