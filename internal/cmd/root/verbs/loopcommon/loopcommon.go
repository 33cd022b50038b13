package loopcommon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/build"
	"github.com/kong/loopctl/internal/cmd"
	cmdcommon "github.com/kong/loopctl/internal/cmd/common"
	"github.com/kong/loopctl/internal/cmd/output/jq"
	"github.com/kong/loopctl/internal/config"
	"github.com/kong/loopctl/internal/httpclient"
	"github.com/kong/loopctl/internal/iostreams"
	"github.com/kong/loopctl/internal/loop"
	"github.com/kong/loopctl/internal/loop/storage"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/profile"
	"github.com/kong/loopctl/internal/util"
	"github.com/kong/loopctl/internal/util/i18n"
)

const (
	ServerURLFlagName    = "server-url"
	SessionTokenFlagName = "session-token" // #nosec G101

	// LocaleOverridesConfigPath points at a YAML file of message overrides.
	LocaleOverridesConfigPath = "locale-overrides"
)

// AddFlags registers the flags shared by the commands that talk to the call
// URL service.
func AddFlags(command *cobra.Command) {
	command.Flags().String(ServerURLFlagName, config.DefaultServerURL,
		fmt.Sprintf(`Base URL of the call URL service.
- Config path: [ %s ]`,
			config.ServerURLConfigPath))

	command.Flags().String(SessionTokenFlagName, "",
		fmt.Sprintf(`Session token sent as a bearer credential.
- Config path: [ %s ]`,
			config.SessionTokenConfigPath))

	command.Flags().String(cmdcommon.LocaleFlagName, cmdcommon.DefaultLocale,
		fmt.Sprintf(`Locale used for panel and e-mail text.
- Config path: [ %s ]`,
			cmdcommon.LocaleConfigPath))
}

// BindFlags binds the shared flags into the profile configuration.
func BindFlags(c *cobra.Command, args []string) error {
	helper := cmd.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}

	bindings := map[string]string{
		ServerURLFlagName:        config.ServerURLConfigPath,
		SessionTokenFlagName:     config.SessionTokenConfigPath,
		cmdcommon.LocaleFlagName: cmdcommon.LocaleConfigPath,
	}
	for flagName, path := range bindings {
		f := c.Flags().Lookup(flagName)
		if f == nil {
			continue
		}
		if err := cfg.BindFlag(path, f); err != nil {
			return err
		}
	}
	return nil
}

// Version returns the running CLI version, "dev" when unknown.
func Version(ctx context.Context) string {
	if info, ok := ctx.Value(build.InfoKey).(*build.Info); ok && info != nil {
		return util.FirstNonEmpty(info.Version, "dev")
	}
	return "dev"
}

// NewClient builds the call URL client from the profile configuration.
func NewClient(cfg config.Hook, logger *slog.Logger, version string) (*loop.Client, error) {
	timeout := cfg.GetDuration(config.RequestTimeoutConfigPath)
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	client, err := loop.NewClient(loop.ClientOptions{
		BaseURL:      cfg.GetString(config.ServerURLConfigPath),
		SessionToken: cfg.GetString(config.SessionTokenConfigPath),
		ExpiresIn:    cfg.GetIntOrElse(config.URLExpiresInConfigPath, config.DefaultURLExpiresIn),
		HTTPClient:   httpclient.NewLoggingHTTPClient(logger, timeout),
		UserAgent:    fmt.Sprintf("%s/%s", meta.CLIName, version),
	})
	if err != nil {
		return nil, &cmd.ConfigurationError{Err: err}
	}
	return client, nil
}

// NewTranslator resolves the configured locale and optional overrides file.
func NewTranslator(cfg config.Hook) (*i18n.Translator, error) {
	var overrides map[string]string
	if path := strings.TrimSpace(cfg.GetString(LocaleOverridesConfigPath)); path != "" {
		loaded, err := i18n.LoadOverrides(os.ExpandEnv(path))
		if err != nil {
			return nil, &cmd.ConfigurationError{Err: err}
		}
		overrides = loaded
	}
	t, err := i18n.New(cfg.GetString(cmdcommon.LocaleConfigPath), overrides)
	if err != nil {
		return nil, &cmd.ConfigurationError{Err: err}
	}
	return t, nil
}

// NewTelemetry returns the on-disk expiry recorder, or a no-op sink when
// telemetry is disabled or the directory cannot be used.
func NewTelemetry(ctx context.Context, cfg config.Hook, logger *slog.Logger, version string) loop.Telemetry {
	if !cfg.GetBool(config.TelemetryEnabledConfigPath) {
		return loop.NopTelemetry
	}
	rec, err := storage.NewRecorder(config.TelemetryDir(cfg), version)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "telemetry disabled",
			slog.String("error", err.Error()))
		return loop.NopTelemetry
	}
	return rec
}

// ShouldUseColor resolves the --color mode against the output stream.
func ShouldUseColor(mode cmdcommon.ColorMode, streams *iostreams.IOStreams) bool {
	switch mode {
	case cmdcommon.ColorModeAlways:
		return true
	case cmdcommon.ColorModeNever:
		return false
	default:
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			return false
		}
		return streams.IsOutputTerminal()
	}
}

// AccountRecord is the printed form of the profile's account.
type AccountRecord struct {
	Profile     string `json:"profile"                yaml:"profile"`
	SignedIn    bool   `json:"signed_in"              yaml:"signed_in"`
	Email       string `json:"email,omitempty"        yaml:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// AccountManager returns the manager stored in the command context, or one
// built over the profile configuration.
func AccountManager(helper cmd.Helper) (profile.Manager, error) {
	if m, ok := helper.GetContext().Value(profile.ProfileManagerKey).(profile.Manager); ok && m != nil {
		return m, nil
	}
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	return profile.NewManager(cfg), nil
}

// PrintAccount writes the account state in the configured output format.
func PrintAccount(helper cmd.Helper, mgr profile.Manager) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}

	record := AccountRecord{Profile: cfg.GetProfile(), SignedIn: mgr.SignedIn()}
	if acct := mgr.Current(); acct != nil {
		record.Email = acct.Email
		record.DisplayName = acct.DisplayName
	}

	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg)
	if err != nil {
		return err
	}

	out := helper.GetStreams().Out
	if outType == cmdcommon.TEXT && !settings.HasFilter() {
		identity := "signed out"
		if record.SignedIn {
			identity = record.Email
			if record.DisplayName != "" {
				identity = fmt.Sprintf("%s <%s>", record.DisplayName, record.Email)
			}
		}
		_, err := fmt.Fprintf(out, "%s: %s\n", record.Profile, identity)
		return err
	}

	return jq.Print(record, outType, settings, out)
}
