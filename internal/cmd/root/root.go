package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/cli"
	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/build"
	"github.com/kong/loopctl/internal/cmd"
	"github.com/kong/loopctl/internal/cmd/common"
	rootprofile "github.com/kong/loopctl/internal/cmd/root/profile"
	"github.com/kong/loopctl/internal/cmd/root/verbs/login"
	"github.com/kong/loopctl/internal/cmd/root/verbs/logout"
	"github.com/kong/loopctl/internal/cmd/root/verbs/panel"
	"github.com/kong/loopctl/internal/cmd/root/verbs/url"
	"github.com/kong/loopctl/internal/cmd/root/version"
	"github.com/kong/loopctl/internal/config"
	"github.com/kong/loopctl/internal/iostreams"
	"github.com/kong/loopctl/internal/log"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/profile"
	"github.com/kong/loopctl/internal/util"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

var (
	rootLong = normalizers.LongDesc(i18n.T("root.rootLong", `
  loopctl requests shareable call URLs from a Loop server and manages them
  from an interactive terminal panel.`))

	rootShort = i18n.T("root/rootShort", fmt.Sprintf("%s shares call URLs", meta.CLIName))

	rootCmd *cobra.Command

	// Stores the global runtime value for the Configuration file path,
	configFilePath string
	currProfile    = profile.DefaultProfile

	currConfig   config.Hook
	streams      *iostreams.IOStreams
	pMgr         profile.Manager
	logger       *slog.Logger
	logFile      io.Closer
	outputFormat = cmd.NewEnum(common.OutputFormats(), common.DefaultOutputFormat)
	logLevel     = cmd.NewEnum(common.LogLevels(), common.DefaultLogLevel)

	buildInfo *build.Info
)

func newRootCmd() *cobra.Command {
	defaultConfigFilePath, err := config.GetDefaultConfigFilePath()
	util.CheckError(err)

	rootCmd := &cobra.Command{
		Use:   meta.CLIName,
		Short: rootShort,
		Long:  rootLong,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx := context.WithValue(cmd.Context(), config.ConfigKey, currConfig)
			ctx = context.WithValue(ctx, iostreams.StreamsKey, streams)
			ctx = context.WithValue(ctx, profile.ProfileManagerKey, pMgr)
			ctx = context.WithValue(ctx, build.InfoKey, buildInfo)
			ctx = log.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
		},
	}

	// parses all flags not just the target command
	rootCmd.TraverseChildren = true

	rootCmd.PersistentFlags().StringVar(&configFilePath, common.ConfigFilePathFlagName,
		defaultConfigFilePath,
		i18n.T("root."+common.ConfigFilePathFlagName, "Path to the configuration file to load."))

	rootCmd.PersistentFlags().StringVarP(&currProfile, common.ProfileFlagName, common.ProfileFlagShort,
		profile.DefaultProfile,
		"Specify the profile to use for this command.")

	rootCmd.PersistentFlags().VarP(outputFormat, common.OutputFlagName, common.OutputFlagShort,
		fmt.Sprintf(`Configures the output format.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.OutputConfigPath, strings.Join(outputFormat.Allowed, "|")))

	rootCmd.PersistentFlags().Var(logLevel, common.LogLevelFlagName,
		fmt.Sprintf(`Configures the logging level.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			common.LogLevelConfigPath, strings.Join(logLevel.Allowed, "|")))

	rootCmd.PersistentFlags().String(common.LogFileFlagName, "",
		fmt.Sprintf(`Write logs to this file instead of discarding them.
- Config path: [ %s ]`,
			common.LogFileConfigPath))

	return rootCmd
}

// addCommands adds the root subcommands to the command.
func addCommands() {
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(panel.NewPanelCmd())
	rootCmd.AddCommand(url.NewURLCmd())
	rootCmd.AddCommand(login.NewLoginCmd())
	rootCmd.AddCommand(logout.NewLogoutCmd())
	rootCmd.AddCommand(rootprofile.NewProfileCmd())
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()
	addCommands()

	// Because the profile is not part of the configuration, we can't use viper
	// to read it following it's built in priorities.  So here we look for a well known
	// profile variable and set our package level variable if it's set before
	// continuing to process the command run.  This creates a ENV_VAR < CLI_FLAG priority
	profileEnvVar, found := os.LookupEnv(fmt.Sprintf("%s_PROFILE", meta.EnvPrefix))
	if found {
		currProfile = profileEnvVar
	}
}

func initConfig() {
	defaultConfigFilePath, err := config.GetDefaultConfigFilePath()
	util.CheckError(err)

	cfg, err := config.GetConfig(configFilePath, currProfile, defaultConfigFilePath)
	util.CheckError(err)
	currConfig = cfg

	pMgr = profile.NewManager(cfg)

	bindings := map[string]string{
		common.OutputFlagName:   common.OutputConfigPath,
		common.LogLevelFlagName: common.LogLevelConfigPath,
		common.LogFileFlagName:  common.LogFileConfigPath,
	}
	for flagName, path := range bindings {
		f := rootCmd.PersistentFlags().Lookup(flagName)
		util.CheckError(cfg.BindFlag(path, f))
	}

	logger, logFile, err = buildLogger(cfg, streams.ErrOut)
	util.CheckError(err)
}

// buildLogger writes records at the configured level to the log file, if
// any, and mirrors errors to errOut in a friendly format.
func buildLogger(cfg config.Hook, errOut io.Writer) (*slog.Logger, io.Closer, error) {
	level := log.ConfigLevelStringToSlogLevel(cfg.GetString(common.LogLevelConfigPath))

	var primary slog.Handler
	var closer io.Closer
	if path := strings.TrimSpace(cfg.GetString(common.LogFileConfigPath)); path != "" {
		path = os.ExpandEnv(path)
		if err := util.InitDir(path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		primary = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
		closer = f
	}

	handler := log.NewDualHandler(primary, log.NewFriendlyErrorHandler(errOut))
	return slog.New(handler).With(
		slog.String("profile", cfg.GetProfile()),
		slog.String("cli_version", buildInfo.Version),
	), closer, nil
}

func Execute(ctx context.Context, s *iostreams.IOStreams, bi *build.Info) {
	buildInfo = bi
	cobra.EnableTraverseRunHooks = true
	streams = s
	err := rootCmd.ExecuteContext(ctx)
	if logFile != nil {
		_ = logFile.Close()
	}
	if err == nil {
		return
	}

	var executionError *cmd.ExecutionError
	if errors.As(err, &executionError) {
		if logger != nil {
			attrs := append([]any{"error", executionError.Err}, executionError.Attrs...)
			attrs = append(attrs, cmd.TryConvertErrorToAttrs(executionError.Err)...)
			logger.Debug(executionError.Msg, attrs...)
		}
		printer, perr := cli.Format(outputFormat.String(), s.ErrOut)
		if perr == nil {
			printer.Print(executionError)
			printer.Flush()
		}
		os.Exit(1)
	}

	var configurationError *cmd.ConfigurationError
	if errors.As(err, &configurationError) {
		os.Exit(2)
	}
	os.Exit(1)
}
