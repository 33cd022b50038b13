package panel

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/cmd"
	cmdcommon "github.com/kong/loopctl/internal/cmd/common"
	"github.com/kong/loopctl/internal/cmd/root/verbs"
	"github.com/kong/loopctl/internal/cmd/root/verbs/loopcommon"
	"github.com/kong/loopctl/internal/log"
	"github.com/kong/loopctl/internal/loop"
	looppanel "github.com/kong/loopctl/internal/loop/panel"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/theme"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

const (
	Verb = verbs.Panel

	callURLFlagName = "call-url"
	themeFlagName   = "theme"
	themeConfigPath = "panel." + themeFlagName
)

var (
	panelShort = i18n.T("root.verbs.panel.short", "Open the interactive call URL panel")
	panelLong  = normalizers.LongDesc(i18n.T("root.verbs.panel.long", `
		Open the interactive panel. A call URL is requested when the panel
		opens and again whenever the terminal regains focus. The link can be
		copied or shared by e-mail from the panel.`))
	panelExample = normalizers.Examples(i18n.T("root.verbs.panel.examples",
		fmt.Sprintf(`
		# Open the panel against the default service
		%[1]s panel
		# Show an existing link without requesting a new one
		%[1]s panel --call-url https://hello.example.com/call/abc123
		`, meta.CLIName)))
)

func addFlags(command *cobra.Command) {
	loopcommon.AddFlags(command)

	colorMode := cmd.NewEnum(cmdcommon.ColorModes(), cmdcommon.DefaultColorMode)
	command.Flags().Var(colorMode, cmdcommon.ColorFlagName,
		fmt.Sprintf(`Controls colorized terminal output.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			cmdcommon.ColorConfigPath, strings.Join(colorMode.Allowed, "|")))

	command.Flags().String(themeFlagName, theme.DefaultName,
		fmt.Sprintf(`Color theme for the panel.
- Config path: [ %s ]
- Allowed    : [ %s ]`,
			themeConfigPath, strings.Join(theme.Available(), "|")))

	command.Flags().String(callURLFlagName, "",
		"Show this call URL instead of requesting one when the panel opens.")
}

func bindFlags(c *cobra.Command, args []string) error {
	if err := loopcommon.BindFlags(c, args); err != nil {
		return err
	}
	helper := cmd.BuildHelper(c, args)
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	if f := c.Flags().Lookup(cmdcommon.ColorFlagName); f != nil {
		if err := cfg.BindFlag(cmdcommon.ColorConfigPath, f); err != nil {
			return err
		}
	}
	if f := c.Flags().Lookup(themeFlagName); f != nil {
		if err := cfg.BindFlag(themeConfigPath, f); err != nil {
			return err
		}
	}
	return nil
}

func NewPanelCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     Verb.String(),
		Short:   panelShort,
		Long:    panelLong,
		Example: panelExample,
		Args:    cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			ctx := context.WithValue(c.Context(), verbs.Verb, Verb)
			c.SetContext(ctx)
			return bindFlags(c, args)
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
	addFlags(command)
	return command
}

func run(helper cmd.Helper) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}

	streams := helper.GetStreams()
	if !streams.IsTerminal() {
		return cmd.PrepareExecutionError(
			"the panel requires an interactive terminal",
			fmt.Errorf("input or output stream is not a terminal"),
			helper.GetCmd(),
		)
	}

	colorMode, err := cmdcommon.ColorModeStringToIota(cfg.GetString(cmdcommon.ColorConfigPath))
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	palette, err := theme.Get(cfg.GetString(themeConfigPath))
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	translator, err := loopcommon.NewTranslator(cfg)
	if err != nil {
		return err
	}

	ctx := helper.GetContext()
	version := loopcommon.Version(ctx)
	client, err := loopcommon.NewClient(cfg, logger, version)
	if err != nil {
		return err
	}

	callURL, err := helper.GetCmd().Flags().GetString(callURLFlagName)
	if err != nil {
		return err
	}
	if callURL != "" {
		if _, err := loop.ParseCallURL(callURL, ""); err != nil {
			return &cmd.ConfigurationError{Err: fmt.Errorf("invalid --%s: %w", callURLFlagName, err)}
		}
	}

	signals := loop.NewSignals(true)
	env := loop.NewConfigEnvironment(cfg, signals)

	// error records would corrupt the alternate screen
	log.DisableErrorMirroring()
	defer log.EnableErrorMirroring()

	err = looppanel.Run(ctx, streams, looppanel.Options{
		Client:     client,
		Telemetry:  loopcommon.NewTelemetry(ctx, cfg, logger, version),
		InitialURL: callURL,
		Env:        env,
		Signals:    signals,
		Translator: translator,
		Theme:      palette,
		UseColor:   loopcommon.ShouldUseColor(colorMode, streams),
		Width:      streams.TerminalWidth(0),
		ConfigPath: cfg.GetPath(),
	})
	if err != nil {
		return cmd.PrepareExecutionError("panel exited with an error", err, helper.GetCmd())
	}
	return nil
}
