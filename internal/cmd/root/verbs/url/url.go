package url

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/cmd"
	cmdcommon "github.com/kong/loopctl/internal/cmd/common"
	"github.com/kong/loopctl/internal/cmd/output/jq"
	"github.com/kong/loopctl/internal/cmd/root/verbs"
	"github.com/kong/loopctl/internal/cmd/root/verbs/loopcommon"
	"github.com/kong/loopctl/internal/config"
	"github.com/kong/loopctl/internal/loop"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

const (
	Verb = verbs.URL

	copyFlagName  = "copy"
	emailFlagName = "email"
)

var (
	urlShort = i18n.T("root.verbs.url.short", "Request a call URL and print it")
	urlLong  = normalizers.LongDesc(i18n.T("root.verbs.url.long", `
		Request a single call URL from the service and print it. The link can
		also be copied to the clipboard or handed to the default mail client.`))
	urlExample = normalizers.Examples(i18n.T("root.verbs.url.examples",
		fmt.Sprintf(`
		# Print a new call URL
		%[1]s url
		# Copy the link and print the full record as JSON
		%[1]s url --copy -o json
		# Compose an invitation e-mail
		%[1]s url --email
		# Print only the expiry
		%[1]s url --jq .expires -r
		`, meta.CLIName)))
)

// Replaced in tests.
var (
	newRequester = func(cfg config.Hook, logger *slog.Logger, version string) (loop.URLRequester, error) {
		client, err := loopcommon.NewClient(cfg, logger, version)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	newClipboard = func() loop.Clipboard { return loop.SystemClipboard{} }
	newMailer    = func() loop.Mailer { return loop.SystemMailer{} }
	newTelemetry = loopcommon.NewTelemetry
)

type urlRecord struct {
	URL            string `json:"url"                  yaml:"url"`
	Token          string `json:"token,omitempty"      yaml:"token,omitempty"`
	ExpiresAt      int64  `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expires        string `json:"expires,omitempty"    yaml:"expires,omitempty"`
	ConversationID string `json:"conversation_id"      yaml:"conversation_id"`
	Copied         bool   `json:"copied"               yaml:"copied"`
	Emailed        bool   `json:"emailed"              yaml:"emailed"`
}

func NewURLCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     Verb.String(),
		Short:   urlShort,
		Long:    urlLong,
		Example: urlExample,
		Args:    cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			ctx := context.WithValue(c.Context(), verbs.Verb, Verb)
			c.SetContext(ctx)
			if err := loopcommon.BindFlags(c, args); err != nil {
				return err
			}
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jq.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			copyLink, err := c.Flags().GetBool(copyFlagName)
			if err != nil {
				return err
			}
			email, err := c.Flags().GetBool(emailFlagName)
			if err != nil {
				return err
			}
			return run(cmd.BuildHelper(c, args), copyLink, email)
		},
	}

	loopcommon.AddFlags(command)
	command.Flags().Bool(copyFlagName, false, "Copy the call URL to the clipboard.")
	command.Flags().Bool(emailFlagName, false, "Compose an invitation e-mail containing the call URL.")
	jq.AddFlags(command.Flags())
	return command
}

func run(helper cmd.Helper, copyLink, email bool) error {
	cfg, err := helper.GetConfig()
	if err != nil {
		return err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return err
	}
	outType, err := helper.GetOutputFormat()
	if err != nil {
		return &cmd.ConfigurationError{Err: err}
	}
	settings, err := jq.ResolveSettings(helper.GetCmd(), cfg)
	if err != nil {
		return err
	}
	translator, err := loopcommon.NewTranslator(cfg)
	if err != nil {
		return err
	}

	ctx := helper.GetContext()
	version := loopcommon.Version(ctx)
	requester, err := newRequester(cfg, logger, version)
	if err != nil {
		return err
	}

	session := loop.NewSession(loop.SessionOptions{
		Client:        requester,
		Notifications: loop.NewNotificationCenter(translator),
		Telemetry:     newTelemetry(ctx, cfg, logger, version),
	})
	defer session.Close()

	state, err := session.Fetch(ctx)
	if err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper,
			translator.T(i18n.UnableRetrieveURL), err, serviceErrorAttrs(err)...)
	}

	record := urlRecord{
		URL:            state.URL,
		Token:          state.Token,
		ExpiresAt:      state.ExpiresAt,
		ConversationID: state.ConversationID,
	}
	if state.ExpiresAt > 0 {
		record.Expires = time.Unix(state.ExpiresAt, 0).UTC().Format(time.RFC3339)
	}

	if copyLink {
		session.RecordExpiryTelemetry(ctx)
		if err := newClipboard().CopyString(state.URL); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, translator.T(i18n.ClipboardFailed), err)
		}
		session.MarkCopied()
		record.Copied = true
	}

	if email {
		subject := translator.T(i18n.ShareEmailSubject)
		body := translator.T(i18n.ShareEmailBody, state.URL)
		session.RecordExpiryTelemetry(ctx)
		if err := newMailer().ComposeEmail(subject, body); err != nil {
			return cmd.PrepareExecutionErrorWithHelper(helper, translator.T(i18n.EmailFailed), err)
		}
		record.Emailed = true
	}

	out := helper.GetStreams().Out
	if outType == cmdcommon.TEXT && !settings.HasFilter() {
		return printText(record, out)
	}
	return jq.Print(record, outType, settings, out)
}

func printText(record urlRecord, out io.Writer) error {
	_, err := fmt.Fprintln(out, record.URL)
	return err
}

func serviceErrorAttrs(err error) []any {
	var svcErr *loop.ServiceError
	if errors.As(err, &svcErr) {
		return []any{"status", svcErr.Status, "code", svcErr.Code, "errno", svcErr.Errno}
	}
	if loop.IsTransientError(err) {
		return []any{"transient", true}
	}
	return nil
}
