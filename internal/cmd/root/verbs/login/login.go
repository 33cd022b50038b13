package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/cmd"
	"github.com/kong/loopctl/internal/cmd/root/verbs"
	"github.com/kong/loopctl/internal/cmd/root/verbs/loopcommon"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

const (
	Verb = verbs.Login

	emailFlagName       = "email"
	displayNameFlagName = "display-name"
)

var (
	loginUse = Verb.String()

	loginShort = i18n.T("root.verbs.login.loginShort", "Sign in to the call URL service")

	loginLong = normalizers.LongDesc(i18n.T("root.verbs.login.loginLong",
		`Use login to mark the profile's account as signed in.

The account e-mail is read from the profile unless --email is given, in which
case it is stored first. The panel shows the signed-in identity in its footer.`))

	loginExamples = normalizers.Examples(i18n.T("root.verbs.login.loginExamples",
		fmt.Sprintf(`
		# Sign in with the account stored in the profile
		%[1]s login
		# Store a new account and sign in
		%[1]s login --email alice@example.com --display-name Alice
		`, meta.CLIName)))
)

func NewLoginCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     loginUse,
		Short:   loginShort,
		Long:    loginLong,
		Example: loginExamples,
		Args:    cobra.NoArgs,
		PreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			email, err := c.Flags().GetString(emailFlagName)
			if err != nil {
				return err
			}
			displayName, err := c.Flags().GetString(displayNameFlagName)
			if err != nil {
				return err
			}
			return run(cmd.BuildHelper(c, args), email, displayName)
		},
	}

	c.Flags().String(emailFlagName, "", "Account e-mail to store before signing in.")
	c.Flags().String(displayNameFlagName, "", "Display name stored with --email.")
	return c
}

func run(helper cmd.Helper, email, displayName string) error {
	mgr, err := loopcommon.AccountManager(helper)
	if err != nil {
		return err
	}

	if strings.TrimSpace(email) != "" {
		if err := mgr.Configure(email, displayName); err != nil {
			return &cmd.ConfigurationError{Err: err}
		}
	}

	if _, err := mgr.SignIn(); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "unable to sign in", err)
	}
	return loopcommon.PrintAccount(helper, mgr)
}
