package logout

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/cmd"
	"github.com/kong/loopctl/internal/cmd/root/verbs"
	"github.com/kong/loopctl/internal/cmd/root/verbs/loopcommon"
	"github.com/kong/loopctl/internal/meta"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

const (
	Verb = verbs.Logout
)

var (
	logoutUse = Verb.String()

	logoutShort = i18n.T("root.verbs.logout.logoutShort", "Sign out of the call URL service")

	logoutLong = normalizers.LongDesc(i18n.T("root.verbs.logout.logoutLong",
		`Sign out of the profile's account. The stored e-mail is kept so a later
login does not need it again.`))

	logoutExamples = normalizers.Examples(i18n.T("root.verbs.logout.logoutExamples",
		fmt.Sprintf(`
	# Sign out of the default profile
	%[1]s logout
	`, meta.CLIName)))
)

func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     logoutUse,
		Short:   logoutShort,
		Long:    logoutLong,
		Example: logoutExamples,
		Args:    cobra.NoArgs,
		PreRun: func(c *cobra.Command, _ []string) {
			c.SetContext(context.WithValue(c.Context(), verbs.Verb, Verb))
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
}

func run(helper cmd.Helper) error {
	mgr, err := loopcommon.AccountManager(helper)
	if err != nil {
		return err
	}
	if err := mgr.SignOut(); err != nil {
		return cmd.PrepareExecutionErrorWithHelper(helper, "unable to sign out", err)
	}
	return loopcommon.PrintAccount(helper, mgr)
}
