package profile

import (
	"github.com/spf13/cobra"

	"github.com/kong/loopctl/internal/cmd"
	"github.com/kong/loopctl/internal/cmd/output/jq"
	"github.com/kong/loopctl/internal/cmd/root/verbs/loopcommon"
	"github.com/kong/loopctl/internal/util/i18n"
	"github.com/kong/loopctl/internal/util/normalizers"
)

var (
	profileUse   = "profile"
	profileShort = i18n.T("root.profile.profileShort", "Show the active profile and account")
	profileLong  = normalizers.LongDesc(i18n.T("root.profile.profileLong",
		`The profile command prints the active profile together with the account
it is signed in as.`))
)

func NewProfileCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     profileUse,
		Short:   profileShort,
		Long:    profileLong,
		Aliases: []string{"profiles", "whoami"},
		Args:    cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			cfg, err := cmd.BuildHelper(c, args).GetConfig()
			if err != nil {
				return err
			}
			return jq.BindFlags(cfg, c.Flags())
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(cmd.BuildHelper(c, args))
		},
	}
	jq.AddFlags(c.Flags())
	return c
}

func run(helper cmd.Helper) error {
	mgr, err := loopcommon.AccountManager(helper)
	if err != nil {
		return err
	}
	return loopcommon.PrintAccount(helper, mgr)
}
