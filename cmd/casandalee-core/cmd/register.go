package cmd

import (
	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
)

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <canonical> [alias...]",
		Short: "Register a character name and optional aliases",
		Long: `Register a canonical character name with any known aliases.

Registrations are idempotent: repeating a name refreshes its aliases,
and an alias moved to a different canonical follows the latest call.

Examples:
  casandalee-core register "Ameiko Kaijitsu" ameiko amei
  casandalee-core register "Shalelu Andosana"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCore(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()

			canonical, aliases := args[0], args[1:]
			c.reg.Register(canonical, aliases)

			out := output.New(cmd.OutOrStdout())
			out.Successf("registered %q with %d alias(es)", canonical, len(aliases))
			return nil
		},
	}

	return cmd
}
