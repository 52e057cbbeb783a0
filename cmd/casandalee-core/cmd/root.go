// Package cmd provides the CLI commands for casandalee-core.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
	"github.com/folken88/casandalee-discord-bot-sub000/pkg/version"
)

var (
	cfgFile   string
	debugMode bool
)

// NewRootCmd creates the root command for the casandalee-core CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "casandalee-core",
		Short: "Knowledge core for the Casandalee campaign assistant",
		Long: `casandalee-core maintains the campaign timeline index and the
character-name registry behind the Casandalee assistant.

It ingests an append-only event file, builds keyword, character and
location indices over it, and answers ranked timeline searches and
name resolutions. The chat front end talks to the same data directory.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("casandalee-core version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: built-in defaults)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command. Errors are printed with their code and
// suggestion when available.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatForCLI(err))
		return err
	}
	return nil
}
