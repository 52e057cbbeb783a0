package cmd

import (
	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
)

func newRebuildCmd() *cobra.Command {
	var ifStale bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the timeline indices from the event source",
		Long: `Reload the event file, rebuild all indices and persist the snapshot.

The event source is append-only: a rebuild reports which events were
appended since the previous snapshot. Searches keep serving the old
snapshot until the new one swaps in.

Examples:
  casandalee-core rebuild
  casandalee-core rebuild --if-stale`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRebuild(cmd, ifStale)
		},
	}

	cmd.Flags().BoolVar(&ifStale, "if-stale", false, "Only rebuild when the snapshot is older than rebuild.stale_after")

	return cmd
}

func runRebuild(cmd *cobra.Command, ifStale bool) error {
	c, err := loadCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.close()

	out := output.New(cmd.OutOrStdout())

	if ifStale {
		threshold, err := c.cfg.StaleAfter()
		if err != nil {
			return err
		}
		if !c.manager.IsStale(threshold) {
			out.Println("Snapshot is fresh, nothing to do.")
			return nil
		}
	}

	events, err := c.source.Load(cmd.Context())
	if err != nil {
		return err
	}

	result, err := c.manager.Rebuild(cmd.Context(), events)
	if err != nil {
		return err
	}

	out.Successf("rebuilt: %d events, %d new", result.TotalEvents, len(result.NewEvents))
	for i, ev := range result.NewEvents {
		out.Result(i+1, 0, ev.Date, ev.Location, ev.Category, ev.Description)
	}
	return nil
}
