package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index and registry statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, jsonOutput bool) error {
	c, err := loadCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.close()

	stats := c.manager.Stats()

	if jsonOutput {
		payload := struct {
			TotalEvents    int    `json:"total_events"`
			KeywordCount   int    `json:"keyword_count"`
			CharacterCount int    `json:"character_count"`
			LocationCount  int    `json:"location_count"`
			LastBuildTime  string `json:"last_build_time"`
			Canonicals     int    `json:"canonicals"`
			Aliases        int    `json:"aliases"`
		}{
			TotalEvents:    stats.TotalEvents,
			KeywordCount:   stats.KeywordCount,
			CharacterCount: stats.CharacterCount,
			LocationCount:  stats.LocationCount,
			LastBuildTime:  stats.LastBuildTime.Format("2006-01-02T15:04:05Z07:00"),
			Canonicals:     len(c.reg.Canonicals()),
			Aliases:        c.reg.AliasCount(),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	out := output.New(cmd.OutOrStdout())
	out.Heading("Timeline index")
	out.KV("events", stats.TotalEvents)
	out.KV("keyword terms", stats.KeywordCount)
	out.KV("character terms", stats.CharacterCount)
	out.KV("locations", stats.LocationCount)
	if stats.LastBuildTime.IsZero() {
		out.KV("last build", "never")
	} else {
		out.KV("last build", stats.LastBuildTime.Format("2006-01-02 15:04:05"))
	}
	out.Newline()
	out.Heading("Name registry")
	out.KV("canonical names", len(c.reg.Canonicals()))
	out.KV("aliases", c.reg.AliasCount())
	return nil
}
