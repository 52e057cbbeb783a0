package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/timeline"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit     int
	format    string // "text", "json"
	character string
	location  string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the campaign timeline",
		Long: `Search the campaign timeline with ranked scoring.

Query terms are matched against event descriptions, character mentions
and locations; exact phrases and registered character names rank higher.

Examples:
  casandalee-core search "goblin raid"
  casandalee-core search "Battle of Sandpoint" --limit 5
  casandalee-core search --character Ameiko
  casandalee-core search --location Magnimar --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.character, "character", "", "List events mentioning a character (name is resolved first)")
	cmd.Flags().StringVar(&opts.location, "location", "", "List events at a location")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	if query == "" && opts.character == "" && opts.location == "" {
		return fmt.Errorf("provide a query, --character or --location")
	}

	c, err := loadCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.close()

	limit := opts.limit
	if limit <= 0 {
		limit = c.cfg.Search.MaxResults
	}

	out := output.New(cmd.OutOrStdout())

	switch {
	case opts.character != "":
		events := c.engine.CharacterEvents(opts.character)
		return renderEvents(cmd, out, events, opts.format)
	case opts.location != "":
		events := c.engine.LocationEvents(opts.location)
		return renderEvents(cmd, out, events, opts.format)
	}

	results := c.engine.Search(query, limit)

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		out.Println("No matching events.")
		return nil
	}
	for i, r := range results {
		out.Result(i+1, r.Score, r.Date, r.Location, r.Category, r.Description)
	}
	return nil
}

func renderEvents(cmd *cobra.Command, out *output.Writer, events []timeline.Event, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		out.Println("No matching events.")
		return nil
	}
	for i, ev := range events {
		out.Result(i+1, 0, ev.Date, ev.Location, ev.Category, ev.Description)
	}
	return nil
}
