package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
)

func newResolveCmd() *cobra.Command {
	var jsonOutput bool
	var suggest int

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a character name to its canonical form",
		Long: `Resolve a possibly misspelled or partial character name.

Resolution tries an exact alias match, then a unique prefix, then a
unique substring, then fuzzy matching. A successful fuzzy match is
learned as a new alias so the same typo resolves instantly next time.

Examples:
  casandalee-core resolve amiko
  casandalee-core resolve "Shale" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, strings.Join(args, " "), jsonOutput, suggest)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&suggest, "suggest", 3, "Number of suggestions when resolution fails")

	return cmd
}

type resolveResult struct {
	Input       string   `json:"input"`
	Canonical   string   `json:"canonical,omitempty"`
	Resolved    bool     `json:"resolved"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func runResolve(cmd *cobra.Command, name string, jsonOutput bool, suggest int) error {
	c, err := loadCore(cmd.Context())
	if err != nil {
		return err
	}
	defer c.close()

	res := resolveResult{Input: name}
	if canonical, ok := c.reg.Resolve(name); ok {
		res.Canonical = canonical
		res.Resolved = true
	} else if suggest > 0 {
		res.Suggestions = c.reg.Search(name, suggest)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	out := output.New(cmd.OutOrStdout())
	if res.Resolved {
		out.Println(res.Canonical)
		return nil
	}
	out.Warning("no match for " + name)
	for _, s := range res.Suggestions {
		out.Println("  did you mean: " + s)
	}
	return nil
}
