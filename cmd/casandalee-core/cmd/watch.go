package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/folken88/casandalee-discord-bot-sub000/internal/output"
	"github.com/folken88/casandalee-discord-bot-sub000/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the event file and rebuild on change",
		Long: `Watch the event source file and rebuild the indices whenever it
changes. Editor save bursts are debounced into a single rebuild.

Runs until interrupted (Ctrl-C).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := loadCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	debounce, err := c.cfg.WatchDebounce()
	if err != nil {
		return err
	}

	w, err := watcher.New(c.source.Path(), watcher.Options{DebounceWindow: debounce})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	out := output.New(cmd.OutOrStdout())
	out.Printf("Watching %s (debounce %s)\n", c.source.Path(), debounce)

	// Catch up before waiting: the file may have changed since the last run.
	rebuildOnce(ctx, c, out)

	for {
		select {
		case <-ctx.Done():
			out.Newline()
			out.Println("Stopped.")
			return nil
		case err := <-w.Errors():
			slog.Warn("watch_error", slog.String("error", err.Error()))
		case <-w.Changes():
			rebuildOnce(ctx, c, out)
		}
	}
}

func rebuildOnce(ctx context.Context, c *core, out *output.Writer) {
	events, err := c.source.Load(ctx)
	if err != nil {
		out.Errorf("load failed: %v", err)
		return
	}

	result, err := c.manager.Rebuild(ctx, events)
	if err != nil {
		out.Errorf("rebuild failed: %v", err)
		return
	}

	out.Successf("rebuilt: %d events, %d new", result.TotalEvents, len(result.NewEvents))
	for _, ev := range result.NewEvents {
		out.Printf("    + %s %s\n", ev.Date, ev.Description)
	}
}
