package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardietz/confsync/internal/service"
	"github.com/ardietz/confsync/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the source directory and sync on changes",
	Long: `Run an initial sync, then keep watching the source directory. Each
batch of changes triggers another sync once the tree has been quiet for
the configured debounce period. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.NewSyncService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runOnce := func(ctx context.Context) {
			report, err := svc.Run(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
				return
			}
			printReport(report)
		}

		fmt.Printf("Initial sync of %s...\n", cfg.Source.Dir)
		runOnce(ctx)

		debounce := time.Duration(cfg.Sync.DebounceSeconds) * time.Second
		watcher, err := watch.NewWatcher(cfg.Source.Dir, debounce)
		if err != nil {
			return err
		}

		fmt.Printf("Watching %s (debounce %s). Press Ctrl-C to stop.\n", cfg.Source.Dir, debounce)
		if err := watcher.Run(ctx, runOnce); err != nil && ctx.Err() == nil {
			return err
		}

		fmt.Println("\nStopped.")
		return nil
	},
}
