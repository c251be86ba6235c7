package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/progress"
	"github.com/ardietz/confsync/internal/service"
)

var syncQuiet bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full sync of the source directory",
	Long: `Walk the configured source directory and mirror it into the target
space: folder pages for directories, content pages with attachments for
documents, link lists on every folder page.

Unchanged documents (by content hash) are left alone. Failures on one
page never abort the run; they are reported at the end and the page's
subtree is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.NewSyncService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		if !syncQuiet {
			svc.SetProgressReporter(progress.NewCallbackReporter(printProgress))
		}

		report, err := svc.Run(cmd.Context())
		if err != nil {
			return err
		}

		printReport(report)
		if !report.Success() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "suppress per-document progress output")
}

func printProgress(u progress.Update) {
	switch u.Type {
	case progress.UpdateStart:
		fmt.Printf("[%s] %s...\n", progress.FormatCount(u.Completed+1, u.Total), filepath.Base(u.Path))
	case progress.UpdateComplete:
		fmt.Printf("[%s] %s: %s\n", progress.FormatCount(u.Completed, u.Total), filepath.Base(u.Path), u.Outcome)
	case progress.UpdateError:
		fmt.Fprintf(os.Stderr, "[%s] %s: %v\n", progress.FormatCount(u.Completed, u.Total), filepath.Base(u.Path), u.Err)
	}
}

func printReport(report *domain.SyncReport) {
	stats := report.Stats()
	outcome := "completed"
	if !report.Success() {
		outcome = "finished with failures"
	}
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(10 * time.Millisecond)
	fmt.Printf("\nSync %s in %s\n", outcome, elapsed)
	fmt.Printf("  created:   %d\n", stats.Created)
	fmt.Printf("  updated:   %d\n", stats.Updated)
	fmt.Printf("  unchanged: %d\n", stats.Unchanged)
	if stats.Skipped > 0 {
		fmt.Printf("  skipped:   %d\n", stats.Skipped)
	}
	if stats.Failed > 0 {
		fmt.Printf("  failed:    %d\n", stats.Failed)
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	for _, f := range report.Failed() {
		fmt.Fprintf(os.Stderr, "Failed: %s: %s\n", f.Path, f.Reason)
	}
	for _, s := range report.Skipped() {
		fmt.Fprintf(os.Stderr, "Skipped: %s: %s\n", s.Path, s.Reason)
	}
}
