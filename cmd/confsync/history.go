package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ardietz/confsync/internal/service"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.NewSyncService(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		runs, err := svc.History(historyLimit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No sync runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSPACE\tSTATUS\tCREATED\tUPDATED\tUNCHANGED\tSKIPPED\tFAILED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.SpaceKey,
				r.Status,
				r.Created,
				r.Updated,
				r.Unchanged,
				r.Skipped,
				r.Failed,
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}
