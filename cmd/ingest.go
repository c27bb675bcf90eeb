package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/shopmap/internal/ingest"
	"github.com/sells-group/shopmap/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion cycle and refresh the offline copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Ingester.Run(ctx)
		if err != nil {
			return err
		}

		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func printResult(out io.Writer, res *ingest.Result) {
	fmt.Fprintf(out, "Cycle %s (%s) at %s\n", res.CycleID, res.Origin, res.CompletedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Rows: %d  blank: %d  dropped: %d  kept: %d\n\n",
		res.Stats.Rows, res.Stats.Blank, res.Stats.Dropped, res.Stats.Kept)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUCKET\tSHOPS")
	fmt.Fprintln(w, "------\t-----")
	for b := model.MaxRating; b >= model.MinRating; b-- {
		fmt.Fprintf(w, "%s\t%d\n", model.BucketLabel(b), res.Summary.PerBucket[b])
	}
	fmt.Fprintf(w, "total\t%d\n", res.Summary.Total)
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
