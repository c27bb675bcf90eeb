package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/offline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the offline copy of the spreadsheet",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show metadata of the offline copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		c, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		entry, err := c.Get(ctx)
		if err != nil {
			return err
		}
		if entry == nil {
			fmt.Fprintln(os.Stderr, "No offline copy stored.")
			return nil
		}

		formatEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the offline copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		c, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		if err := c.Clear(ctx); err != nil {
			return err
		}
		zap.L().Info("offline copy cleared", zap.String("slot", cfg.Offline.Slot))
		return nil
	},
}

func formatEntry(out io.Writer, e *offline.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", e.ID)
	fmt.Fprintf(w, "SOURCE\t%s\n", e.SourceURL)
	fmt.Fprintf(w, "FORMAT\t%s\n", e.Format)
	fmt.Fprintf(w, "FETCHED\t%s\n", e.FetchedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "BYTES\t%d\n", len(e.Payload))
	_ = w.Flush()
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
