package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the shop directory as CSV",
	Long:  "Runs an ingestion cycle and writes the retrieved CSV payload verbatim, or the normalized listings when the source is not CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outPath, _ := cmd.Flags().GetString("out")

		env, err := initApp(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Ingester.Run(ctx); err != nil {
			return err
		}

		// The offline copy holds the payload of the cycle just applied.
		raw := ""
		entry, err := env.Cache.Get(ctx)
		if err != nil {
			zap.L().Warn("export: read offline copy", zap.Error(err))
		} else {
			raw = export.RawPayload(entry)
		}

		var out io.Writer = cmd.OutOrStdout()
		if outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", outPath)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		if err := export.Write(out, raw, env.Controller.All()); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("out", outPath),
			zap.Int("listings", len(env.Controller.All())),
			zap.Bool("verbatim", raw != ""),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "-", "output file (- for stdout)")
	rootCmd.AddCommand(exportCmd)
}
