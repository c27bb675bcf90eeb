package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/shopmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shopmap",
	Short: "Geolocated shop directory with synced list and map views",
	Long: `Loads a published spreadsheet of shops, keeps an offline copy, and serves
filtered, rating-grouped list and map views that stay in sync.

Configuration is read from ./config.yaml (or --config) and SHOPMAP_* environment
variables, e.g. SHOPMAP_SOURCE_URL for source.url. Sections:
  source     url, format (csv|xlsx|sheets_json), sheet_name, cache_bust_param,
             timeout_secs, max_attempts, rate_per_sec, user_agent,
             refresh_interval_secs
  offline    driver (sqlite|postgres|memory), database_url, slot
  map        default_lat, default_lng, default_zoom, detail_zoom, padding
  directory  locale, aliases_file
  server     port, cors_origins
  log        level, format (json|console)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			c.Log.Level = level
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		zap.L().Debug("config loaded",
			zap.String("source", cfg.Source.URL),
			zap.String("format", cfg.Source.Format),
			zap.String("offline_driver", cfg.Offline.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
