package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/RomirSinghla-Redweek/automation-wyndham/lib/configutil"
	"github.com/RomirSinghla-Redweek/automation-wyndham/lib/serviceutil"
	"github.com/RomirSinghla-Redweek/automation-wyndham/services/availability"

	"github.com/spf13/cobra"
)

var (
	watchDir    *string
	watchOutput *string
	watchRegen  *int
	watchSettle *time.Duration
)

func init() {
	watchDir = watchCmd.Flags().String("watch-dir", "", "Directory to watch for network response files.")
	watchOutput = watchCmd.Flags().String("output", "", "Output CSV file path; a bare name lands in the watch directory.")
	watchRegen = watchCmd.Flags().Int("regenerate-interval", -1, "Seconds between sorted CSV rewrites, 0 to disable.")
	watchSettle = watchCmd.Flags().Duration("settle-delay", availability.DefaultSettleDelay, "Delay after a file event before reading the file.")
	rootCmd.AddCommand(watchCmd)
}

// flags beat config.json5, config beats the defaults
func loadWatchConfig(cmd *cobra.Command) availability.Config {
	cfg, err := configutil.ReadConfig[availability.Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	if cmd.Flags().Changed("watch-dir") {
		cfg.WatchDir = *watchDir
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = *watchOutput
	}
	if cmd.Flags().Changed("regenerate-interval") {
		cfg.RegenerateInterval = *watchRegen
	}
	return cfg.WithDefaults()
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Processes existing response files, then keeps the CSV updated as new ones appear.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadWatchConfig(cmd)

		err := os.MkdirAll(cfg.WatchDir, 0o755)
		if err != nil {
			serviceutil.Fatal("create watch directory", err)
		}

		pipeline, err := availability.NewPipeline(cfg.OutputPath())
		if err != nil {
			serviceutil.Fatal("initialize pipeline", err)
		}
		watcher := availability.NewWatcher(pipeline, availability.WatcherOptions{
			Dir:         cfg.WatchDir,
			SettleDelay: *watchSettle,
		})

		ctx := cmd.Context()
		_, err = watcher.ScanExisting(ctx)
		if err != nil {
			slog.Error("scan existing files", "err", err)
		}

		interval := time.Duration(cfg.RegenerateInterval) * time.Second
		go pipeline.RunRegenerateDaemon(ctx, interval)

		err = watcher.Run(ctx)
		if err != nil {
			serviceutil.Fatal("watch", err)
		}

		// the signal context is gone, give the final flush its own deadline
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		err = pipeline.Close(shutdownCtx)
		if err != nil {
			serviceutil.Fatal("final regenerate", err)
		}
		slog.Info("final csv saved", "records", pipeline.Size())
	},
}
