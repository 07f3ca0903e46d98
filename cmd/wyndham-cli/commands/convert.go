package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RomirSinghla-Redweek/automation-wyndham/lib/serviceutil"
	"github.com/RomirSinghla-Redweek/automation-wyndham/services/availability"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var convertOutput *string

func init() {
	convertOutput = convertCmd.Flags().String("output", "wyndham_availability.csv", "Name of the CSV file to write, placed next to the input files.")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Converts a directory of captured response files into a sorted CSV in one pass.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			serviceutil.Fatal("not a directory", fmt.Errorf("%s", dir))
		}

		output := *convertOutput
		if filepath.Base(output) == output {
			output = filepath.Join(dir, output)
		}

		pipeline, err := availability.NewPipeline(output)
		if err != nil {
			serviceutil.Fatal("initialize pipeline", err)
		}
		watcher := availability.NewWatcher(pipeline, availability.WatcherOptions{Dir: dir})

		ctx := cmd.Context()
		files, err := watcher.ScanExisting(ctx)
		if err != nil {
			serviceutil.Fatal("scan directory", err)
		}
		if files == 0 {
			slog.Warn("no response files found", "dir", dir)
			return
		}

		err = pipeline.Close(ctx)
		if err != nil {
			serviceutil.Fatal("write csv", err)
		}
		slog.Info("csv created", "path", output, "files", files, "rows", pipeline.Size())

		printSample(pipeline.Snapshot(), 10)
	},
}

func printSample(records []availability.AvailabilityRecord, n int) {
	if len(records) == 0 {
		return
	}
	if len(records) < n {
		n = len(records)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Offering", "Hash Key", "Room", "Count"})
	for _, r := range records[:n] {
		t.AppendRow(table.Row{r.Date, r.OfferingID, r.InventoryOfferingHashKey, r.InvenOffrngLabel, r.AvailableCount})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
