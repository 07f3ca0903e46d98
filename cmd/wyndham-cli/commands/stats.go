package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/RomirSinghla-Redweek/automation-wyndham/services/availability"
	"github.com/RomirSinghla-Redweek/automation-wyndham/services/availability/stats"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsInterval *int

func init() {
	statsInterval = statsCmd.Flags().Int("interval", 0, "Refresh every N seconds; 0 prints once and exits.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [csv]",
	Short: "Prints aggregate statistics computed from the availability CSV.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := availability.DefaultOutputName
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// the watcher drops the file next to the responses by default
			alt := filepath.Join(availability.DefaultWatchDir, filepath.Base(path))
			if _, err := os.Stat(alt); err == nil {
				path = alt
			}
		}

		reader := stats.NewReader(path)

		s, err := reader.Read()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		renderStats(path, s)

		if *statsInterval <= 0 {
			return
		}
		ticker := time.NewTicker(time.Duration(*statsInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-cmd.Context().Done():
				return
			case <-ticker.C:
				s, changed, err := reader.ReadIfChanged()
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				if changed {
					renderStats(path, s)
				}
			}
		}
	},
}

func renderStats(path string, s stats.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(path)
	t.AppendRows([]table.Row{
		{"Total Records", s.TotalRows},
		{"New Records", s.NewRows},
		{"File Size", fmt.Sprintf("%.2f MB", float64(s.FileSize)/(1024*1024))},
		{"Unique Dates", s.UniqueDates},
		{"Date Range", fmt.Sprintf("%s to %s", s.EarliestDate, s.LatestDate)},
		{"Total Availability", fmt.Sprintf("%d units", s.TotalUnits)},
		{"Unique Properties", s.UniqueOfferings},
		{"Presidential Reserve", fmt.Sprintf("%d records", s.PresidentialRows)},
		{"Unique Room Types", len(s.RoomTypes)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	renderTop("Top Properties by Availability", s.UnitsByOffering, 5)
	renderTop("Top Room Types", s.RoomTypes, 5)
}

func renderTop(title string, counts map[string]int, n int) {
	if len(counts) == 0 {
		return
	}

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > n {
		entries = entries[:n]
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	for _, e := range entries {
		t.AppendRow(table.Row{e.name, e.count})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
