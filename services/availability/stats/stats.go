// Package stats computes dashboard aggregates from the pipeline's CSV
// artifact. It only ever reads the persisted file; it never touches the
// ledger, and it tolerates the file being regenerated between reads.
package stats

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Stats is one read of the artifact, aggregated.
type Stats struct {
	TotalRows int
	// NewRows is the row-count delta since the Reader's previous read.
	NewRows  int
	FileSize int64

	UniqueDates     int
	UniqueOfferings int
	EarliestDate    string
	LatestDate      string

	// TotalUnits sums availableCount over all rows.
	TotalUnits      int
	UnitsByDate     map[string]int
	UnitsByOffering map[string]int

	// RoomTypes is a frequency histogram of invenOffrngLabel values.
	RoomTypes map[string]int
	// PresidentialRows counts rows whose offeringId or label contains
	// "Presidential".
	PresidentialRows int
}

// Reader reads the artifact end-to-end and remembers enough between
// reads to detect growth cheaply.
type Reader struct {
	path     string
	lastSize int64
	lastMod  time.Time
	lastRows int
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) Path() string {
	return r.path
}

// Changed reports whether the file's size or modification time moved
// since the last Read, without opening it.
func (r *Reader) Changed() (bool, error) {
	info, err := os.Stat(r.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() != r.lastSize || !info.ModTime().Equal(r.lastMod), nil
}

// Read parses the whole artifact and returns its aggregates. Rows that
// fail to parse are skipped; the reader is not required to be correct
// under a partial write, only to not fail on one.
func (r *Reader) Read() (Stats, error) {
	stats := Stats{
		UnitsByDate:     map[string]int{},
		UnitsByOffering: map[string]int{},
		RoomTypes:       map[string]int{},
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return stats, err
	}
	stats.FileSize = info.Size()

	f, err := os.Open(r.path)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// a row caught mid-append may have fewer fields, don't error on it
	reader.FieldsPerRecord = -1

	dates := map[string]struct{}{}
	offerings := map[string]struct{}{}

	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		if first {
			first = false
			continue // header
		}
		if len(row) < 5 {
			continue
		}

		date, offeringID, label := row[0], row[1], row[3]
		count, err := strconv.Atoi(row[4])
		if err != nil {
			continue
		}

		stats.TotalRows++
		stats.TotalUnits += count

		if date != "" {
			dates[date] = struct{}{}
			stats.UnitsByDate[date] += count
			if stats.EarliestDate == "" || date < stats.EarliestDate {
				stats.EarliestDate = date
			}
			if stats.LatestDate == "" || date > stats.LatestDate {
				stats.LatestDate = date
			}
		}
		if offeringID != "" {
			offerings[offeringID] = struct{}{}
			stats.UnitsByOffering[offeringID] += count
		}
		if label != "" {
			stats.RoomTypes[label]++
		}
		if strings.Contains(offeringID, "Presidential") || strings.Contains(label, "Presidential") {
			stats.PresidentialRows++
		}
	}

	stats.UniqueDates = len(dates)
	stats.UniqueOfferings = len(offerings)
	stats.NewRows = stats.TotalRows - r.lastRows

	r.lastSize = info.Size()
	r.lastMod = info.ModTime()
	r.lastRows = stats.TotalRows
	return stats, nil
}

// ReadIfChanged re-reads the artifact only when its size or mtime
// moved. The bool reports whether a fresh read happened.
func (r *Reader) ReadIfChanged() (Stats, bool, error) {
	changed, err := r.Changed()
	if err != nil {
		return Stats{}, false, err
	}
	if !changed {
		return Stats{}, false, nil
	}
	stats, err := r.Read()
	if err != nil {
		return Stats{}, false, err
	}
	return stats, true, nil
}
