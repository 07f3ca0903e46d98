package availability

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// csvHeader is the fixed schema of the output artifact.
var csvHeader = []string{"date", "offeringId", "inventoryOfferingHashKey", "invenOffrngLabel", "availableCount"}

// Sink persists records to a single CSV artifact. It has exactly two
// write modes: Append adds newly-inserted records to the end of the
// file, Regenerate rewrites the whole file from a sorted snapshot.
//
// A Sink performs no locking of its own: the pipeline serializes all
// writes together with ledger mutations under one lock, so an append
// and a regenerate can never interleave.
type Sink struct {
	path string
}

// NewSink truncates/creates the output file and writes the header row,
// so a tail reader sees a well-formed file before any records exist.
func NewSink(path string) (*Sink, error) {
	s := &Sink{path: path}
	err := s.Regenerate(nil)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file currently being written. It differs from the
// configured path only after a write failure forced the sink onto its
// fallback location.
func (s *Sink) Path() string {
	return s.path
}

// fallbackPath is the same file name in the process working directory.
func (s *Sink) fallbackPath() string {
	return filepath.Base(s.path)
}

// Append writes records to the end of the artifact in arrival order,
// flushing before returning. On failure it retries once against the
// fallback path and sticks with it on success; if that also fails the
// error is returned and the ledger's in-memory state stays intact so a
// later regenerate can recover.
func (s *Sink) Append(records []AvailabilityRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := appendRows(s.path, records)
	if err == nil {
		return nil
	}

	fallback := s.fallbackPath()
	if fallback == s.path {
		return err
	}
	slog.Warn("csv append failed, retrying against working directory", "path", s.path, "fallback", fallback, "err", err)
	fallbackErr := appendRows(fallback, records)
	if fallbackErr != nil {
		return fmt.Errorf("append failed (%w); fallback also failed: %w", err, fallbackErr)
	}
	s.path = fallback
	return nil
}

// Regenerate rewrites the whole artifact, header row included, from the
// given snapshot. The same fallback rules as Append apply.
func (s *Sink) Regenerate(snapshot []AvailabilityRecord) error {
	err := writeAll(s.path, snapshot)
	if err == nil {
		return nil
	}

	fallback := s.fallbackPath()
	if fallback == s.path {
		return err
	}
	slog.Warn("csv regenerate failed, retrying against working directory", "path", s.path, "fallback", fallback, "err", err)
	fallbackErr := writeAll(fallback, snapshot)
	if fallbackErr != nil {
		return fmt.Errorf("regenerate failed (%w); fallback also failed: %w", err, fallbackErr)
	}
	s.path = fallback
	return nil
}

func row(r AvailabilityRecord) []string {
	return []string{
		r.Date,
		r.OfferingID,
		r.InventoryOfferingHashKey,
		r.InvenOffrngLabel,
		strconv.Itoa(r.AvailableCount),
	}
}

func appendRows(path string, records []AvailabilityRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	for _, r := range records {
		err := w.Write(row(r))
		if err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeAll(path string, records []AvailabilityRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	err = w.Write(csvHeader)
	if err != nil {
		f.Close()
		return err
	}
	for _, r := range records {
		err := w.Write(row(r))
		if err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
