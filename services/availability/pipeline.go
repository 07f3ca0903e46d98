package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/availability")

// Defaults mirror the paths the scanner has always used.
const (
	DefaultWatchDir           = "screens/NewFolder"
	DefaultOutputName         = "wyndham_availability_realtime.csv"
	DefaultRegenerateInterval = 60
	DefaultSettleDelay        = 500 * time.Millisecond
)

// Config is the pipeline configuration, read from config.json5 and
// overridable by CLI flags.
type Config struct {
	// WatchDir is the directory watched/scanned for response files.
	WatchDir string `json:"watch_dir"`
	// Output is the CSV artifact path. A bare file name is placed
	// inside WatchDir.
	Output string `json:"output"`
	// RegenerateInterval is the number of seconds between full sorted
	// rewrites of the artifact. 0 disables the periodic rewrite;
	// regeneration still happens at startup and shutdown.
	RegenerateInterval int `json:"regenerate_interval"`
}

func (c Config) WithDefaults() Config {
	if c.WatchDir == "" {
		c.WatchDir = DefaultWatchDir
	}
	if c.Output == "" {
		c.Output = DefaultOutputName
	}
	if c.RegenerateInterval < 0 {
		c.RegenerateInterval = 0
	}
	return c
}

// OutputPath resolves the configured output relative to the watch
// directory when it carries no directory component of its own.
func (c Config) OutputPath() string {
	if strings.ContainsRune(c.Output, os.PathSeparator) || strings.ContainsRune(c.Output, '/') {
		return c.Output
	}
	return filepath.Join(c.WatchDir, c.Output)
}

// Pipeline owns one Ledger and one Sink and the single lock that
// serializes every mutation of the pair. All producers (the in-process
// capture, the file watcher and the batch scan) funnel through it.
type Pipeline struct {
	mu     sync.Mutex
	ledger *Ledger
	sink   *Sink
}

func NewPipeline(outputPath string) (*Pipeline, error) {
	sink, err := NewSink(outputPath)
	if err != nil {
		return nil, fmt.Errorf("initialize csv sink: %w", err)
	}
	slog.Info("initialized csv artifact", "path", sink.Path())
	return &Pipeline{
		ledger: NewLedger(),
		sink:   sink,
	}, nil
}

// IngestResult distinguishes "nothing to do" from "something broke":
// a payload can legitimately produce zero records.
type IngestResult struct {
	// Parsed is how many candidate records the payload produced.
	Parsed int
	// Inserted is how many of those were new to the ledger and got
	// appended to the artifact.
	Inserted int
}

// Ingest is the entry point for in-process producers that already hold
// a decoded payload (the live capture path). Records are inserted and
// appended in the order the parser emitted them; the provenance label
// is only used for diagnostics, never persisted.
func (p *Pipeline) Ingest(ctx context.Context, payload RawPayload, provenance string) (IngestResult, error) {
	ctx, span := tracer.Start(ctx, "Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("provenance", provenance))

	records := Extract(payload)
	result := IngestResult{Parsed: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	// a cancelled ingest is abandoned before any ledger mutation
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return IngestResult{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var fresh []AvailabilityRecord
	for _, record := range records {
		if p.ledger.Insert(record) {
			fresh = append(fresh, record)
		}
	}
	result.Inserted = len(fresh)

	err := p.sink.Append(fresh)
	if err != nil {
		// the records stay in the ledger; the next regenerate
		// rewrites the artifact from it once the path is healthy
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	if result.Inserted > 0 {
		slog.Info("ingested payload",
			"provenance", provenance,
			"parsed", result.Parsed,
			"new", result.Inserted,
			"total", p.ledger.Size(),
		)
	}
	return result, nil
}

// IngestReader decodes a JSON payload and feeds it through Ingest.
// Subtrees of an unexpected shape are dropped rather than failing the
// payload; only syntactically invalid JSON is an error.
func (p *Pipeline) IngestReader(ctx context.Context, r io.Reader, provenance string) (IngestResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return IngestResult{}, err
	}

	var payload RawPayload
	err = json.Unmarshal(raw, &payload)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		slog.Warn("payload subtree has unexpected shape, skipping it",
			"provenance", provenance,
			"field", typeErr.Field,
		)
	} else if err != nil {
		return IngestResult{}, fmt.Errorf("malformed payload: %w", err)
	}

	return p.Ingest(ctx, payload, provenance)
}

// IngestFile runs one response file through the pipeline. The file's
// base name doubles as the provenance label.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return IngestResult{}, err
	}
	defer f.Close()
	return p.IngestReader(ctx, f, filepath.Base(path))
}

// Regenerate rewrites the artifact from a full sorted snapshot.
func (p *Pipeline) Regenerate(ctx context.Context) error {
	_, span := tracer.Start(ctx, "Regenerate")
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.ledger.SnapshotSorted()
	err := p.sink.Regenerate(snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	slog.Info("regenerated sorted csv", "rows", len(snapshot), "path", p.sink.Path())
	return nil
}

// RunRegenerateDaemon periodically rewrites the artifact until the
// context is cancelled. Intended to run on its own goroutine; the
// regenerate is interval-gated so it cannot starve appends.
func (p *Pipeline) RunRegenerateDaemon(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := p.Regenerate(ctx)
			if err != nil {
				slog.Error("periodic regenerate", "err", err)
			}
		}
	}
}

// Close performs the final regenerate-and-flush so the artifact is
// complete and sorted even when the run was stopped mid-stream.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.Regenerate(ctx)
}

// Size reports the number of unique records held so far.
func (p *Pipeline) Size() int {
	return p.ledger.Size()
}

// Snapshot exposes the sorted ledger view, mainly for summaries.
func (p *Pipeline) Snapshot() []AvailabilityRecord {
	return p.ledger.SnapshotSorted()
}
