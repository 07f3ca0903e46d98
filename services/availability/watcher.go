package availability

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// responseFilePattern is what a captured network response file looks
// like on disk.
func matchesResponseFile(path string) bool {
	name := filepath.Base(path)
	return strings.Contains(name, "network-response") && strings.HasSuffix(name, ".txt")
}

// fileEvent is the closed set of filesystem events the watcher reacts
// to; everything else fsnotify reports is ignored.
type fileEvent int

const (
	fileCreated fileEvent = iota
	fileModified
)

func classifyEvent(op fsnotify.Op) (fileEvent, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return fileCreated, true
	case op.Has(fsnotify.Write):
		return fileModified, true
	default:
		return 0, false
	}
}

// Watcher feeds response files from one directory (non-recursive) into
// a pipeline: all files already present once at startup, then every
// file the filesystem reports as created or modified. Files are never
// processed twice, even when the filesystem re-fires events for them.
type Watcher struct {
	pipeline *Pipeline
	dir      string
	settle   time.Duration

	mu        sync.Mutex
	processed map[string]struct{}
}

type WatcherOptions struct {
	Dir string
	// SettleDelay is how long to wait after a file event before
	// reading the file, so a partially-written file isn't consumed.
	// Defaults to DefaultSettleDelay.
	SettleDelay time.Duration
}

func NewWatcher(pipeline *Pipeline, opts WatcherOptions) *Watcher {
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Watcher{
		pipeline:  pipeline,
		dir:       opts.Dir,
		settle:    settle,
		processed: map[string]struct{}{},
	}
}

// ScanExisting runs every matching file already present in the
// directory through the pipeline, sorted by name. It returns the number
// of files processed; an unreadable or malformed file is logged and
// skipped, it never aborts the scan.
func (w *Watcher) ScanExisting(ctx context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "*network-response*.txt"))
	if err != nil {
		return 0, err
	}
	sort.Strings(matches)

	if len(matches) > 0 {
		slog.Info("processing existing response files", "count", len(matches), "dir", w.dir)
	}

	processed := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if w.ingest(ctx, path) {
			processed++
		}
	}
	return processed, nil
}

// Run watches the directory until the context is cancelled. Matching
// create/modify events are debounced by the settle delay (a cancellable
// wait that does not touch the pipeline's lock) before the file is read.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	err = fw.Add(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching for response files", "dir", w.dir)

	var pending sync.WaitGroup
	defer pending.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			kind, relevant := classifyEvent(event.Op)
			if !relevant || !matchesResponseFile(event.Name) {
				continue
			}
			if w.alreadyProcessed(event.Name) {
				continue
			}
			switch kind {
			case fileCreated:
				slog.Debug("new response file detected", "file", filepath.Base(event.Name))
			case fileModified:
				slog.Debug("response file modified", "file", filepath.Base(event.Name))
			}
			pending.Add(1)
			go func(path string) {
				defer pending.Done()
				w.settleAndIngest(ctx, path)
			}(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

// settleAndIngest waits out the settle delay (abandoning the file if
// the run is shutting down) and then processes it.
func (w *Watcher) settleAndIngest(ctx context.Context, path string) {
	timer := time.NewTimer(w.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	w.ingest(ctx, path)
}

func (w *Watcher) alreadyProcessed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.processed[path]
	return ok
}

// ingest runs one file through the pipeline and marks it processed on
// success. Failed files stay unmarked so a later event can retry them.
func (w *Watcher) ingest(ctx context.Context, path string) bool {
	if w.alreadyProcessed(path) {
		return false
	}

	_, err := w.pipeline.IngestFile(ctx, path)
	if err != nil {
		slog.Warn("skipping response file", "file", filepath.Base(path), "err", err)
		return false
	}

	w.mu.Lock()
	w.processed[path] = struct{}{}
	w.mu.Unlock()
	return true
}
