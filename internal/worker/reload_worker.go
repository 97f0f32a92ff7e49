// Package worker keeps the served order table in step with its source.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"digimart/internal/amqp"
	"digimart/internal/dataset"
)

// LoadFunc reads a fresh table from the configured source.
type LoadFunc func(ctx context.Context) (*dataset.Table, error)

// Target receives reloaded tables.
type Target interface {
	Replace(table *dataset.Table)
}

// Stats reports what the worker has done so far.
type Stats struct {
	Reloads    int64
	Skipped    int64
	Failures   int64
	LastReload time.Time
}

// ReloadWorker reloads the order table on import notifications and,
// optionally, on a fixed interval. Reloads never run concurrently.
type ReloadWorker struct {
	load   LoadFunc
	target Target

	mu    sync.Mutex
	stats Stats
}

func NewReloadWorker(load LoadFunc, target Target) *ReloadWorker {
	return &ReloadWorker{load: load, target: target}
}

// HandleDatasetImported reloads the table unless a reload already started
// after the import finished.
func (w *ReloadWorker) HandleDatasetImported(ctx context.Context, msg *amqp.DatasetImportedMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stats.LastReload.IsZero() && msg.Timestamp.Before(w.stats.LastReload) {
		w.stats.Skipped++
		slog.DebugContext(ctx, "Dataset import already loaded",
			"source", msg.Source,
			"imported_at", msg.Timestamp,
			"last_reload", w.stats.LastReload)
		return nil
	}
	return w.reloadLocked(ctx, "import:"+msg.Source)
}

// Reload loads and swaps in the table now.
func (w *ReloadWorker) Reload(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloadLocked(ctx, "manual")
}

func (w *ReloadWorker) reloadLocked(ctx context.Context, trigger string) error {
	start := time.Now()
	table, err := w.load(ctx)
	if err != nil {
		w.stats.Failures++
		return fmt.Errorf("reload dataset (%s): %w", trigger, err)
	}
	w.target.Replace(table)
	w.stats.Reloads++
	w.stats.LastReload = start

	slog.InfoContext(ctx, "Dataset reloaded",
		"trigger", trigger,
		"rows", table.Len(),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// RunPeriodic reloads every interval until ctx is done. A failed reload is
// logged and the current table stays in service.
func (w *ReloadWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Periodic dataset reload enabled", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			err := w.reloadLocked(ctx, "periodic")
			w.mu.Unlock()
			if err != nil {
				slog.ErrorContext(ctx, "Periodic dataset reload failed", "error", err)
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (w *ReloadWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
