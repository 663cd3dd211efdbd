package index

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfdex/shelfdex/pkg/resilience"
)

// Flusher persists the index asynchronously. Mutators call Notify, which
// never blocks; pending notifications coalesce, and the flusher debounces
// before snapshotting so a burst of updates costs one write. A failed write
// is retried with backoff, then logged and dropped: the in-memory index
// stays authoritative until the next successful flush.
type Flusher struct {
	store    *Store
	path     string
	debounce time.Duration
	retry    resilience.RetryConfig
	onFlush  func(err error)

	dirty  chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewFlusher creates a Flusher writing snapshots of store to path. onFlush,
// if non-nil, observes the outcome of every flush attempt.
func NewFlusher(store *Store, path string, debounce time.Duration, retry resilience.RetryConfig, onFlush func(err error)) *Flusher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Flusher{
		store:    store,
		path:     path,
		debounce: debounce,
		retry:    retry,
		onFlush:  onFlush,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "index-flusher"),
	}
}

// Notify marks the index dirty. It never blocks.
func (f *Flusher) Notify() {
	select {
	case f.dirty <- struct{}{}:
	default:
	}
}

// Run services flush notifications until ctx is cancelled, then performs a
// final flush if anything is still dirty.
func (f *Flusher) Run(ctx context.Context) {
	defer f.once.Do(func() { close(f.done) })
	for {
		select {
		case <-ctx.Done():
			select {
			case <-f.dirty:
				f.flush(context.Background())
			default:
			}
			return
		case <-f.dirty:
			timer := time.NewTimer(f.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				f.flush(context.Background())
				return
			case <-timer.C:
			}
			// Coalesce anything that arrived during the debounce.
			select {
			case <-f.dirty:
			default:
			}
			f.flush(ctx)
		}
	}
}

// Wait blocks until Run has returned, so callers can sequence shutdown.
func (f *Flusher) Wait() {
	<-f.done
}

// FlushNow writes a snapshot synchronously, bypassing debounce. Used on
// shutdown.
func (f *Flusher) FlushNow() error {
	return f.flush(context.Background())
}

func (f *Flusher) flush(ctx context.Context) error {
	snap := f.store.Snapshot()
	err := resilience.Retry(ctx, "index-flush", f.retry, func() error {
		return WriteSnapshot(f.path, snap)
	})
	if err != nil {
		f.logger.Error("index flush failed, in-memory index remains authoritative",
			"path", f.path,
			"error", err,
		)
	} else {
		f.logger.Debug("index flushed",
			"path", f.path,
			"terms", len(snap.Terms),
			"documents", len(snap.Docs),
		)
	}
	if f.onFlush != nil {
		f.onFlush(err)
	}
	return err
}
