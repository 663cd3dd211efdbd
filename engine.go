// Package shelfdex is an embedded full-text search engine for OCR-extracted
// document text. It maintains an in-memory inverted index with TF-IDF
// ranking, persisted asynchronously to a single snapshot file, and serves
// ranked, highlighted results and prefix suggestions to the embedding
// application. There is no network surface; the application owns document
// storage and hands the engine plain text keyed by an opaque document id.
package shelfdex

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelfdex/shelfdex/internal/index"
	"github.com/shelfdex/shelfdex/internal/search"
	"github.com/shelfdex/shelfdex/internal/textproc"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/metrics"
	"github.com/shelfdex/shelfdex/pkg/resilience"
)

// ErrClosed is returned by operations on an engine after Close.
var ErrClosed = errors.New("engine closed")

// Document is one unit of indexable content.
type Document struct {
	ID   string
	Text string
}

// Progress reports rebuild progress. Fraction grows from 0 to 1; Stats is
// set only on the final message of a completed rebuild.
type Progress struct {
	Fraction float64
	Stats    *index.Statistics
}

// Options re-exports the query options type.
type Options = search.Options

// Result re-exports the search result type.
type Result = search.Result

// Engine is the search engine handle. Construct with New, feed it documents,
// query it, and Close it to flush. All methods are safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	store    *index.Store
	searcher *search.Searcher
	cache    *search.Cache
	metrics  *metrics.Metrics
	flusher  *index.Flusher
	cancel   context.CancelFunc
	history  *queryHistory
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New creates an Engine from cfg (nil means defaults), loading a previously
// persisted index if one exists. A corrupt or incompatible index file is
// discarded silently; the engine starts empty and the caller may trigger a
// Rebuild.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:     cfg,
		store:   index.NewStore(),
		history: newQueryHistory(50),
		logger:  slog.Default().With("component", "engine"),
	}
	e.searcher = search.New(e.store)
	if cfg.Cache.Enabled {
		e.cache = search.NewCache(cfg.Cache.TTL)
	}
	if cfg.Metrics.Enabled {
		e.metrics = metrics.New(cfg.Metrics.Registerer)
	} else {
		e.metrics = metrics.Nop()
	}

	snap, err := index.LoadSnapshot(cfg.Index.Path)
	switch {
	case err == nil:
		e.store.Restore(snap)
	case errors.Is(err, os.ErrNotExist):
		e.logger.Info("no persisted index, starting empty", "path", cfg.Index.Path)
	default:
		e.logger.Warn("persisted index unreadable, starting empty; rebuild recommended",
			"path", cfg.Index.Path,
			"error", err,
		)
	}

	retry := resilience.RetryConfig{MaxAttempts: cfg.Index.FlushRetries}
	e.flusher = index.NewFlusher(e.store, cfg.Index.Path, cfg.Index.FlushDebounce, retry, func(err error) {
		if err != nil {
			e.metrics.FlushesTotal.WithLabelValues("error").Inc()
		} else {
			e.metrics.FlushesTotal.WithLabelValues("ok").Inc()
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.flusher.Run(ctx)

	e.updateGauges()
	return e, nil
}

// IndexDocument indexes or re-indexes one document. Empty or whitespace-only
// text is equivalent to RemoveDocument.
func (e *Engine) IndexDocument(ctx context.Context, docID string, text string) error {
	if err := e.checkOpen(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return e.RemoveDocument(ctx, docID)
	}
	pt := textproc.Process(text)
	postings := index.BuildEntries(pt, docID, text)
	e.store.Apply(docID, text, postings, len(pt.Tokens))
	e.afterMutation()
	e.metrics.DocsIndexedTotal.Inc()
	e.logger.Debug("document indexed",
		"doc_id", docID,
		"tokens", len(pt.Tokens),
		"postings", len(postings),
		"language", pt.Language,
	)
	return nil
}

// RemoveDocument deletes every trace of the document from the index.
func (e *Engine) RemoveDocument(ctx context.Context, docID string) error {
	if err := e.checkOpen(ctx); err != nil {
		return err
	}
	e.store.Remove(docID)
	e.afterMutation()
	e.metrics.DocsRemovedTotal.Inc()
	return nil
}

// Rebuild resynchronizes the index from a full corpus scan. It returns
// immediately with a progress channel; the caller reads fractions in [0,1]
// until the channel closes. The final message of a completed rebuild carries
// the new IndexStatistics. Queries keep running against the old index until
// the replacement is swapped in atomically. Starting another Rebuild
// supersedes this one: the superseded result is discarded, never merged.
func (e *Engine) Rebuild(ctx context.Context, docs []Document) (<-chan Progress, error) {
	if err := e.checkOpen(ctx); err != nil {
		return nil, err
	}
	gen := e.store.BeginRebuild()
	ch := make(chan Progress, 1)

	go func() {
		defer close(ch)
		rb := index.NewRebuilder()
		var completed atomic.Int64
		total := len(docs)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.NumCPU())
		for _, doc := range docs {
			doc := doc
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if strings.TrimSpace(doc.Text) == "" {
					completed.Add(1)
					return nil
				}
				pt := textproc.Process(doc.Text)
				postings := index.BuildEntries(pt, doc.ID, doc.Text)
				rb.Add(doc.ID, doc.Text, postings, len(pt.Tokens))
				sendLatest(ch, Progress{
					Fraction: float64(completed.Add(1)) / float64(total),
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			e.metrics.RebuildsTotal.WithLabelValues("cancelled").Inc()
			e.logger.Info("rebuild cancelled", "error", err)
			return
		}
		if !e.store.InstallRebuild(gen, rb) {
			e.metrics.RebuildsTotal.WithLabelValues("superseded").Inc()
			return
		}
		e.afterMutation()
		e.metrics.RebuildsTotal.WithLabelValues("completed").Inc()
		stats := e.store.Stats()
		sendLatest(ch, Progress{Fraction: 1, Stats: &stats})
	}()
	return ch, nil
}

// Search executes a query with the configured default options.
func (e *Engine) Search(ctx context.Context, query string) ([]Result, error) {
	return e.SearchWithOptions(ctx, query, e.DefaultOptions())
}

// SearchWithOptions executes a query and returns results ranked by
// relevance. An empty or whitespace-only query returns an empty list without
// touching the index.
func (e *Engine) SearchWithOptions(ctx context.Context, query string, opts Options) ([]Result, error) {
	if err := e.checkOpen(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		e.metrics.SearchesTotal.WithLabelValues("empty_query").Inc()
		return nil, nil
	}
	start := time.Now()
	var results []Result
	cacheStatus := "bypass"
	if e.cache != nil {
		var hit bool
		results, hit = e.cache.GetOrCompute(query, opts, func() []Result {
			return e.searcher.Execute(ctx, query, opts)
		})
		if hit {
			cacheStatus = "hit"
			e.metrics.CacheHitsTotal.Inc()
		} else {
			cacheStatus = "miss"
			e.metrics.CacheMissesTotal.Inc()
		}
	} else {
		results = e.searcher.Execute(ctx, query, opts)
	}
	e.history.record(query)

	e.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	e.metrics.SearchResultsCount.Observe(float64(len(results)))
	if len(results) == 0 {
		e.metrics.SearchesTotal.WithLabelValues("zero_result").Inc()
	} else {
		e.metrics.SearchesTotal.WithLabelValues("hit").Inc()
	}
	return results, nil
}

// Suggest returns up to ten autocomplete candidates for the prefix: terms
// from the index vocabulary, topped up with matching recent queries.
func (e *Engine) Suggest(prefix string) []string {
	terms := e.store.SuggestTerms(prefix, index.MaxSuggestions)
	if len(terms) >= index.MaxSuggestions {
		return terms
	}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	p := strings.ToLower(strings.TrimSpace(prefix))
	for _, q := range e.history.matching(p) {
		if _, dup := seen[q]; dup {
			continue
		}
		terms = append(terms, q)
		if len(terms) >= index.MaxSuggestions {
			break
		}
	}
	return terms
}

// Stats returns the current aggregate index statistics.
func (e *Engine) Stats() index.Statistics {
	return e.store.Stats()
}

// DefaultOptions returns the query options from the engine configuration.
func (e *Engine) DefaultOptions() Options {
	return Options{
		MaxResults:       e.cfg.Search.MaxResults,
		MinResults:       e.cfg.Search.MinResults,
		IncludeSnippets:  e.cfg.Search.IncludeSnippets,
		HighlightMatches: e.cfg.Search.HighlightMatches,
		Phrase:           e.cfg.Search.Phrase,
		Fuzzy:            e.cfg.Search.Fuzzy,
	}
}

// Close stops the background flusher and writes a final synchronous
// snapshot. The engine is unusable afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.flusher.Wait()
	return e.flusher.FlushNow()
}

func (e *Engine) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// afterMutation keeps the cache, persistence, and gauges in step with any
// index change.
func (e *Engine) afterMutation() {
	if e.cache != nil {
		e.cache.Invalidate()
	}
	e.flusher.Notify()
	e.updateGauges()
}

func (e *Engine) updateGauges() {
	stats := e.store.Stats()
	e.metrics.IndexDocuments.Set(float64(stats.TotalDocuments))
	e.metrics.IndexTerms.Set(float64(stats.TotalTerms))
	e.metrics.IndexSizeBytes.Set(float64(stats.SizeBytes))
}

// sendLatest delivers a progress message without ever blocking the rebuild:
// a stale undelivered message is replaced by the newer one.
func sendLatest(ch chan Progress, p Progress) {
	for {
		select {
		case ch <- p:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// queryHistory is a small ring of recent queries feeding Suggest.
type queryHistory struct {
	mu      sync.Mutex
	entries []string
	next    int
}

func newQueryHistory(capacity int) *queryHistory {
	return &queryHistory{entries: make([]string, 0, capacity)}
}

func (h *queryHistory) record(query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.entries {
		if existing == q {
			return
		}
	}
	if len(h.entries) < cap(h.entries) {
		h.entries = append(h.entries, q)
		return
	}
	h.entries[h.next] = q
	h.next = (h.next + 1) % cap(h.entries)
}

func (h *queryHistory) matching(prefix string) []string {
	if prefix == "" {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, q := range h.entries {
		if strings.HasPrefix(q, prefix) {
			out = append(out, q)
		}
	}
	return out
}
