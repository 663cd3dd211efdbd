package index

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tables is the mutable heart of the index: the term to postings map and its
// derived side tables. It is not safe for concurrent use on its own; Store
// and Rebuilder wrap it with their own locking.
type tables struct {
	// postings maps term -> docID -> posting. A term key exists only
	// while at least one posting references it.
	postings map[string]map[string]*Posting
	// docFreq maps term -> number of distinct documents containing it.
	docFreq map[string]int
	// termFreq maps docID -> term -> occurrence count in that document.
	termFreq map[string]map[string]int
	// docLengths maps docID -> token count, for average length stats.
	docLengths map[string]int
	// docs retains the original text per document for snippet extraction.
	docs map[string]string

	totalTokens int64
	size        int64
}

func newTables() tables {
	return tables{
		postings:   make(map[string]map[string]*Posting),
		docFreq:    make(map[string]int),
		termFreq:   make(map[string]map[string]int),
		docLengths: make(map[string]int),
		docs:       make(map[string]string),
	}
}

// insertDoc adds freshly built postings for a document that is not currently
// present. Callers remove any stale state for the docID first.
func (t *tables) insertDoc(docID string, text string, postings []Posting, tokenCount int) {
	freqs := make(map[string]int, len(postings))
	for i := range postings {
		p := postings[i]
		bucket, ok := t.postings[p.Term]
		if !ok {
			bucket = make(map[string]*Posting)
			t.postings[p.Term] = bucket
		}
		if _, exists := bucket[docID]; !exists {
			t.docFreq[p.Term]++
		}
		bucket[docID] = &p
		freqs[p.Term] = p.Frequency
		t.size += postingSize(&p)
	}
	t.termFreq[docID] = freqs
	t.docLengths[docID] = tokenCount
	t.totalTokens += int64(tokenCount)
	t.docs[docID] = text
	t.size += int64(len(text))
}

// removeDoc deletes every posting referencing docID and purges the document
// from all side tables. Terms left with no postings lose their map key.
func (t *tables) removeDoc(docID string) {
	terms, ok := t.termFreq[docID]
	if !ok {
		return
	}
	for term := range terms {
		bucket, ok := t.postings[term]
		if !ok {
			continue
		}
		if p, exists := bucket[docID]; exists {
			t.size -= postingSize(p)
			delete(bucket, docID)
			t.docFreq[term]--
		}
		if len(bucket) == 0 {
			delete(t.postings, term)
			delete(t.docFreq, term)
		}
	}
	delete(t.termFreq, docID)
	t.totalTokens -= int64(t.docLengths[docID])
	delete(t.docLengths, docID)
	t.size -= int64(len(t.docs[docID]))
	delete(t.docs, docID)
}

// postingSize estimates the in-memory footprint of a posting, mirroring the
// per-entry accounting used for the index size statistic.
func postingSize(p *Posting) int64 {
	return int64(len(p.Term) + len(p.DocID) + len(p.Positions)*8 + len(p.Context) + 64)
}

// Store is the live, queryable inverted index. Incremental mutations are
// serialized behind the write lock; reads run concurrently under the read
// lock. A full rebuild constructs its state off to the side (Rebuilder) and
// swaps it in atomically, so queries observe either the old or the new index
// in full, never a mix.
type Store struct {
	mu sync.RWMutex
	tables
	lastBuild  time.Time
	rebuildGen uuid.UUID
	logger     *slog.Logger
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		tables: newTables(),
		logger: slog.Default().With("component", "index-store"),
	}
}

// Apply replaces all postings for the document with the given freshly built
// set. Any previous state for the docID is removed first, so re-applying
// identical input is idempotent.
func (s *Store) Apply(docID string, text string, postings []Posting, tokenCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeDoc(docID)
	s.insertDoc(docID, text, postings, tokenCount)
}

// Remove deletes every trace of the document from the index.
func (s *Store) Remove(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeDoc(docID)
}

// Contains reports whether the document is currently indexed.
func (s *Store) Contains(docID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.termFreq[docID]
	return ok
}

// Lookup returns a copy of the postings list for the term, sorted by DocID
// for deterministic downstream processing. Unknown terms yield nil.
func (s *Store) Lookup(term string) PostingList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.postings[strings.ToLower(term)]
	if !ok {
		return nil
	}
	result := make(PostingList, 0, len(bucket))
	for _, p := range bucket {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// DocumentFrequency returns the number of distinct documents containing term.
func (s *Store) DocumentFrequency(term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docFreq[term]
}

// TermFrequency returns how often term occurs within the given document.
func (s *Store) TermFrequency(docID string, term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.termFreq[docID][term]
}

// TotalDocuments returns the number of indexed documents.
func (s *Store) TotalDocuments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.termFreq)
}

// DocumentText returns the retained original text for snippet extraction.
func (s *Store) DocumentText(docID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.docs[docID]
	return text, ok
}

// Stats returns the aggregate index statistics.
func (s *Store) Stats() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := Statistics{
		TotalDocuments: len(s.termFreq),
		TotalTerms:     len(s.postings),
		SizeBytes:      s.size,
		LastBuildTime:  s.lastBuild,
	}
	if stats.TotalDocuments > 0 {
		stats.AvgDocLength = float64(s.totalTokens) / float64(stats.TotalDocuments)
	}
	return stats
}

// Snapshot captures the full index state for persistence, with terms and
// postings in deterministic order.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]TermEntry, 0, len(s.postings))
	for term, bucket := range s.postings {
		postings := make(PostingList, 0, len(bucket))
		for _, p := range bucket {
			postings = append(postings, *p)
		}
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].DocID < postings[j].DocID
		})
		entries = append(entries, TermEntry{Term: term, Postings: postings})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	docs := make(map[string]string, len(s.docs))
	for id, text := range s.docs {
		docs[id] = text
	}
	lengths := make(map[string]int, len(s.docLengths))
	for id, n := range s.docLengths {
		lengths[id] = n
	}
	return &Snapshot{
		Terms:      entries,
		Docs:       docs,
		DocLengths: lengths,
		BuiltAt:    s.lastBuild,
	}
}

// Restore replaces the whole index with the contents of a loaded snapshot.
// The document-frequency and term-frequency tables are rederived from the
// postings rather than trusted from disk.
func (s *Store) Restore(snap *Snapshot) {
	t := newTables()
	for _, entry := range snap.Terms {
		for i := range entry.Postings {
			p := entry.Postings[i]
			bucket, ok := t.postings[entry.Term]
			if !ok {
				bucket = make(map[string]*Posting)
				t.postings[entry.Term] = bucket
			}
			if _, exists := bucket[p.DocID]; !exists {
				t.docFreq[entry.Term]++
			}
			bucket[p.DocID] = &p
			freqs, ok := t.termFreq[p.DocID]
			if !ok {
				freqs = make(map[string]int)
				t.termFreq[p.DocID] = freqs
			}
			freqs[entry.Term] = p.Frequency
			t.size += postingSize(&p)
		}
	}
	for id, text := range snap.Docs {
		t.docs[id] = text
		t.size += int64(len(text))
	}
	for id, n := range snap.DocLengths {
		t.docLengths[id] = n
		t.totalTokens += int64(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = t
	s.lastBuild = snap.BuiltAt
	s.logger.Info("index restored from snapshot",
		"documents", len(t.termFreq),
		"terms", len(t.postings),
	)
}
