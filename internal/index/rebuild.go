package index

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Rebuilder accumulates a complete replacement index during a full corpus
// pass. It is safe for concurrent Add calls, so a rebuild can fan work out
// across workers. Nothing in a Rebuilder is visible to queries until the
// Store installs it.
type Rebuilder struct {
	mu sync.Mutex
	t  tables
}

// NewRebuilder returns an empty replacement index.
func NewRebuilder() *Rebuilder {
	return &Rebuilder{t: newTables()}
}

// Add inserts one document's postings into the replacement index.
func (r *Rebuilder) Add(docID string, text string, postings []Posting, tokenCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.t.removeDoc(docID)
	r.t.insertDoc(docID, text, postings, tokenCount)
}

// BeginRebuild claims the rebuild slot and returns a generation token. Only
// the holder of the latest token may install its result; starting a new
// rebuild silently supersedes any in-flight one.
func (s *Store) BeginRebuild() uuid.UUID {
	gen := uuid.New()
	s.mu.Lock()
	s.rebuildGen = gen
	s.mu.Unlock()
	s.logger.Info("rebuild started", "generation", gen.String())
	return gen
}

// InstallRebuild atomically swaps the replacement index in, provided the
// generation token is still the latest. A superseded rebuild's result is
// discarded and InstallRebuild returns false.
func (s *Store) InstallRebuild(gen uuid.UUID, r *Rebuilder) bool {
	r.mu.Lock()
	t := r.t
	r.t = newTables()
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rebuildGen != gen {
		s.logger.Info("rebuild superseded, discarding result", "generation", gen.String())
		return false
	}
	s.tables = t
	s.lastBuild = time.Now()
	s.logger.Info("rebuild installed",
		"generation", gen.String(),
		"documents", len(t.termFreq),
		"terms", len(t.postings),
	)
	return true
}
