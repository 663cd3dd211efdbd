// Package index implements the in-memory inverted index: posting
// construction, the term to postings-list store with its TF/DF side tables,
// full rebuilds with atomic swap, and snapshot persistence.
package index

import "time"

// Posting is one (term, document) association: every word position where the
// term occurs, the occurrence count, a short context excerpt, and a static
// relevance boost computed at index time.
//
// Invariant: Frequency == len(Positions) and Positions is non-empty.
type Posting struct {
	DocID           string  `json:"d"`
	Term            string  `json:"t"`
	Positions       []int   `json:"p"`
	Frequency       int     `json:"f"`
	Context         string  `json:"c"`
	StaticRelevance float64 `json:"r"`
}

// PostingList is the ordered set of postings for one term.
type PostingList []Posting

// TermEntry pairs a term with its full postings list, used for snapshots.
type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}

// Statistics is an aggregate snapshot of the index, recomputed on every full
// rebuild and kept current across incremental updates.
type Statistics struct {
	TotalDocuments int       `json:"total_documents"`
	TotalTerms     int       `json:"total_terms"`
	AvgDocLength   float64   `json:"avg_doc_length"`
	SizeBytes      int64     `json:"size_bytes"`
	LastBuildTime  time.Time `json:"last_build_time"`
}
