package search

import (
	"container/heap"
	"sort"

	"github.com/shelfdex/shelfdex/internal/index"
)

// rankCandidates scores every candidate document and returns the top limit
// results ordered by relevance descending, DocID ascending on ties. A
// bounded min-heap keeps selection at O(n log limit).
func rankCandidates(store *index.Store, candidates map[string]map[string]index.Posting, queryTermCount int, limit int) []Result {
	h := &resultHeap{}
	heap.Init(h)
	for docID, matched := range candidates {
		relevance, tfidf := scoreDocument(store, docID, matched, queryTermCount)
		terms := make([]MatchedTerm, 0, len(matched))
		for term, posting := range matched {
			terms = append(terms, MatchedTerm{
				Term:      term,
				Frequency: posting.Frequency,
				Positions: posting.Positions,
			})
		}
		sort.Slice(terms, func(i, j int) bool {
			if terms[i].Frequency != terms[j].Frequency {
				return terms[i].Frequency > terms[j].Frequency
			}
			return terms[i].Term < terms[j].Term
		})
		heap.Push(h, Result{
			DocID:        docID,
			Score:        relevance,
			TFIDF:        tfidf,
			MatchedTerms: terms,
		})
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Result)
	}
	return results
}

type resultHeap []Result

func (h resultHeap) Len() int { return len(h) }

func (h resultHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x interface{}) {
	*h = append(*h, x.(Result))
}

func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
