// Package search executes free-text queries against the inverted index:
// candidate collection with keyword-first widening, TF-IDF plus composite
// relevance scoring, top-k ranking, and snippet highlighting.
package search

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/shelfdex/shelfdex/internal/index"
	"github.com/shelfdex/shelfdex/internal/textproc"
)

// Options configures a single query.
type Options struct {
	// MaxResults caps the ranked result list.
	MaxResults int `json:"max_results"`
	// MinResults is the candidate-count threshold below which the engine
	// widens lookup from query keywords to all query tokens.
	MinResults       int  `json:"min_results"`
	IncludeSnippets  bool `json:"include_snippets"`
	HighlightMatches bool `json:"highlight_matches"`
	// Phrase also looks up two-token windows of the query against the
	// bigram entries in the index, so contiguous phrases outrank
	// scattered term matches.
	Phrase bool `json:"phrase"`
	// Fuzzy additionally matches single-deletion and adjacent-swap
	// variants of each query term. Off by default; variant generation is
	// quadratic in term length.
	Fuzzy bool `json:"fuzzy"`
}

// DefaultOptions returns the documented defaults (50 / 5 / true / true).
func DefaultOptions() Options {
	return Options{
		MaxResults:       50,
		MinResults:       5,
		IncludeSnippets:  true,
		HighlightMatches: true,
		Phrase:           true,
	}
}

// MatchedTerm records one query term found in a result document.
type MatchedTerm struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

// Result is one ranked search hit.
type Result struct {
	DocID        string        `json:"doc_id"`
	Score        float64       `json:"score"`
	TFIDF        float64       `json:"tf_idf"`
	MatchedTerms []MatchedTerm `json:"matched_terms"`
	Snippets     []Snippet     `json:"snippets,omitempty"`
}

// Searcher executes queries against a Store.
type Searcher struct {
	store  *index.Store
	logger *slog.Logger
}

// New creates a Searcher over the given store.
func New(store *index.Store) *Searcher {
	return &Searcher{
		store:  store,
		logger: slog.Default().With("component", "searcher"),
	}
}

// Execute runs the query and returns results ranked by relevance, truncated
// to opts.MaxResults. An empty or whitespace-only query returns nil without
// touching the index. Terms absent from the index contribute nothing; they
// never fail the search.
func (s *Searcher) Execute(ctx context.Context, query string, opts Options) []Result {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}
	pt := textproc.Process(query)

	// candidates maps docID -> term -> posting.
	candidates := make(map[string]map[string]index.Posting)
	queryTerms := make(map[string]struct{})
	lookupAll := func(terms []string) {
		for _, term := range terms {
			if _, done := queryTerms[term]; done {
				continue
			}
			queryTerms[term] = struct{}{}
			s.collect(candidates, term, term)
			if opts.Fuzzy {
				for _, variant := range Variants(term) {
					s.collect(candidates, variant, variant)
				}
			}
		}
	}

	lookupAll(pt.Keywords)
	if opts.Phrase {
		bigrams := make([]string, 0, len(pt.Tokens))
		for i := 0; i+1 < len(pt.Tokens); i++ {
			bigrams = append(bigrams, pt.Tokens[i].Term+" "+pt.Tokens[i+1].Term)
		}
		lookupAll(bigrams)
	}
	if len(candidates) < opts.MinResults {
		keywordSet := make(map[string]struct{}, len(pt.Keywords))
		for _, kw := range pt.Keywords {
			keywordSet[kw] = struct{}{}
		}
		widen := make([]string, 0, len(pt.Tokens))
		for _, tok := range pt.Tokens {
			if _, isKeyword := keywordSet[tok.Term]; !isKeyword {
				widen = append(widen, tok.Term)
			}
		}
		lookupAll(widen)
	}
	if len(candidates) == 0 {
		return nil
	}

	results := rankCandidates(s.store, candidates, len(queryTerms), opts.MaxResults)
	if opts.IncludeSnippets {
		for i := range results {
			results[i].Snippets = s.buildSnippets(&results[i], opts.HighlightMatches)
		}
	}
	s.logger.Debug("query executed",
		"query", query,
		"terms", len(queryTerms),
		"candidates", len(candidates),
		"results", len(results),
	)
	return results
}

// collect merges the postings for one term into the candidate set,
// recording matches under matchTerm (the variant that actually matched, for
// fuzzy lookups).
func (s *Searcher) collect(candidates map[string]map[string]index.Posting, term string, matchTerm string) {
	for _, p := range s.store.Lookup(term) {
		byTerm, ok := candidates[p.DocID]
		if !ok {
			byTerm = make(map[string]index.Posting)
			candidates[p.DocID] = byTerm
		}
		byTerm[matchTerm] = p
	}
}

// Composite relevance weights. Tunable constants, not principled.
const (
	weightCoverage     = 0.4
	weightTFIDF        = 0.3
	weightFrequency    = 0.2
	weightPosition     = 0.1
	positionBonusScale = 1000.0
)

// scoreDocument computes the TF-IDF and composite relevance scores for one
// candidate document.
func scoreDocument(store *index.Store, docID string, matched map[string]index.Posting, queryTermCount int) (relevance float64, tfidf float64) {
	totalDocs := store.TotalDocuments()
	totalFreq := 0
	firstPosSum := 0.0
	for term, posting := range matched {
		df := store.DocumentFrequency(term)
		if df > 0 && totalDocs > 0 {
			tf := store.TermFrequency(docID, term)
			tfidf += float64(tf) * math.Log(float64(totalDocs)/float64(df))
		}
		totalFreq += posting.Frequency
		firstPosSum += float64(posting.Positions[0])
	}
	coverage := 0.0
	if queryTermCount > 0 {
		// Fuzzy variants can match more terms than the query contains;
		// coverage caps at a full match.
		coverage = float64(len(matched)) / float64(queryTermCount)
		if coverage > 1 {
			coverage = 1
		}
	}
	avgFirstPos := firstPosSum / float64(len(matched))
	positionBonus := 1 - avgFirstPos/positionBonusScale
	if positionBonus < 0 {
		positionBonus = 0
	}
	relevance = weightCoverage*coverage +
		weightTFIDF*tfidf +
		weightFrequency*float64(totalFreq) +
		weightPosition*positionBonus
	return relevance, tfidf
}
