package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfdex/shelfdex/internal/index"
	"github.com/shelfdex/shelfdex/internal/textproc"
)

func newFixture(docs map[string]string) *Searcher {
	store := index.NewStore()
	for docID, text := range docs {
		pt := textproc.Process(text)
		store.Apply(docID, text, index.BuildEntries(pt, docID, text), len(pt.Tokens))
	}
	return New(store)
}

func docIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.DocID)
	}
	return ids
}

func TestSearchSingleTerm(t *testing.T) {
	s := newFixture(map[string]string{
		"a": "the blue widget manual",
		"b": "the red widget manual",
	})

	results := s.Execute(context.Background(), "blue", DefaultOptions())
	assert.Equal(t, []string{"a"}, docIDs(results))
}

func TestSearchSharedTerm(t *testing.T) {
	s := newFixture(map[string]string{
		"a": "the blue widget manual",
		"b": "the red widget manual",
	})

	results := s.Execute(context.Background(), "widget", DefaultOptions())
	require.Len(t, results, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, docIDs(results))
	for _, r := range results {
		found := false
		for _, mt := range r.MatchedTerms {
			if mt.Term == "widget" {
				found = true
			}
		}
		assert.True(t, found, "result %s must match on widget", r.DocID)
	}
}

func TestSearchUnknownTerm(t *testing.T) {
	s := newFixture(map[string]string{
		"a": "the blue widget manual",
	})
	assert.Empty(t, s.Execute(context.Background(), "purple", DefaultOptions()))
}

func TestSearchAfterRemoval(t *testing.T) {
	store := index.NewStore()
	for docID, text := range map[string]string{
		"a": "the blue widget manual",
		"b": "the red widget manual",
	} {
		pt := textproc.Process(text)
		store.Apply(docID, text, index.BuildEntries(pt, docID, text), len(pt.Tokens))
	}
	s := New(store)

	store.Remove("a")
	assert.Empty(t, s.Execute(context.Background(), "blue", DefaultOptions()))
	assert.Equal(t, []string{"b"}, docIDs(s.Execute(context.Background(), "widget", DefaultOptions())))
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newFixture(map[string]string{"a": "the blue widget manual"})
	assert.Nil(t, s.Execute(context.Background(), "", DefaultOptions()))
	assert.Nil(t, s.Execute(context.Background(), "   \t ", DefaultOptions()))
}

// A query term absent from the index contributes no candidates but never
// fails the query as a whole.
func TestSearchMixedKnownUnknownTerms(t *testing.T) {
	s := newFixture(map[string]string{"a": "the blue widget manual"})
	results := s.Execute(context.Background(), "nonexistentterm widget", DefaultOptions())
	assert.Equal(t, []string{"a"}, docIDs(results))
}

// Two-character query tokens are not keywords; they are only looked up in
// the widening pass when the keyword pass found too few candidates.
func TestSearchWidensToTokens(t *testing.T) {
	s := newFixture(map[string]string{
		"a": "go programming for beginners",
	})
	results := s.Execute(context.Background(), "go", DefaultOptions())
	assert.Equal(t, []string{"a"}, docIDs(results))
}

func TestSearchScoreMonotonicity(t *testing.T) {
	s := newFixture(map[string]string{
		"more": "widget gadget widget gadget widget",
		"less": "widget gadget",
	})
	results := s.Execute(context.Background(), "widget", DefaultOptions())
	require.Len(t, results, 2)
	assert.Equal(t, "more", results[0].DocID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchMaxResultsTruncation(t *testing.T) {
	docs := make(map[string]string, 20)
	for i := 0; i < 20; i++ {
		docs[fmt.Sprintf("doc-%02d", i)] = "widget inventory entry"
	}
	s := newFixture(docs)
	opts := DefaultOptions()
	opts.MaxResults = 5
	results := s.Execute(context.Background(), "widget", opts)
	assert.Len(t, results, 5)
}

func TestSearchDeterministicTiebreak(t *testing.T) {
	s := newFixture(map[string]string{
		"b": "widget inventory entry",
		"a": "widget inventory entry",
	})
	results := s.Execute(context.Background(), "widget", DefaultOptions())
	require.Len(t, results, 2)
	assert.Equal(t, []string{"a", "b"}, docIDs(results))
}

func TestSearchPhraseViaBigram(t *testing.T) {
	s := newFixture(map[string]string{
		"a": "the blue widget manual",
		"b": "a widget that is blue manual",
	})
	results := s.Execute(context.Background(), "blue widget", DefaultOptions())
	require.NotEmpty(t, results)
	// Both documents contain the individual terms; only "a" contains the
	// contiguous phrase, so it must rank first.
	assert.Equal(t, "a", results[0].DocID)
}

func TestSearchTFIDFFavorsRareTerms(t *testing.T) {
	docs := map[string]string{
		"rare": "widget with obscure flange attachment",
	}
	for i := 0; i < 5; i++ {
		docs[fmt.Sprintf("common-%d", i)] = "widget inventory entry"
	}
	s := newFixture(docs)
	results := s.Execute(context.Background(), "flange widget", DefaultOptions())
	require.NotEmpty(t, results)
	assert.Equal(t, "rare", results[0].DocID)
	assert.Greater(t, results[0].TFIDF, 0.0)
}

func TestSearchFuzzyMatchesTypo(t *testing.T) {
	s := newFixture(map[string]string{"a": "the blue widget manual"})

	strict := s.Execute(context.Background(), "wdiget", DefaultOptions())
	assert.Empty(t, strict)

	opts := DefaultOptions()
	opts.Fuzzy = true
	fuzzy := s.Execute(context.Background(), "wdiget", opts)
	assert.Equal(t, []string{"a"}, docIDs(fuzzy))
}

// A one-term query can match two index terms when a fuzzy variant hits; the
// coverage component must cap at a full match instead of exceeding it.
func TestScoreDocumentCoverageCapped(t *testing.T) {
	store := index.NewStore()
	text := "wdiget widget assembly"
	pt := textproc.Process(text)
	store.Apply("a", text, index.BuildEntries(pt, "a", text), len(pt.Tokens))

	matched := map[string]index.Posting{
		"wdiget": store.Lookup("wdiget")[0],
		"widget": store.Lookup("widget")[0],
	}
	relevance, tfidf := scoreDocument(store, "a", matched, 1)

	// Single document: both terms have df 1, so the TF-IDF component is 0.
	// Total frequency is 2 and the average first position is 0.5.
	assert.Zero(t, tfidf)
	expected := weightCoverage*1 +
		weightFrequency*2 +
		weightPosition*(1-0.5/positionBonusScale)
	assert.InDelta(t, expected, relevance, 1e-9)
}

func TestSearchWithoutSnippets(t *testing.T) {
	s := newFixture(map[string]string{"a": "the blue widget manual"})
	opts := DefaultOptions()
	opts.IncludeSnippets = false
	results := s.Execute(context.Background(), "widget", opts)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Snippets)
}

func BenchmarkSearch(b *testing.B) {
	store := index.NewStore()
	for i := 0; i < 5000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		text := fmt.Sprintf("inventory item %d with widget parts and a searchable manual", i)
		pt := textproc.Process(text)
		store.Apply(docID, text, index.BuildEntries(pt, docID, text), len(pt.Tokens))
	}
	s := New(store)
	opts := DefaultOptions()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Execute(context.Background(), "widget manual", opts)
	}
}
