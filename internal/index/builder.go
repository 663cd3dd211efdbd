package index

import (
	"strings"

	"github.com/shelfdex/shelfdex/internal/textproc"
)

// Static relevance tuning. Behavioural constants, not derived from a model.
const (
	baseRelevance      = 1.0
	docStartBonus      = 2.0
	frequencyPenalty   = 0.1
	frequencyThreshold = 5
	lengthBonus        = 0.1
	minRelevance       = 0.1
	contextRadius      = 5
)

// BuildEntries produces one Posting per indexable term of the document:
// every keyword, every remaining token longer than one character, and every
// contiguous two-token window (bigram). Terms that never occur in the
// original text produce no posting. Output order is deterministic, so
// re-indexing unchanged text yields byte-identical postings.
func BuildEntries(pt textproc.ProcessedText, docID string, text string) []Posting {
	terms := collectTerms(pt)
	if len(terms) == 0 {
		return nil
	}
	words := strings.Fields(text)
	lowered := make([]string, len(words))
	for i, w := range words {
		lowered[i] = strings.ToLower(w)
	}
	postings := make([]Posting, 0, len(terms))
	for _, term := range terms {
		positions := findPositions(lowered, term)
		if len(positions) == 0 {
			continue
		}
		postings = append(postings, Posting{
			DocID:           docID,
			Term:            term,
			Positions:       positions,
			Frequency:       len(positions),
			Context:         contextWindow(words, positions[0]),
			StaticRelevance: staticRelevance(term, positions),
		})
	}
	return postings
}

// collectTerms gathers keywords first, then tokens longer than one character
// not already present, then bigrams, de-duplicated in first-seen order.
func collectTerms(pt textproc.ProcessedText) []string {
	seen := make(map[string]struct{}, len(pt.Keywords)+len(pt.Tokens)*2)
	terms := make([]string, 0, len(pt.Keywords)+len(pt.Tokens)*2)
	add := func(term string) {
		if term == "" {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	for _, kw := range pt.Keywords {
		add(kw)
	}
	for _, tok := range pt.Tokens {
		if len(tok.Term) > 1 {
			add(tok.Term)
		}
	}
	for i := 0; i+1 < len(pt.Tokens); i++ {
		add(pt.Tokens[i].Term + " " + pt.Tokens[i+1].Term)
	}
	return terms
}

// findPositions returns every zero-indexed word position where the term
// occurs, matching case-insensitively as a substring of whole words. A
// multi-word term matches at position i when each of its parts matches the
// corresponding following word.
func findPositions(lowered []string, term string) []int {
	parts := strings.Split(term, " ")
	if len(lowered) < len(parts) {
		return nil
	}
	var positions []int
	for i := 0; i+len(parts) <= len(lowered); i++ {
		matched := true
		for j, part := range parts {
			if !strings.Contains(lowered[i+j], part) {
				matched = false
				break
			}
		}
		if matched {
			positions = append(positions, i)
		}
	}
	return positions
}

// contextWindow extracts the words surrounding pos, contextRadius on each
// side, joined with single spaces.
func contextWindow(words []string, pos int) string {
	start := pos - contextRadius
	if start < 0 {
		start = 0
	}
	end := pos + contextRadius + 1
	if end > len(words) {
		end = len(words)
	}
	return strings.Join(words[start:end], " ")
}

// staticRelevance computes the index-time boost for a term: occurrences at
// the very start of the document are favored, very frequent terms are
// penalised with diminishing returns, and longer terms win over shorter ones.
func staticRelevance(term string, positions []int) float64 {
	score := baseRelevance
	if positions[0] == 0 {
		score += docStartBonus
	}
	if n := len(positions); n > frequencyThreshold {
		score -= frequencyPenalty * float64(n-frequencyThreshold)
		if score < 0 {
			score = 0
		}
	}
	score += lengthBonus * float64(len(term))
	if score < minRelevance {
		score = minRelevance
	}
	return score
}
