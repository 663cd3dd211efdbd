package search

import (
	"strings"
	"unicode"
)

const (
	snippetRadius   = 10
	contextChars    = 50
	maxSnippetTerms = 3
)

// Range is a half-open [Start, End) byte range within a snippet's Text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Snippet is a highlighted excerpt around one matched term, with up to
// contextChars of raw document text on either side of the window.
type Snippet struct {
	Text          string  `json:"text"`
	Highlights    []Range `json:"highlights,omitempty"`
	ContextBefore string  `json:"context_before,omitempty"`
	ContextAfter  string  `json:"context_after,omitempty"`
}

// buildSnippets generates one snippet per matched term, up to
// maxSnippetTerms, from the retained document text. Documents whose text is
// no longer available (e.g. removed mid-query) yield no snippets.
func (s *Searcher) buildSnippets(r *Result, highlight bool) []Snippet {
	text, ok := s.store.DocumentText(r.DocID)
	if !ok || text == "" {
		return nil
	}
	starts, ends := wordOffsets(text)
	if len(starts) == 0 {
		return nil
	}
	snippets := make([]Snippet, 0, maxSnippetTerms)
	for _, mt := range r.MatchedTerms {
		if len(snippets) >= maxSnippetTerms {
			break
		}
		if len(mt.Positions) == 0 {
			continue
		}
		first := mt.Positions[0]
		if first >= len(starts) {
			continue
		}
		lo := first - snippetRadius
		if lo < 0 {
			lo = 0
		}
		hi := first + snippetRadius
		if hi >= len(starts) {
			hi = len(starts) - 1
		}
		window := text[starts[lo]:ends[hi]]
		snip := Snippet{
			Text:          window,
			ContextBefore: clampBefore(text, starts[lo]),
			ContextAfter:  clampAfter(text, ends[hi]),
		}
		if highlight {
			snip.Highlights = highlightRanges(window, mt.Term)
		}
		snippets = append(snippets, snip)
	}
	return snippets
}

// wordOffsets returns the byte start and end offsets of every
// whitespace-separated word in text, aligned with the zero-indexed word
// positions stored in postings.
func wordOffsets(text string) (starts []int, ends []int) {
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				ends = append(ends, i)
				inWord = false
			}
			continue
		}
		if !inWord {
			starts = append(starts, i)
			inWord = true
		}
	}
	if inWord {
		ends = append(ends, len(text))
	}
	return starts, ends
}

// highlightRanges finds every case-insensitive occurrence of term inside
// window. Multi-word terms that do not occur verbatim (original spacing may
// differ) fall back to highlighting each part separately.
func highlightRanges(window string, term string) []Range {
	lowered := strings.ToLower(window)
	ranges := scanOccurrences(lowered, strings.ToLower(term))
	if len(ranges) > 0 || !strings.Contains(term, " ") {
		return ranges
	}
	for _, part := range strings.Split(strings.ToLower(term), " ") {
		ranges = append(ranges, scanOccurrences(lowered, part)...)
	}
	return ranges
}

func scanOccurrences(lowered string, needle string) []Range {
	if needle == "" {
		return nil
	}
	var ranges []Range
	for from := 0; ; {
		i := strings.Index(lowered[from:], needle)
		if i < 0 {
			return ranges
		}
		start := from + i
		ranges = append(ranges, Range{Start: start, End: start + len(needle)})
		from = start + len(needle)
	}
}

func clampBefore(text string, at int) string {
	lo := at - contextChars
	if lo < 0 {
		lo = 0
	}
	return strings.TrimSpace(text[lo:at])
}

func clampAfter(text string, at int) string {
	hi := at + contextChars
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[at:hi])
}
