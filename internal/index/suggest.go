package index

import "strings"

// MaxSuggestions caps the number of terms returned per prefix lookup.
const MaxSuggestions = 10

// SuggestTerms returns up to limit vocabulary terms starting with the
// normalized prefix. The vocabulary is the key set of the term map; order is
// first-found, which callers treat as unspecified.
func (s *Store) SuggestTerms(prefix string, limit int) []string {
	if limit <= 0 {
		limit = MaxSuggestions
	}
	p := strings.ToLower(strings.TrimSpace(prefix))
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]string, 0, limit)
	for term := range s.postings {
		if !strings.HasPrefix(term, p) {
			continue
		}
		matches = append(matches, term)
		if len(matches) >= limit {
			break
		}
	}
	return matches
}
