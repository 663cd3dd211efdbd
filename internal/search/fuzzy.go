package search

// Variants generates the fuzzy-match candidates for a term: every
// single-character deletion and every adjacent-character swap, rune-safe,
// de-duplicated, excluding the term itself and anything shorter than two
// characters. Generation is O(len²) in the term length, which is why fuzzy
// matching is opt-in rather than applied to every query.
func Variants(term string) []string {
	runes := []rune(term)
	if len(runes) < 2 {
		return nil
	}
	seen := map[string]struct{}{term: {}}
	variants := make([]string, 0, len(runes)*2)
	add := func(v string) {
		if len([]rune(v)) < 2 {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	for i := range runes {
		deleted := make([]rune, 0, len(runes)-1)
		deleted = append(deleted, runes[:i]...)
		deleted = append(deleted, runes[i+1:]...)
		add(string(deleted))
	}
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == runes[i+1] {
			continue
		}
		swapped := make([]rune, len(runes))
		copy(swapped, runes)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		add(string(swapped))
	}
	return variants
}
