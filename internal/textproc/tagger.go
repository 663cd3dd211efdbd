package textproc

import "strings"

// Tag is a coarse lexical class assigned to a token.
type Tag string

const (
	TagNoun      Tag = "noun"
	TagVerb      Tag = "verb"
	TagAdjective Tag = "adjective"
	TagOther     Tag = "other"
)

// TaggedToken pairs a term with its lexical class.
type TaggedToken struct {
	Term string
	Tag  Tag
}

// Suffix rules for the heuristic classifier, longest match first. The rules
// only make sense for English-like morphology; unknown languages fall
// through to TagOther for every token.
var tagRules = []struct {
	suffix string
	tag    Tag
	minLen int
}{
	{"ization", TagNoun, 9},
	{"ability", TagNoun, 9},
	{"fulness", TagNoun, 9},
	{"ational", TagAdjective, 9},
	{"ousness", TagNoun, 9},
	{"iveness", TagNoun, 9},
	{"ement", TagNoun, 7},
	{"ition", TagNoun, 7},
	{"ation", TagNoun, 7},
	{"able", TagAdjective, 6},
	{"ible", TagAdjective, 6},
	{"less", TagAdjective, 6},
	{"ness", TagNoun, 6},
	{"ment", TagNoun, 6},
	{"ship", TagNoun, 6},
	{"ance", TagNoun, 6},
	{"ence", TagNoun, 6},
	{"tion", TagNoun, 6},
	{"sion", TagNoun, 6},
	{"ize", TagVerb, 5},
	{"ise", TagVerb, 5},
	{"ify", TagVerb, 5},
	{"ate", TagVerb, 5},
	{"ous", TagAdjective, 5},
	{"ive", TagAdjective, 5},
	{"ful", TagAdjective, 5},
	{"ish", TagAdjective, 5},
	{"ing", TagVerb, 5},
	{"ism", TagNoun, 5},
	{"ist", TagNoun, 5},
	{"ity", TagNoun, 5},
	{"age", TagNoun, 5},
	{"al", TagAdjective, 4},
	{"ic", TagAdjective, 4},
	{"ed", TagVerb, 4},
	{"er", TagNoun, 4},
	{"or", TagNoun, 4},
	{"ly", TagOther, 4},
}

// tagTokens classifies every token. For languages the suffix table does not
// cover, everything is tagged TagOther; the keyword extractor treats all
// four classes as candidates, so tagging quality only affects metadata.
func tagTokens(tokens []Token, lang string) []TaggedToken {
	if len(tokens) == 0 {
		return nil
	}
	tagged := make([]TaggedToken, 0, len(tokens))
	heuristic := lang == "eng" || lang == LangUnknown
	for _, t := range tokens {
		tag := TagOther
		if heuristic {
			tag = classify(t.Term)
		}
		tagged = append(tagged, TaggedToken{Term: t.Term, Tag: tag})
	}
	return tagged
}

func classify(word string) Tag {
	for _, rule := range tagRules {
		if len(word) >= rule.minLen && strings.HasSuffix(word, rule.suffix) {
			return rule.tag
		}
	}
	// Bare words with no telling suffix are overwhelmingly nouns in
	// inventory text (product names, part numbers, materials).
	return TagNoun
}
