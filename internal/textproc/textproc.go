// Package textproc turns raw extracted document text into the normalized
// token stream the index and query engine share. It segments on Unicode word
// boundaries, lower-cases, detects the dominant language, tags each token
// with a coarse lexical class, and extracts keyword candidates.
package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/clipperhouse/uax29/v2/words"
)

// LangUnknown marks text whose language detection was inconclusive.
// Downstream processing takes a language-neutral path.
const LangUnknown = "und"

// Token is a single normalised term and its position in the token sequence.
type Token struct {
	Term     string
	Position int
}

// ProcessedText is the output of Process: everything the index builder and
// query engine need to know about a piece of text.
type ProcessedText struct {
	Tokens   []Token
	Tagged   []TaggedToken
	Keywords []string
	Language string
}

// minTokenLen drops segmentation noise; tokens shorter than this after
// trimming never reach the index.
const minTokenLen = 2

// Process tokenizes text, detects its dominant language, tags each token,
// and extracts keyword candidates. It is a pure function of its input.
func Process(text string) ProcessedText {
	tokens := Tokenize(text)
	lang := detectLanguage(text)
	tagged := tagTokens(tokens, lang)
	return ProcessedText{
		Tokens:   tokens,
		Tagged:   tagged,
		Keywords: extractKeywords(tokens, tagged),
		Language: lang,
	}
}

// Tokenize breaks text into lowercased Tokens on UAX#29 word boundaries,
// discarding whitespace, punctuation, and tokens shorter than two characters.
func Tokenize(text string) []Token {
	seg := words.FromString(strings.ToLower(text))
	tokens := make([]Token, 0, len(text)/8)
	pos := 0
	for seg.Next() {
		word := strings.TrimSpace(seg.Value())
		if utf8.RuneCountInString(word) < minTokenLen {
			continue
		}
		if !hasLetterOrDigit(word) {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// detectLanguage returns the ISO 639-3 code of the most probable language, or
// LangUnknown when detection is inconclusive.
func detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return LangUnknown
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return LangUnknown
	}
	return whatlanggo.LangToString(info.Lang)
}

// extractKeywords keeps tokens of any lexical class whose length exceeds two
// characters, de-duplicated preserving first-seen order. When tagging
// produced nothing (empty or undetectable text), every token becomes a
// candidate so indexing never fails outright.
func extractKeywords(tokens []Token, tagged []TaggedToken) []string {
	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	appendCandidate := func(term string) {
		if utf8.RuneCountInString(term) <= 2 {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		keywords = append(keywords, term)
	}
	if len(tagged) == 0 {
		for _, t := range tokens {
			appendCandidate(t.Term)
		}
		return keywords
	}
	for _, t := range tagged {
		appendCandidate(t.Term)
	}
	return keywords
}
