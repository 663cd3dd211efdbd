package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantsDeletionsAndSwaps(t *testing.T) {
	got := Variants("book")
	assert.ElementsMatch(t, []string{"ook", "bok", "boo", "obok", "boko"}, got)
}

func TestVariantsExcludesSelfAndShort(t *testing.T) {
	assert.Empty(t, Variants("x"))
	assert.Empty(t, Variants(""))

	// Deletions of a two-rune term are single runes and get dropped, so
	// only the swap survives.
	assert.Equal(t, []string{"ba"}, Variants("ab"))
	assert.NotContains(t, Variants("widget"), "widget")
}

func TestVariantsSkipsNoopSwaps(t *testing.T) {
	// Swapping two equal runes reproduces the term; those are filtered.
	got := Variants("aa")
	assert.Empty(t, got)
}

func TestVariantsRuneSafe(t *testing.T) {
	got := Variants("héllo")
	assert.Contains(t, got, "éhllo")
	assert.Contains(t, got, "hllo")
	for _, v := range got {
		assert.True(t, len([]rune(v)) >= 2)
	}
}

func TestVariantsCoverCommonTypo(t *testing.T) {
	assert.Contains(t, Variants("wdiget"), "widget")
}
