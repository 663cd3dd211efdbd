package shelfdex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocRefRoundTrip(t *testing.T) {
	ref := DocRef{Kind: KindProduct, ID: "42"}
	assert.Equal(t, "product:42", ref.String())
	assert.Equal(t, ref, ParseDocRef("product:42"))
}

func TestParseDocRefWithoutKind(t *testing.T) {
	ref := ParseDocRef("plain-id")
	assert.Equal(t, DocRef{ID: "plain-id"}, ref)
}

func TestParseDocRefKeepsColonsInID(t *testing.T) {
	ref := ParseDocRef("manual:shelf:3")
	assert.Equal(t, KindManual, ref.Kind)
	assert.Equal(t, "shelf:3", ref.ID)
}
