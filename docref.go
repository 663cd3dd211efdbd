package shelfdex

import "strings"

// Kind tags the application entity a document id refers to. The engine
// itself treats ids as opaque; DocRef gives embedding applications a typed
// way to multiplex several entity kinds into one index instead of switching
// on runtime types.
type Kind string

const (
	KindProduct  Kind = "product"
	KindManual   Kind = "manual"
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
)

// DocRef is a typed document reference: the entity kind plus the entity's
// own identifier.
type DocRef struct {
	Kind Kind
	ID   string
}

// String encodes the reference as "kind:id", suitable for use as an index
// document id.
func (r DocRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// ParseDocRef decodes a "kind:id" document id. Ids without a kind prefix
// come back with an empty Kind and the input as ID.
func ParseDocRef(s string) DocRef {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return DocRef{ID: s}
	}
	return DocRef{Kind: Kind(kind), ID: id}
}
