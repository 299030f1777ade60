package playlist

import "net/url"

type Kind int

const (
	KindEmpty Kind = iota
	KindSegmentList
	KindVariantIndex
)

func (k Kind) String() string {
	switch k {
	case KindSegmentList:
		return "segment_list"
	case KindVariantIndex:
		return "variant_index"
	default:
		return "empty"
	}
}

// SegmentRef is one media chunk. Ordinal is its 0-based playback position.
type SegmentRef struct {
	URL     url.URL
	Ordinal int
}

// VariantRef is one alternate-quality sub-manifest. ResolutionLabel is
// "<width>x<height>" when the directive carried one, else empty.
type VariantRef struct {
	URL             url.URL
	ResolutionLabel string
}

// DroppedLine is a line the parser could not use. Line is 1-based.
type DroppedLine struct {
	Line   int
	Text   string
	Reason string
}

// Manifest is the typed result of one parse. When Kind is not KindEmpty,
// exactly one of Segments or Variants is non-empty. Variants keep manifest
// order; use Best for the selected one.
type Manifest struct {
	SourceURL       url.URL
	Kind            Kind
	Segments        []SegmentRef
	Variants        []VariantRef
	ResolutionLabel string
	Dropped         []DroppedLine
}

// Best returns the selected variant of a variant index.
func (m Manifest) Best() (VariantRef, bool) {
	if m.Kind != KindVariantIndex {
		return VariantRef{}, false
	}
	return SelectBest(m.Variants)
}
