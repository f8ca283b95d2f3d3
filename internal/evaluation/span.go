// Package evaluation scores system-produced span annotations against a
// curated reference set, page by page.
package evaluation

import (
	"fmt"

	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

// Span is a half-open character interval [Start, End) with an attached label.
// The empty label marks a label-free span. Spans are immutable values; all
// operations are pure.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// NewSpan validates and creates a span. End must strictly exceed Start.
func NewSpan(start, end int, label string) (Span, error) {
	if end <= start {
		return Span{}, apperrors.InvalidRangeError(start, end)
	}
	return Span{Start: start, End: end, Label: label}, nil
}

// Len returns the number of characters the span covers.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("Span(%d, %d, %s)", s.Start, s.End, s.Label)
}

// HasOverlap reports whether the two intervals intersect. Unless ignoreLabel
// is set, spans with different labels never overlap.
func (s Span) HasOverlap(other Span, ignoreLabel bool) bool {
	if !ignoreLabel && s.Label != other.Label {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// IsExactMatch reports whether both bounds are identical and, unless
// ignoreLabel is set, the labels match as well.
func (s Span) IsExactMatch(other Span, ignoreLabel bool) bool {
	if s.Start != other.Start || s.End != other.End {
		return false
	}
	return ignoreLabel || s.Label == other.Label
}

// OverlapLength returns the length of the intersection, or 0 when the spans
// do not overlap.
func (s Span) OverlapLength(other Span, ignoreLabel bool) int {
	if !s.HasOverlap(other, ignoreLabel) {
		return 0
	}
	return min(s.End, other.End) - max(s.Start, other.Start)
}

// OverlapFactor returns the overlap length divided by the longer of the two
// span lengths: 0 when disjoint, 1 when the intervals coincide.
func (s Span) OverlapFactor(other Span, ignoreLabel bool) float64 {
	overlap := s.OverlapLength(other, ignoreLabel)
	if overlap == 0 {
		return 0
	}
	return float64(overlap) / float64(max(s.Len(), other.Len()))
}
