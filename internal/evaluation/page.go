package evaluation

import (
	"fmt"
	"sort"

	"github.com/spanscore/spanscore/internal/corpus"
	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

// PageReferenceSpans holds one page's ground-truth spans, sorted by
// (start, end) ascending.
type PageReferenceSpans struct {
	PageID string
	Spans  []Span
}

// NewPageReferenceSpans extracts the reference spans from a page record.
func NewPageReferenceSpans(page corpus.ReferencePage) (*PageReferenceSpans, error) {
	spans := make([]Span, 0, len(page.Excerpts))
	if page.NumExcerpts > 0 {
		for _, ex := range page.Excerpts {
			span, err := NewSpan(ex.Start, ex.End, ex.PoemID)
			if err != nil {
				return nil, wrapPageError(page.PageID, err)
			}
			spans = append(spans, span)
		}
	}
	sortSpans(spans)

	return &PageReferenceSpans{PageID: page.PageID, Spans: spans}, nil
}

// PageSystemSpans holds one page's system-produced spans. LabeledSpans keeps
// the detector's labels; UnlabeledSpans is the label-free view with all
// overlapping (but not adjacent) spans merged.
type PageSystemSpans struct {
	PageID         string
	LabeledSpans   []Span
	UnlabeledSpans []Span
}

// NewPageSystemSpans extracts the system spans from a page record and derives
// the label-free merged view.
func NewPageSystemSpans(page corpus.SystemPage) (*PageSystemSpans, error) {
	spans := make([]Span, 0, len(page.PoemSpans))
	if page.NumSpans > 0 {
		for _, ps := range page.PoemSpans {
			span, err := NewSpan(ps.PageStart, ps.PageEnd, ps.RefID)
			if err != nil {
				return nil, wrapPageError(page.PageID, err)
			}
			spans = append(spans, span)
		}
	}
	sortSpans(spans)

	return &PageSystemSpans{
		PageID:         page.PageID,
		LabeledSpans:   spans,
		UnlabeledSpans: mergeUnlabeled(spans),
	}, nil
}

// mergeUnlabeled folds the sorted labeled spans into label-free intervals.
// A single left-to-right pass: the accumulator grows while spans overlap it
// and is emitted on each break. Adjacent spans are not merged. O(n) given
// sorted input.
func mergeUnlabeled(labeled []Span) []Span {
	if len(labeled) == 0 {
		return nil
	}

	merged := make([]Span, 0, len(labeled))
	current := Span{Start: labeled[0].Start, End: labeled[0].End}
	for _, s := range labeled[1:] {
		if s.Start < current.End {
			if s.End > current.End {
				current.End = s.End
			}
			continue
		}
		merged = append(merged, current)
		current = Span{Start: s.Start, End: s.End}
	}

	return append(merged, current)
}

// sortSpans orders spans primarily by start and secondarily by end index.
// The sort is stable so spans with identical bounds keep their input order.
func sortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}

func wrapPageError(pageID string, err error) error {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.WithDetail("page_id", pageID)
	}
	return apperrors.InternalError(fmt.Sprintf("page %s", pageID), err)
}
