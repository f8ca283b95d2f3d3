package evaluation

import (
	"reflect"
	"testing"

	"github.com/spanscore/spanscore/internal/corpus"
	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

func TestNewPageReferenceSpans_SortsByStartThenEnd(t *testing.T) {
	page := corpus.ReferencePage{
		PageID:      "p1",
		NumExcerpts: 4,
		Excerpts: []corpus.Excerpt{
			{Start: 0, End: 5, PoemID: "c"},
			{Start: 3, End: 4, PoemID: "a"},
			{Start: 1, End: 8, PoemID: "b"},
			{Start: 1, End: 3, PoemID: "c"},
		},
	}

	ref, err := NewPageReferenceSpans(page)
	if err != nil {
		t.Fatalf("NewPageReferenceSpans() error = %v", err)
	}

	want := []Span{
		{Start: 0, End: 5, Label: "c"},
		{Start: 1, End: 3, Label: "c"},
		{Start: 1, End: 8, Label: "b"},
		{Start: 3, End: 4, Label: "a"},
	}
	if !reflect.DeepEqual(ref.Spans, want) {
		t.Errorf("Spans = %v, want %v", ref.Spans, want)
	}
}

func TestNewPageReferenceSpans_Empty(t *testing.T) {
	ref, err := NewPageReferenceSpans(corpus.ReferencePage{PageID: "p1", NumExcerpts: 0})
	if err != nil {
		t.Fatalf("NewPageReferenceSpans() error = %v", err)
	}
	if len(ref.Spans) != 0 {
		t.Errorf("Spans = %v, want empty", ref.Spans)
	}
}

func TestNewPageReferenceSpans_InvalidSpan(t *testing.T) {
	page := corpus.ReferencePage{
		PageID:      "p1",
		NumExcerpts: 1,
		Excerpts:    []corpus.Excerpt{{Start: 5, End: 5, PoemID: "a"}},
	}

	_, err := NewPageReferenceSpans(page)
	if err == nil {
		t.Fatal("NewPageReferenceSpans() should fail on an empty interval")
	}
	if !apperrors.IsInvalidRange(err) {
		t.Errorf("error = %v, want INVALID_RANGE", err)
	}
	appErr := err.(*apperrors.AppError)
	if appErr.Details["page_id"] != "p1" {
		t.Errorf("page_id detail = %q, want p1", appErr.Details["page_id"])
	}
}

func TestNewPageSystemSpans_MergesUnlabeled(t *testing.T) {
	page := corpus.SystemPage{
		PageID:   "p1",
		NumSpans: 5,
		PoemSpans: []corpus.PoemSpan{
			{PageStart: 0, PageEnd: 1, RefID: "a"},
			{PageStart: 1, PageEnd: 4, RefID: "a"},
			{PageStart: 2, PageEnd: 3, RefID: "b"},
			{PageStart: 3, PageEnd: 5, RefID: "d"},
			{PageStart: 9, PageEnd: 10, RefID: "a"},
		},
	}

	sys, err := NewPageSystemSpans(page)
	if err != nil {
		t.Fatalf("NewPageSystemSpans() error = %v", err)
	}

	if len(sys.LabeledSpans) != 5 {
		t.Fatalf("LabeledSpans = %v, want 5 spans", sys.LabeledSpans)
	}

	// [1,4) absorbs [2,3) and chains into [3,5); [0,1) is adjacent, not merged.
	want := []Span{
		{Start: 0, End: 1},
		{Start: 1, End: 5},
		{Start: 9, End: 10},
	}
	if !reflect.DeepEqual(sys.UnlabeledSpans, want) {
		t.Errorf("UnlabeledSpans = %v, want %v", sys.UnlabeledSpans, want)
	}
}

func TestNewPageSystemSpans_Empty(t *testing.T) {
	sys, err := NewPageSystemSpans(corpus.SystemPage{PageID: "p1", NumSpans: 0})
	if err != nil {
		t.Fatalf("NewPageSystemSpans() error = %v", err)
	}
	if len(sys.LabeledSpans) != 0 || len(sys.UnlabeledSpans) != 0 {
		t.Errorf("spans = %v / %v, want empty", sys.LabeledSpans, sys.UnlabeledSpans)
	}
}

func TestMergeUnlabeled_SingleSpan(t *testing.T) {
	got := mergeUnlabeled([]Span{{Start: 2, End: 6, Label: "a"}})
	want := []Span{{Start: 2, End: 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeUnlabeled() = %v, want %v", got, want)
	}
}
