package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spanscore/spanscore/internal/evaluation"
)

func TestWriteCSV(t *testing.T) {
	results := []evaluation.PageResult{
		{
			PageID:      "a",
			Precision:   1,
			Recall:      1,
			SpanMatches: 0, SpanMisses: 0, SpanSpurious: 0,
			PoemMatches: 0, PoemMisses: 0, PoemSpurious: 0,
		},
		{
			PageID:      "b",
			Precision:   2.0 / 3,
			Recall:      0.5,
			SpanMatches: 1, SpanMisses: 1, SpanSpurious: 1,
			PoemMatches: 1, PoemMisses: 1, PoemSpurious: 1,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := strings.Join([]string{
		"page_id,precision,recall,n_span_matches,n_span_misses,n_span_spurious,n_poem_matches,n_poem_misses,n_poem_spurious",
		"a,1,1,0,0,0,0,0,0",
		"b,0.6666666666666666,0.5,1,1,1,1,1,1",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("got %d lines, want header only", len(lines))
	}
}

func TestWriteJSONL(t *testing.T) {
	results := []evaluation.PageResult{
		{PageID: "p1", Precision: 1, Recall: 0.5, SpanMatches: 1, SpanMisses: 1},
		{PageID: "p2", Precision: 0, Recall: 0},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, results); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"page_id":"p1"`) {
		t.Errorf("first line missing page id: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"recall":0.5`) {
		t.Errorf("first line missing recall: %s", lines[0])
	}
}

func TestFormatSummary(t *testing.T) {
	s := evaluation.Summary{
		PageCount:     3,
		MeanPrecision: 0.123456,
		MeanRecall:    1,
	}

	got := FormatSummary(s)
	want := "Overall: 3 Pages | Precision = 0.1235 | Recall = 1"
	if got != want {
		t.Errorf("FormatSummary() = %q, want %q", got, want)
	}
}
