// Package report renders evaluation results for files and terminals.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spanscore/spanscore/internal/evaluation"
)

// csvHeader is the per-page CSV column order.
var csvHeader = []string{
	"page_id",
	"precision",
	"recall",
	"n_span_matches",
	"n_span_misses",
	"n_span_spurious",
	"n_poem_matches",
	"n_poem_misses",
	"n_poem_spurious",
}

// WriteCSV writes per-page results as CSV with a header row.
func WriteCSV(w io.Writer, results []evaluation.PageResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.PageID,
			formatFloat(r.Precision),
			formatFloat(r.Recall),
			strconv.Itoa(r.SpanMatches),
			strconv.Itoa(r.SpanMisses),
			strconv.Itoa(r.SpanSpurious),
			strconv.Itoa(r.PoemMatches),
			strconv.Itoa(r.PoemMisses),
			strconv.Itoa(r.PoemSpurious),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record for page %s: %w", r.PageID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes per-page results as JSON Lines, one result per line.
func WriteJSONL(w io.Writer, results []evaluation.PageResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("writing result for page %s: %w", r.PageID, err)
		}
	}
	return nil
}

// FormatSummary renders the one-line run summary.
func FormatSummary(s evaluation.Summary) string {
	return fmt.Sprintf("Overall: %d Pages | Precision = %.4g | Recall = %.4g",
		s.PageCount, s.MeanPrecision, s.MeanRecall)
}

// formatFloat renders a score with the shortest exact decimal representation,
// so 1.0 prints as "1" and 2.0/3 keeps full precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
