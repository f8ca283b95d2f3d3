package evaluation

// PageResult is the per-page evaluation output record.
type PageResult struct {
	PageID       string  `json:"page_id"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	SpanMatches  int     `json:"n_span_matches"`
	SpanMisses   int     `json:"n_span_misses"`
	SpanSpurious int     `json:"n_span_spurious"`
	PoemMatches  int     `json:"n_poem_matches"`
	PoemMisses   int     `json:"n_poem_misses"`
	PoemSpurious int     `json:"n_poem_spurious"`
}

// matchCounts tallies reference spans by whether they found a system match,
// at span granularity and at poem (label) granularity.
type matchCounts struct {
	spanMatches int
	spanMisses  int
	poemMatches int
	poemMisses  int
}

// spuriousCounts tallies system spans with no reference correspondence.
type spuriousCounts struct {
	spanSpurious int
	poemSpurious int
}

// Options configures a corpus evaluation run.
type Options struct {
	// IgnoreLabel scores against the label-free merged system spans.
	IgnoreLabel bool

	// PartialMatchWeight downweights partial-overlap credit. Exact matches
	// always score 1. Zero is a legal weight (no partial credit).
	PartialMatchWeight float64

	// Workers bounds the number of pages evaluated concurrently.
	Workers int

	// SkipMissing skips reference pages absent from the system output
	// instead of failing the run.
	SkipMissing bool
}

// DefaultOptions returns the default evaluation options.
func DefaultOptions() Options {
	return Options{
		PartialMatchWeight: 1,
		Workers:            4,
	}
}

// Summary aggregates page results across one run.
type Summary struct {
	PageCount     int     `json:"page_count"`
	MeanPrecision float64 `json:"mean_precision"`
	MeanRecall    float64 `json:"mean_recall"`
	SpanMatches   int     `json:"n_span_matches"`
	SpanMisses    int     `json:"n_span_misses"`
	SpanSpurious  int     `json:"n_span_spurious"`
	PoemMatches   int     `json:"n_poem_matches"`
	PoemMisses    int     `json:"n_poem_misses"`
	PoemSpurious  int     `json:"n_poem_spurious"`
}

// RunResult bundles the per-page results (in reference input order) with the
// run summary.
type RunResult struct {
	Results []PageResult `json:"results"`
	Summary Summary      `json:"summary"`
}
