// Package corpus reads page-level span annotation files in JSON Lines format.
package corpus

// Excerpt is a single reference annotation: a labeled character interval.
type Excerpt struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	PoemID string `json:"poem_id"`
}

// ReferencePage is one page's curated reference annotations.
// Excerpts is present iff NumExcerpts > 0.
type ReferencePage struct {
	PageID      string    `json:"page_id"`
	NumExcerpts int       `json:"n_excerpts"`
	Excerpts    []Excerpt `json:"excerpts,omitempty"`
}

// PoemSpan is a single system-detected span on a page.
type PoemSpan struct {
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	RefID     string `json:"ref_id"`
}

// SystemPage is one page's system-produced annotations.
// PoemSpans is present iff NumSpans > 0.
type SystemPage struct {
	PageID    string     `json:"page_id"`
	NumSpans  int        `json:"n_spans"`
	PoemSpans []PoemSpan `json:"poem_spans,omitempty"`
}

func (p ReferencePage) id() string { return p.PageID }
func (p SystemPage) id() string    { return p.PageID }
