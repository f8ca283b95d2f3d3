package evaluation

import (
	"testing"

	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

func mustSpan(t *testing.T, start, end int, label string) Span {
	t.Helper()
	s, err := NewSpan(start, end, label)
	if err != nil {
		t.Fatalf("NewSpan(%d, %d, %s) error = %v", start, end, label, err)
	}
	return s
}

func TestNewSpan_InvalidRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"end equals start", 3, 3},
		{"end before start", 5, 2},
		{"zero length at origin", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpan(tt.start, tt.end, "a")
			if err == nil {
				t.Fatalf("NewSpan(%d, %d) should fail", tt.start, tt.end)
			}
			if !apperrors.IsInvalidRange(err) {
				t.Errorf("error = %v, want INVALID_RANGE", err)
			}
		})
	}
}

func TestSpan_Len(t *testing.T) {
	if got := mustSpan(t, 2, 7, "a").Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
}

func TestSpan_HasOverlap(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Span
		ignoreLabel bool
		want        bool
	}{
		{"identical", Span{0, 5, "a"}, Span{0, 5, "a"}, false, true},
		{"partial overlap", Span{0, 5, "a"}, Span{3, 8, "a"}, false, true},
		{"contained", Span{0, 10, "a"}, Span{2, 4, "a"}, false, true},
		{"adjacent", Span{0, 5, "a"}, Span{5, 8, "a"}, false, false},
		{"disjoint", Span{0, 3, "a"}, Span{7, 9, "a"}, false, false},
		{"label mismatch blocks", Span{0, 5, "a"}, Span{0, 5, "b"}, false, false},
		{"label mismatch ignored", Span{0, 5, "a"}, Span{0, 5, "b"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.HasOverlap(tt.b, tt.ignoreLabel); got != tt.want {
				t.Errorf("HasOverlap(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.HasOverlap(tt.a, tt.ignoreLabel); got != tt.want {
				t.Errorf("HasOverlap(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestSpan_IsExactMatch(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Span
		ignoreLabel bool
		want        bool
	}{
		{"same bounds same label", Span{1, 4, "a"}, Span{1, 4, "a"}, false, true},
		{"same bounds different label", Span{1, 4, "a"}, Span{1, 4, "b"}, false, false},
		{"same bounds label ignored", Span{1, 4, "a"}, Span{1, 4, "b"}, true, true},
		{"different end", Span{1, 4, "a"}, Span{1, 5, "a"}, false, false},
		{"different start", Span{1, 4, "a"}, Span{0, 4, "a"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IsExactMatch(tt.b, tt.ignoreLabel); got != tt.want {
				t.Errorf("IsExactMatch(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSpan_OverlapLength(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Span
		ignoreLabel bool
		want        int
	}{
		{"identical", Span{0, 5, "a"}, Span{0, 5, "a"}, false, 5},
		{"partial", Span{0, 5, "a"}, Span{3, 8, "a"}, false, 2},
		{"contained", Span{0, 10, "a"}, Span{2, 4, "a"}, false, 2},
		{"disjoint", Span{0, 3, "a"}, Span{5, 9, "a"}, false, 0},
		{"label mismatch", Span{0, 5, "a"}, Span{0, 5, "b"}, false, 0},
		{"label ignored", Span{0, 5, "a"}, Span{3, 8, "b"}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapLength(tt.b, tt.ignoreLabel); got != tt.want {
				t.Errorf("OverlapLength(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSpan_OverlapProperties(t *testing.T) {
	// Exhaustive check over a small interval domain: overlap factor is zero
	// exactly when there is no overlap, factor is symmetric, and overlap
	// length never exceeds the shorter span.
	var spans []Span
	for start := 0; start < 6; start++ {
		for end := start + 1; end <= 6; end++ {
			spans = append(spans, Span{Start: start, End: end, Label: "x"})
		}
	}

	for _, a := range spans {
		for _, b := range spans {
			factor := a.OverlapFactor(b, false)
			if (factor == 0) != !a.HasOverlap(b, false) {
				t.Errorf("factor/overlap disagree for %v, %v: factor=%v overlap=%v",
					a, b, factor, a.HasOverlap(b, false))
			}
			if got := b.OverlapFactor(a, false); got != factor {
				t.Errorf("OverlapFactor not symmetric for %v, %v: %v vs %v", a, b, factor, got)
			}
			if factor < 0 || factor > 1 {
				t.Errorf("OverlapFactor(%v, %v) = %v out of [0, 1]", a, b, factor)
			}
			if length := a.OverlapLength(b, false); length > min(a.Len(), b.Len()) {
				t.Errorf("OverlapLength(%v, %v) = %d exceeds shorter span", a, b, length)
			}
		}
	}
}

func TestSpan_OverlapFactor(t *testing.T) {
	tests := []struct {
		name        string
		a, b        Span
		ignoreLabel bool
		want        float64
	}{
		{"identical", Span{0, 4, "a"}, Span{0, 4, "a"}, false, 1},
		{"half over longer", Span{0, 4, "a"}, Span{2, 6, "a"}, false, 0.5},
		{"contained quarter", Span{0, 8, "a"}, Span{0, 2, "a"}, false, 0.25},
		{"disjoint", Span{0, 4, "a"}, Span{6, 8, "a"}, false, 0},
		{"label mismatch", Span{0, 4, "a"}, Span{0, 4, "b"}, false, 0},
		{"label ignored", Span{0, 4, "a"}, Span{0, 4, "b"}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapFactor(tt.b, tt.ignoreLabel); got != tt.want {
				t.Errorf("OverlapFactor(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.OverlapFactor(tt.a, tt.ignoreLabel); got != tt.want {
				t.Errorf("OverlapFactor(%v, %v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
