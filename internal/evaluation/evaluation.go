package evaluation

import (
	"fmt"

	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

// noMatch marks a reference span with no corresponding system span.
const noMatch = -1

// SpanPair pairs a reference span with the system span (or subspan of it)
// that it is scored against.
type SpanPair struct {
	Reference Span
	System    Span
}

// PageEvaluation aligns one page's reference and system spans and scores the
// alignment. It is a pure, page-scoped computation: constructed once from
// immutable inputs and never mutated afterwards.
type PageEvaluation struct {
	pageID      string
	ignoreLabel bool
	refSpans    []Span
	sysSpans    []Span
	refToSys    []int   // per reference span: index into sysSpans, or noMatch
	sysToRefs   [][]int // per system span: claiming reference span indices
	spanPairs   []SpanPair
}

// NewPageEvaluation builds the alignment between a page's reference and
// system spans. The two views must describe the same page, and the reference
// spans must be interval-disjoint; either violation is an error.
//
// With ignoreLabel set the label-free merged system spans are scored instead
// of the labeled ones.
func NewPageEvaluation(ref *PageReferenceSpans, sys *PageSystemSpans, ignoreLabel bool) (*PageEvaluation, error) {
	if ref.PageID != sys.PageID {
		return nil, apperrors.PageMismatchError(ref.PageID, sys.PageID)
	}
	if err := checkDisjoint(ref.PageID, ref.Spans); err != nil {
		return nil, err
	}

	sysSpans := sys.LabeledSpans
	if ignoreLabel {
		sysSpans = sys.UnlabeledSpans
	}

	pe := &PageEvaluation{
		pageID:      ref.PageID,
		ignoreLabel: ignoreLabel,
		refSpans:    ref.Spans,
		sysSpans:    sysSpans,
	}
	pe.refToSys, pe.sysToRefs = spanMappings(pe.refSpans, pe.sysSpans, ignoreLabel)
	pe.spanPairs = buildSpanPairs(pe.refSpans, pe.sysSpans, pe.sysToRefs)

	return pe, nil
}

// PageID returns the id of the evaluated page.
func (pe *PageEvaluation) PageID() string {
	return pe.pageID
}

// checkDisjoint verifies that the sorted reference spans do not overlap each
// other interval-wise (labels disregarded). Disjoint reference spans
// guarantee that system-span splitting always produces a valid tiling.
func checkDisjoint(pageID string, sorted []Span) error {
	maxEnd := 0
	for i, s := range sorted {
		if i > 0 && s.Start < maxEnd {
			return apperrors.ValidationError(
				fmt.Sprintf("page %s: reference spans must not overlap, span %s starts before offset %d", pageID, s, maxEnd))
		}
		if s.End > maxEnd {
			maxEnd = s.End
		}
	}
	return nil
}

// spanMappings assigns each reference span to at most one system span: the
// one with the highest overlap factor, earliest seen winning ties. The
// reverse mapping collects, per system span, every reference span that chose
// it. O(|ref| x |sys|), fine at page scale.
func spanMappings(refSpans, sysSpans []Span, ignoreLabel bool) ([]int, [][]int) {
	refToSys := make([]int, len(refSpans))
	sysToRefs := make([][]int, len(sysSpans))

	for i, refSpan := range refSpans {
		best := noMatch
		bestOverlap := 0.0
		for j, sysSpan := range sysSpans {
			// Strict > keeps the first-seen maximal match.
			if overlap := refSpan.OverlapFactor(sysSpan, ignoreLabel); overlap > bestOverlap {
				best = j
				bestOverlap = overlap
			}
		}
		refToSys[i] = best
		if best != noMatch {
			sysToRefs[best] = append(sysToRefs[best], i)
		}
	}

	return refToSys, sysToRefs
}

// buildSpanPairs converts the mapping into scorable (reference, system)
// pairs. A system span claimed by a single reference span pairs unchanged.
// A span claimed by k > 1 reference spans r_1..r_k (in start order) is split
// into k contiguous subspans with boundaries
//
//	[s.start, r_2.start), [r_2.start, r_3.start), ..., [r_k.start, s.end)
//
// which tile the system span exactly. Unclaimed system spans are spurious and
// contribute no pair.
func buildSpanPairs(refSpans, sysSpans []Span, sysToRefs [][]int) []SpanPair {
	var pairs []SpanPair
	for j, refIDs := range sysToRefs {
		sysSpan := sysSpans[j]
		if len(refIDs) == 1 {
			pairs = append(pairs, SpanPair{Reference: refSpans[refIDs[0]], System: sysSpan})
			continue
		}
		for i, refID := range refIDs {
			start := sysSpan.Start
			if i > 0 {
				start = refSpans[refID].Start
			}
			end := sysSpan.End
			if i < len(refIDs)-1 {
				end = refSpans[refIDs[i+1]].Start
			}
			// Disjoint reference spans guarantee start < end here.
			sub := Span{Start: start, End: end, Label: sysSpan.Label}
			pairs = append(pairs, SpanPair{Reference: refSpans[refID], System: sub})
		}
	}
	return pairs
}

// relevanceScore is the effective number of relevant spans retrieved: exact
// matches score 1, partial matches score the overlap factor scaled by
// partialMatchWeight.
func relevanceScore(pairs []SpanPair, ignoreLabel bool, partialMatchWeight float64) float64 {
	score := 0.0
	for _, pair := range pairs {
		if pair.Reference.IsExactMatch(pair.System, ignoreLabel) {
			score++
		} else {
			score += partialMatchWeight * pair.Reference.OverlapFactor(pair.System, ignoreLabel)
		}
	}
	return score
}

// retrievedCount is the number of (possibly split) system spans retrieved:
// each subspan of a matched span counts once, each spurious span counts once.
func retrievedCount(sysToRefs [][]int) int {
	n := 0
	for _, refIDs := range sysToRefs {
		if len(refIDs) > 0 {
			n += len(refIDs)
		} else {
			n++
		}
	}
	return n
}

// Precision is the relevance score over the retrieved count. Edge case: with
// no system spans, precision is 1 when there are also no reference spans and
// 0 otherwise.
func (pe *PageEvaluation) Precision(partialMatchWeight float64) float64 {
	if len(pe.sysSpans) == 0 {
		if len(pe.refSpans) == 0 {
			return 1
		}
		return 0
	}

	score := relevanceScore(pe.spanPairs, pe.ignoreLabel, partialMatchWeight)
	return score / float64(retrievedCount(pe.sysToRefs))
}

// Recall is the relevance score over the reference span count. Edge case:
// with no reference spans, recall is 1 when there are also no system spans
// and 0 otherwise.
func (pe *PageEvaluation) Recall(partialMatchWeight float64) float64 {
	if len(pe.refSpans) == 0 {
		if len(pe.sysSpans) == 0 {
			return 1
		}
		return 0
	}

	score := relevanceScore(pe.spanPairs, pe.ignoreLabel, partialMatchWeight)
	return score / float64(len(pe.refSpans))
}

// matchCounts tallies matched and missed reference spans. At the poem level a
// label counts as matched when any of its spans matched, and as missed only
// when none did.
func (pe *PageEvaluation) matchCounts() matchCounts {
	var counts matchCounts
	matched := make(map[string]struct{})
	unmatched := make(map[string]struct{})

	for i, span := range pe.refSpans {
		if pe.refToSys[i] == noMatch {
			counts.spanMisses++
			unmatched[span.Label] = struct{}{}
		} else {
			counts.spanMatches++
			matched[span.Label] = struct{}{}
		}
	}

	counts.poemMatches = len(matched)
	for label := range unmatched {
		if _, ok := matched[label]; !ok {
			counts.poemMisses++
		}
	}

	return counts
}

// spuriousCounts tallies system spans with no reference correspondence. A
// spurious span's label counts at the poem level only when that label never
// appears among the reference spans.
func (pe *PageEvaluation) spuriousCounts() spuriousCounts {
	var counts spuriousCounts

	refLabels := make(map[string]struct{}, len(pe.refSpans))
	for _, span := range pe.refSpans {
		refLabels[span.Label] = struct{}{}
	}

	spuriousLabels := make(map[string]struct{})
	for j, refIDs := range pe.sysToRefs {
		if len(refIDs) > 0 {
			continue
		}
		counts.spanSpurious++
		label := pe.sysSpans[j].Label
		if _, ok := refLabels[label]; !ok {
			spuriousLabels[label] = struct{}{}
		}
	}
	counts.poemSpurious = len(spuriousLabels)

	return counts
}

// Evaluate computes the full per-page result record.
func (pe *PageEvaluation) Evaluate(partialMatchWeight float64) PageResult {
	mc := pe.matchCounts()
	sc := pe.spuriousCounts()

	return PageResult{
		PageID:       pe.pageID,
		Precision:    pe.Precision(partialMatchWeight),
		Recall:       pe.Recall(partialMatchWeight),
		SpanMatches:  mc.spanMatches,
		SpanMisses:   mc.spanMisses,
		SpanSpurious: sc.spanSpurious,
		PoemMatches:  mc.poemMatches,
		PoemMisses:   mc.poemMisses,
		PoemSpurious: sc.poemSpurious,
	}
}
