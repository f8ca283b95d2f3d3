package evaluation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spanscore/spanscore/internal/bus"
	"github.com/spanscore/spanscore/internal/corpus"
	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
	"github.com/spanscore/spanscore/internal/pkg/logger"
)

// Evaluator scores a corpus of system pages against reference pages.
type Evaluator struct {
	opts Options
	log  *logger.Logger
	bus  bus.Bus
}

// NewEvaluator creates a corpus evaluator. eventBus may be nil to disable
// event publishing.
func NewEvaluator(opts Options, log *logger.Logger, eventBus bus.Bus) *Evaluator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.Default()
	}

	return &Evaluator{
		opts: opts,
		log:  log,
		bus:  eventBus,
	}
}

// Run evaluates every reference page against the matching system page and
// returns per-page results in reference input order, plus the run summary.
//
// A reference page with no system counterpart fails the run unless
// SkipMissing is set, in which case it is logged and left out of the results.
// System pages with no reference counterpart are ignored.
func (e *Evaluator) Run(ctx context.Context, refPages []corpus.ReferencePage, sysPages []corpus.SystemPage) (*RunResult, error) {
	sysByID := make(map[string]corpus.SystemPage, len(sysPages))
	for _, page := range sysPages {
		sysByID[page.PageID] = page
	}

	// Slots indexed by reference position keep the output deterministic
	// regardless of completion order. Skipped pages leave a nil slot.
	slots := make([]*PageResult, len(refPages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, refPage := range refPages {
		sysPage, ok := sysByID[refPage.PageID]
		if !ok {
			if e.opts.SkipMissing {
				e.log.WithPage(refPage.PageID).Warn("no system spans for page, skipping")
				continue
			}
			return nil, apperrors.PageNotFoundError(refPage.PageID)
		}

		g.Go(func() error {
			result, err := e.evaluatePage(refPage, sysPage)
			if err != nil {
				return err
			}
			slots[i] = result
			return e.publishPage(gctx, *result)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]PageResult, 0, len(slots))
	for _, result := range slots {
		if result != nil {
			results = append(results, *result)
		}
	}

	run := &RunResult{
		Results: results,
		Summary: Summarize(results),
	}

	if err := e.publishRun(ctx, run.Summary); err != nil {
		return nil, err
	}

	e.log.Info("evaluation run completed",
		"pages", run.Summary.PageCount,
		"mean_precision", run.Summary.MeanPrecision,
		"mean_recall", run.Summary.MeanRecall)

	return run, nil
}

// EvaluatePage scores a single reference/system page pair.
func (e *Evaluator) EvaluatePage(refPage corpus.ReferencePage, sysPage corpus.SystemPage) (*PageResult, error) {
	return e.evaluatePage(refPage, sysPage)
}

func (e *Evaluator) evaluatePage(refPage corpus.ReferencePage, sysPage corpus.SystemPage) (*PageResult, error) {
	ref, err := NewPageReferenceSpans(refPage)
	if err != nil {
		return nil, err
	}
	sys, err := NewPageSystemSpans(sysPage)
	if err != nil {
		return nil, err
	}

	pe, err := NewPageEvaluation(ref, sys, e.opts.IgnoreLabel)
	if err != nil {
		return nil, err
	}

	result := pe.Evaluate(e.opts.PartialMatchWeight)
	e.log.WithPage(result.PageID).Debug("page evaluated",
		"precision", result.Precision,
		"recall", result.Recall)

	return &result, nil
}

// Summarize aggregates page results into a run summary. Precision and recall
// are arithmetic means over pages; the counts are totals. An empty result set
// yields the zero summary.
func Summarize(results []PageResult) Summary {
	var s Summary
	if len(results) == 0 {
		return s
	}

	for _, r := range results {
		s.MeanPrecision += r.Precision
		s.MeanRecall += r.Recall
		s.SpanMatches += r.SpanMatches
		s.SpanMisses += r.SpanMisses
		s.SpanSpurious += r.SpanSpurious
		s.PoemMatches += r.PoemMatches
		s.PoemMisses += r.PoemMisses
		s.PoemSpurious += r.PoemSpurious
	}
	s.PageCount = len(results)
	s.MeanPrecision /= float64(s.PageCount)
	s.MeanRecall /= float64(s.PageCount)

	return s
}

func (e *Evaluator) publishPage(ctx context.Context, result PageResult) error {
	if e.bus == nil {
		return nil
	}
	return e.bus.Publish(ctx, bus.TopicPageEvaluated, newEvent(bus.TopicPageEvaluated, result))
}

func (e *Evaluator) publishRun(ctx context.Context, summary Summary) error {
	if e.bus == nil {
		return nil
	}
	return e.bus.Publish(ctx, bus.TopicRunCompleted, newEvent(bus.TopicRunCompleted, summary))
}

func newEvent(eventType string, payload any) bus.Event {
	now := time.Now()
	return bus.Event{
		ID:        fmt.Sprintf("%s-%d", eventType, now.UnixNano()),
		Type:      eventType,
		Source:    "evaluator",
		Timestamp: now.UnixNano(),
		Payload:   payload,
	}
}
