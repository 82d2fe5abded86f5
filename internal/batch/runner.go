package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/cue"
	"github.com/dotcommander/assess/internal/discovery"
)

// Item is the outcome of scoring one submission document.
type Item struct {
	File           string                 `json:"file"`
	AssessmentType string                 `json:"assessment_type"`
	Evaluation     *assessment.Evaluation `json:"evaluation,omitempty"`
	Issues         []cue.ValidationError  `json:"issues,omitempty"`
	Err            error                  `json:"-"`
	Duration       time.Duration          `json:"-"`
}

// Failed reports whether the document could not be scored at all.
func (it Item) Failed() bool {
	return it.Err != nil || it.Evaluation == nil
}

// Degraded reports whether the document scored with fallbacks or schema errors.
func (it Item) Degraded() bool {
	if it.Failed() {
		return false
	}
	return !it.Evaluation.Valid || cue.HasErrors(it.Issues)
}

// Summary aggregates a scoring run.
type Summary struct {
	Root      string         `json:"root,omitempty"`
	StartTime time.Time      `json:"-"`
	Duration  time.Duration  `json:"-"`
	Items     []Item         `json:"items"`
	Total     int            `json:"total"`
	Scored    int            `json:"scored"`
	Degraded  int            `json:"degraded"`
	Failed    int            `json:"failed"`
	ByType    map[string]int `json:"by_type"`
	ByPrimary map[string]int `json:"by_primary"`
}

// Runner scores submissions with bounded parallelism.
type Runner struct {
	engine    *assessment.Engine
	validator *cue.Validator
	workers   int
	logger    *zap.Logger
	forceType string
}

// Option configures a Runner.
type Option func(*Runner)

// WithValidator enables CUE validation of every submission.
func WithValidator(v *cue.Validator) Option {
	return func(r *Runner) {
		r.validator = v
	}
}

// WithWorkers bounds the number of documents scored at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithAssessmentType scores every document as the given type, ignoring the
// type each document declares.
func WithAssessmentType(t string) Option {
	return func(r *Runner) {
		r.forceType = t
	}
}

// WithLogger sets the run logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner around an engine.
func NewRunner(engine *assessment.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  engine,
		workers: 1,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ScoreDocument decodes, optionally validates, and scores one document. It never
// returns an error: decode failures are recorded on the item.
func (r *Runner) ScoreDocument(name string, data []byte) Item {
	start := time.Now()
	item := Item{File: name}

	sub, err := assessment.DecodeSubmission(name, data)
	if err != nil {
		item.Err = err
		item.Duration = time.Since(start)
		return item
	}
	if r.forceType != "" {
		sub.AssessmentType = r.forceType
	}
	item.AssessmentType = sub.AssessmentType

	if r.validator != nil {
		issues, err := r.validator.ValidateSubmission(name, sub)
		if err != nil {
			item.Err = fmt.Errorf("error validating %s: %w", name, err)
			item.Duration = time.Since(start)
			return item
		}
		item.Issues = issues
	}

	ev := r.engine.Evaluate(sub.AssessmentType, sub.Responses)
	item.Evaluation = &ev
	item.Duration = time.Since(start)
	return item
}

// Run scores every file. Items are reported in input order regardless of which
// finished first. Only context cancellation stops a run early.
func (r *Runner) Run(ctx context.Context, files []discovery.File) (*Summary, error) {
	summary := &Summary{
		StartTime: time.Now(),
		Items:     make([]Item, len(files)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, f := range files {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := r.ScoreDocument(f.RelPath, f.Contents)
			if item.Err != nil {
				r.logger.Warn("submission not scored", zap.String("file", f.RelPath), zap.Error(item.Err))
			} else {
				r.logger.Debug("submission scored",
					zap.String("file", f.RelPath),
					zap.String("primary", item.Evaluation.Result.PrimaryResult),
					zap.Duration("duration", item.Duration))
			}
			summary.Items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch scoring interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch scoring interrupted: %w", err)
	}

	summary.tally()
	summary.Duration = time.Since(summary.StartTime)
	return summary, nil
}

// NewSummary builds a summary from already-scored items.
func NewSummary(items ...Item) *Summary {
	s := &Summary{StartTime: time.Now(), Items: items}
	s.tally()
	return s
}

func (s *Summary) tally() {
	s.Total = len(s.Items)
	s.Scored, s.Degraded, s.Failed = 0, 0, 0
	s.ByType = make(map[string]int)
	s.ByPrimary = make(map[string]int)
	for _, it := range s.Items {
		if it.Failed() {
			s.Failed++
			continue
		}
		s.Scored++
		if it.Degraded() {
			s.Degraded++
		}
		res := it.Evaluation.Result
		s.ByType[res.AssessmentType]++
		s.ByPrimary[res.AssessmentType+"/"+res.PrimaryResult]++
	}
}

// ErrDegraded is returned by Check when strict mode rejects a run.
var ErrDegraded = errors.New("one or more submissions were scored with fallbacks")

// Check applies the exit policy: failures are always errors, degraded results only
// in strict mode.
func (s *Summary) Check(strict bool) error {
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d submissions could not be scored", s.Failed, s.Total)
	}
	if strict && s.Degraded > 0 {
		return fmt.Errorf("%w (%d of %d)", ErrDegraded, s.Degraded, s.Total)
	}
	return nil
}
