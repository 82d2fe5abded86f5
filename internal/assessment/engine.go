package assessment

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Engine dispatches scoring by assessment type. It holds only immutable tables and
// is safe for concurrent use.
type Engine struct {
	catalog     *Catalog
	defaultType string
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the compiled-in tables.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithDefaultType sets the type used for unknown identifiers. It is ignored when the
// catalog does not define it.
func WithDefaultType(t string) Option {
	return func(e *Engine) {
		e.defaultType = t
	}
}

// WithLogger sets the logger that receives degraded-result events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine over the builtin catalog unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		defaultType: DefaultType,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = Builtin()
	}
	if !e.catalog.Has(e.defaultType) {
		types := e.catalog.Types()
		e.logger.Warn("default assessment type not in catalog",
			zap.String("type", e.defaultType),
			zap.String("using", types[0]))
		e.defaultType = types[0]
	}
	return e
}

// Catalog returns the tables the engine scores against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// DefaultType returns the fallback assessment type.
func (e *Engine) DefaultType() string {
	return e.defaultType
}

// Calculate scores responses for an assessment type. It never fails: an unknown type
// is scored as the default type, and bad answers count as 0. Use Evaluate to see
// which fallbacks were applied.
func (e *Engine) Calculate(assessmentType string, resp Response) Result {
	return e.Evaluate(assessmentType, resp).Result
}

// Evaluate scores responses and reports every fallback applied along the way.
func (e *Engine) Evaluate(assessmentType string, resp Response) Evaluation {
	var diags []Diagnostic

	def, ok := e.catalog.definition(assessmentType)
	if !ok {
		diags = append(diags, Diagnostic{
			Code:    CodeUnknownType,
			Subject: assessmentType,
			Message: fmt.Sprintf("unknown assessment type %q; scored as %q", assessmentType, e.defaultType),
		})
		def, _ = e.catalog.definition(e.defaultType)
	}

	scores, answerDiags := Aggregate(def, resp)
	diags = append(diags, answerDiags...)

	result, narrativeDiags := Resolve(def, Rank(scores), scores)
	diags = append(diags, narrativeDiags...)

	ev := Evaluation{
		RequestedType: assessmentType,
		Result:        result,
		Valid:         len(diags) == 0,
		Diagnostics:   diags,
	}
	e.logEvaluation(ev)
	return ev
}

func (e *Engine) logEvaluation(ev Evaluation) {
	if ev.Valid {
		e.logger.Debug("assessment scored",
			zap.String("type", ev.Result.AssessmentType),
			zap.String("primary", ev.Result.PrimaryResult))
		return
	}
	counts := make(map[string]int)
	for _, d := range ev.Diagnostics {
		counts[d.Code]++
	}
	fields := []zap.Field{
		zap.String("requested_type", ev.RequestedType),
		zap.String("type", ev.Result.AssessmentType),
		zap.String("primary", ev.Result.PrimaryResult),
		zap.Int("diagnostics", len(ev.Diagnostics)),
	}
	for _, code := range []string{CodeUnknownType, CodeMissingAnswer, CodeInvalidAnswer, CodeOutOfRange, CodeMissingNarrative} {
		if n := counts[code]; n > 0 {
			fields = append(fields, zap.Int(code, n))
		}
	}
	e.logger.Warn("assessment scored with fallbacks", fields...)
}

var defaultEngine = sync.OnceValue(func() *Engine { return NewEngine() })

// Calculate scores responses with the builtin tables and default settings.
func Calculate(assessmentType string, resp Response) Result {
	return defaultEngine().Calculate(assessmentType, resp)
}
