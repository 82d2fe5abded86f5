package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Response maps a question identifier to its raw answer. Answers are whatever the
// form submission decoded to: a number, a short string, or a list of strings.
type Response map[string]any

// Submission is the input envelope accepted by the CLI and HTTP surfaces.
type Submission struct {
	AssessmentType string   `json:"assessmentType" yaml:"assessmentType"`
	Responses      Response `json:"responses" yaml:"responses"`
}

// CategoryScore is one category's normalized score
type CategoryScore struct {
	Name      string  `json:"name"`
	Score     int     `json:"score"`     // 0-100 normalized
	Raw       float64 `json:"raw"`       // sum of coerced answers
	Questions int     `json:"questions"` // contributing question count
}

// ScoreSet holds one entry per category of an assessment type, in declared table order.
type ScoreSet []CategoryScore

// Map returns the scores keyed by category name.
func (s ScoreSet) Map() map[string]int {
	m := make(map[string]int, len(s))
	for _, cs := range s {
		m[cs.Name] = cs.Score
	}
	return m
}

// Get returns the score for a category and whether it exists.
func (s ScoreSet) Get(name string) (int, bool) {
	for _, cs := range s {
		if cs.Name == name {
			return cs.Score, true
		}
	}
	return 0, false
}

// MarshalJSON writes the set as an object keyed by category name, keeping declared order.
func (s ScoreSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cs := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cs.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(cs.Score))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form written by MarshalJSON, preserving key order.
// Raw sums and question counts are not part of the wire form and stay zero.
func (s *ScoreSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("scores: expected object, got %v", tok)
	}
	var out ScoreSet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("scores: expected category name, got %v", tok)
		}
		var score int
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("scores: %s: %w", name, err)
		}
		out = append(out, CategoryScore{Name: name, Score: score})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Narrative is the static descriptive content shown for a category.
type Narrative struct {
	Title                   string   `json:"title" yaml:"title"`
	Description             string   `json:"description" yaml:"description"`
	Strengths               []string `json:"strengths" yaml:"strengths"`
	GrowthAreas             []string `json:"growth_areas" yaml:"growth_areas"`
	MinistryRecommendations []string `json:"ministry_recommendations" yaml:"ministry_recommendations"`
	ScriptureReferences     []string `json:"scripture_references" yaml:"scripture_references"`
	NextSteps               []string `json:"next_steps" yaml:"next_steps"`
}

func (n Narrative) clone() Narrative {
	return Narrative{
		Title:                   n.Title,
		Description:             n.Description,
		Strengths:               cloneStrings(n.Strengths),
		GrowthAreas:             cloneStrings(n.GrowthAreas),
		MinistryRecommendations: cloneStrings(n.MinistryRecommendations),
		ScriptureReferences:     cloneStrings(n.ScriptureReferences),
		NextSteps:               cloneStrings(n.NextSteps),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Diagnostic codes attached to degraded results
const (
	CodeUnknownType      = "unknown_type"
	CodeMissingAnswer    = "missing_answer"
	CodeInvalidAnswer    = "invalid_answer"
	CodeOutOfRange       = "out_of_range"
	CodeMissingNarrative = "missing_narrative"
)

// Diagnostic records a fallback the engine applied instead of failing.
type Diagnostic struct {
	Code    string `json:"code"`
	Subject string `json:"subject,omitempty"` // question id, category or type
	Message string `json:"message"`
}

// Result is the scoring output. Narrative fields are copied from the primary
// category; secondary and tertiary categories contribute only their titles.
type Result struct {
	AssessmentType          string   `json:"assessment_type"`
	PrimaryResult           string   `json:"primary_result"`
	SecondaryResult         string   `json:"secondary_result"`
	TertiaryResult          string   `json:"tertiary_result"`
	SecondaryTitle          string   `json:"secondary_title"`
	TertiaryTitle           string   `json:"tertiary_title"`
	Scores                  ScoreSet `json:"scores"`
	Title                   string   `json:"title"`
	Description             string   `json:"description"`
	Strengths               []string `json:"strengths"`
	GrowthAreas             []string `json:"growth_areas"`
	MinistryRecommendations []string `json:"ministry_recommendations"`
	ScriptureReferences     []string `json:"scripture_references"`
	NextSteps               []string `json:"next_steps"`
}

// Ranked returns the top categories in result order, skipping empty slots.
func (r Result) Ranked() []string {
	var out []string
	for _, name := range []string{r.PrimaryResult, r.SecondaryResult, r.TertiaryResult} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Evaluation wraps a Result with the fallbacks applied while producing it. Valid is
// false whenever at least one diagnostic was recorded.
type Evaluation struct {
	RequestedType string       `json:"requested_type"`
	Result        Result       `json:"result"`
	Valid         bool         `json:"valid"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// HasDiagnostic reports whether a diagnostic with the given code was recorded.
func (e Evaluation) HasDiagnostic(code string) bool {
	for _, d := range e.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}
