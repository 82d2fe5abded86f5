package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/cue"
)

// Version is reported in JSON headers
const Version = "1.0.0"

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	w          io.Writer
	indent     bool
	outputFile string
	now        func() time.Time
}

// NewJSONFormatter creates a new JSONFormatter. When outputFile is set the report
// is written there instead of w.
func NewJSONFormatter(w io.Writer, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		w:          w,
		indent:     indent,
		outputFile: outputFile,
		now:        time.Now,
	}
}

// JSONReport is the top-level JSON document
type JSONReport struct {
	Header  JSONHeader   `json:"header"`
	Summary JSONSummary  `json:"summary"`
	Results []JSONResult `json:"results"`
}

// JSONHeader identifies the producing tool
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// JSONSummary mirrors batch.Summary counters
type JSONSummary struct {
	Total     int            `json:"total"`
	Scored    int            `json:"scored"`
	Degraded  int            `json:"degraded"`
	Failed    int            `json:"failed"`
	ByType    map[string]int `json:"by_type"`
	ByPrimary map[string]int `json:"by_primary"`
	Duration  string         `json:"duration"`
}

// JSONResult is one scored document
type JSONResult struct {
	File          string                  `json:"file"`
	RequestedType string                  `json:"requested_type,omitempty"`
	Valid         bool                    `json:"valid"`
	Error         string                  `json:"error,omitempty"`
	Result        *assessment.Result      `json:"result,omitempty"`
	Diagnostics   []assessment.Diagnostic `json:"diagnostics,omitempty"`
	Issues        []cue.ValidationError   `json:"issues,omitempty"`
}

// Build converts a summary into the JSON document
func (f *JSONFormatter) Build(summary *batch.Summary) JSONReport {
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "assess",
			Version:   Version,
			Timestamp: f.now().UTC().Format(time.RFC3339),
		},
		Summary: JSONSummary{
			Total:     summary.Total,
			Scored:    summary.Scored,
			Degraded:  summary.Degraded,
			Failed:    summary.Failed,
			ByType:    summary.ByType,
			ByPrimary: summary.ByPrimary,
			Duration:  summary.Duration.Round(time.Millisecond).String(),
		},
		Results: make([]JSONResult, len(summary.Items)),
	}

	for i, item := range summary.Items {
		jr := JSONResult{
			File:          item.File,
			RequestedType: item.AssessmentType,
			Issues:        item.Issues,
		}
		if item.Err != nil {
			jr.Error = item.Err.Error()
		}
		if item.Evaluation != nil {
			res := item.Evaluation.Result
			jr.Result = &res
			jr.Valid = item.Evaluation.Valid && !cue.HasErrors(item.Issues)
			jr.Diagnostics = item.Evaluation.Diagnostics
		}
		report.Results[i] = jr
	}
	return report
}

// Format formats the scoring summary as JSON
func (f *JSONFormatter) Format(summary *batch.Summary) error {
	report := f.Build(summary)

	var jsonBytes []byte
	var err error
	if f.indent {
		jsonBytes, err = json.MarshalIndent(report, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, jsonBytes, 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", f.outputFile, err)
		}
		return nil
	}

	_, err = fmt.Fprintln(f.w, string(jsonBytes))
	return err
}
