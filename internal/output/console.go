package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/cue"
)

const barWidth = 20

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	w        io.Writer
	quiet    bool
	verbose  bool
	colorize bool
}

// NewConsoleFormatter creates a new ConsoleFormatter
func NewConsoleFormatter(w io.Writer, quiet, verbose, colorize bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		w:        w,
		quiet:    quiet,
		verbose:  verbose,
		colorize: colorize,
	}
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Format writes the scoring summary for a terminal
func (f *ConsoleFormatter) Format(summary *batch.Summary) error {
	if f.quiet {
		return nil
	}

	// A single submission always gets the full narrative
	detailed := f.verbose || len(summary.Items) == 1

	for i, item := range summary.Items {
		if i > 0 {
			fmt.Fprintln(f.w)
		}
		f.printItem(item, detailed)
	}

	f.printSummary(summary)
	return nil
}

func (f *ConsoleFormatter) printItem(item batch.Item, detailed bool) {
	red, yellow, green, gray := f.style("9"), f.style("3"), f.style("10"), f.style("7")

	switch {
	case item.Failed():
		fmt.Fprintf(f.w, "%s %s\n", red.Render("✗"), item.File)
		if item.Err != nil {
			fmt.Fprintf(f.w, "    %s\n", red.Render(item.Err.Error()))
		}
		return
	case item.Degraded():
		fmt.Fprintf(f.w, "%s %s\n", yellow.Render("⚠"), item.File)
	default:
		fmt.Fprintf(f.w, "%s %s\n", green.Render("✓"), item.File)
	}

	res := item.Evaluation.Result
	bold := lipgloss.NewStyle().Bold(f.colorize)
	primary, _ := res.Scores.Get(res.PrimaryResult)
	fmt.Fprintf(f.w, "    %s %s %d/100\n", bold.Render(res.Title), gray.Render("("+res.AssessmentType+")"), primary)
	if res.SecondaryTitle != "" {
		fmt.Fprintf(f.w, "    then %s", res.SecondaryTitle)
		if res.TertiaryTitle != "" {
			fmt.Fprintf(f.w, ", %s", res.TertiaryTitle)
		}
		fmt.Fprintln(f.w)
	}

	if detailed {
		f.printScores(res.Scores, res.PrimaryResult)
		f.printNarrative(res)
	}

	f.printDiagnostics(item.Evaluation.Diagnostics, detailed)
	f.printIssues(item.Issues)
}

func (f *ConsoleFormatter) printScores(scores assessment.ScoreSet, primary string) {
	width := 0
	for _, cs := range scores {
		if len(cs.Name) > width {
			width = len(cs.Name)
		}
	}
	highlight := f.style("12")
	fmt.Fprintln(f.w)
	for _, cs := range scores {
		bar := Bar(cs.Score, barWidth)
		if cs.Name == primary {
			bar = highlight.Render(bar)
		}
		fmt.Fprintf(f.w, "    %-*s %s %3d\n", width, cs.Name, bar, cs.Score)
	}
}

func (f *ConsoleFormatter) printNarrative(res assessment.Result) {
	heading := lipgloss.NewStyle().Bold(f.colorize)
	fmt.Fprintf(f.w, "\n    %s\n", res.Description)

	sections := []struct {
		title string
		items []string
	}{
		{"Strengths", res.Strengths},
		{"Growth areas", res.GrowthAreas},
		{"Ministry recommendations", res.MinistryRecommendations},
		{"Scripture", res.ScriptureReferences},
		{"Next steps", res.NextSteps},
	}
	for _, sec := range sections {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintf(f.w, "\n    %s\n", heading.Render(sec.title))
		for _, it := range sec.items {
			fmt.Fprintf(f.w, "      • %s\n", it)
		}
	}
}

func (f *ConsoleFormatter) printDiagnostics(diags []assessment.Diagnostic, detailed bool) {
	if len(diags) == 0 {
		return
	}
	yellow := f.style("3")
	fmt.Fprintln(f.w)
	if !detailed {
		fmt.Fprintf(f.w, "    %s\n", yellow.Render(DiagnosticSummary(diags)))
		return
	}
	for _, d := range diags {
		fmt.Fprintf(f.w, "    %s %s\n", yellow.Render("⚠"), d.Message)
	}
}

func (f *ConsoleFormatter) printIssues(issues []cue.ValidationError) {
	red, yellow := f.style("9"), f.style("3")
	for _, issue := range issues {
		prefix := yellow.Render("⚠")
		if issue.Severity == "error" {
			prefix = red.Render("✘")
		}
		if issue.Path != "" {
			fmt.Fprintf(f.w, "    %s %s: %s\n", prefix, issue.Path, issue.Message)
		} else {
			fmt.Fprintf(f.w, "    %s %s\n", prefix, issue.Message)
		}
	}
}

func (f *ConsoleFormatter) printSummary(summary *batch.Summary) {
	if summary.Total <= 1 {
		return
	}
	fmt.Fprintf(f.w, "\n%d scored, %d with fallbacks, %d failed (%v)\n",
		summary.Scored, summary.Degraded, summary.Failed,
		summary.Duration.Round(time.Millisecond))
}

// Bar renders a score in [0,100] as a fixed-width bar.
func Bar(score, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := (score*width + 50) / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// DiagnosticSummary condenses diagnostics into one line of counts per code.
func DiagnosticSummary(diags []assessment.Diagnostic) string {
	counts := make(map[string]int)
	var order []string
	for _, d := range diags {
		if counts[d.Code] == 0 {
			order = append(order, d.Code)
		}
		counts[d.Code]++
	}
	parts := make([]string, len(order))
	for i, code := range order {
		parts[i] = fmt.Sprintf("%d %s", counts[code], strings.ReplaceAll(code, "_", " "))
	}
	return "fallbacks: " + strings.Join(parts, ", ")
}
