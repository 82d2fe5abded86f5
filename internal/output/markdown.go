package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dotcommander/assess/internal/batch"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	w          io.Writer
	verbose    bool
	outputFile string
	now        func() time.Time
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(w io.Writer, verbose bool, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		w:          w,
		verbose:    verbose,
		outputFile: outputFile,
		now:        time.Now,
	}
}

// Render builds the Markdown report
func (f *MarkdownFormatter) Render(summary *batch.Summary) string {
	var b strings.Builder

	b.WriteString("# Assessment Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", f.now().Format("2006-01-02 15:04:05"))
	if summary.Root != "" {
		fmt.Fprintf(&b, "**Source:** %s\n\n", summary.Root)
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Submissions | %d |\n", summary.Total)
	fmt.Fprintf(&b, "| Scored | %d |\n", summary.Scored)
	fmt.Fprintf(&b, "| With fallbacks | %d |\n", summary.Degraded)
	fmt.Fprintf(&b, "| Failed | %d |\n", summary.Failed)
	b.WriteString("\n")

	if summary.Total == 0 {
		b.WriteString("*No submissions found.*\n")
		return b.String()
	}

	b.WriteString("## Results\n\n")
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "### %s\n\n", item.File)

		if item.Failed() {
			msg := "not scored"
			if item.Err != nil {
				msg = item.Err.Error()
			}
			fmt.Fprintf(&b, "❌ %s\n\n", msg)
			continue
		}

		res := item.Evaluation.Result
		fmt.Fprintf(&b, "**%s** (`%s`)\n\n", res.Title, res.AssessmentType)
		if res.SecondaryTitle != "" {
			fmt.Fprintf(&b, "Secondary: %s", res.SecondaryTitle)
			if res.TertiaryTitle != "" {
				fmt.Fprintf(&b, " · Tertiary: %s", res.TertiaryTitle)
			}
			b.WriteString("\n\n")
		}

		b.WriteString("| Category | Score |\n")
		b.WriteString("|----------|-------|\n")
		for _, cs := range res.Scores {
			name := cs.Name
			if name == res.PrimaryResult {
				name = "**" + name + "**"
			}
			fmt.Fprintf(&b, "| %s | %d |\n", name, cs.Score)
		}
		b.WriteString("\n")

		if f.verbose {
			fmt.Fprintf(&b, "%s\n\n", res.Description)
			writeList(&b, "Strengths", res.Strengths)
			writeList(&b, "Growth Areas", res.GrowthAreas)
			writeList(&b, "Ministry Recommendations", res.MinistryRecommendations)
			writeList(&b, "Scripture References", res.ScriptureReferences)
			writeList(&b, "Next Steps", res.NextSteps)
		}

		if diags := item.Evaluation.Diagnostics; len(diags) > 0 {
			fmt.Fprintf(&b, "⚠️ %s\n\n", DiagnosticSummary(diags))
		}
		for _, issue := range item.Issues {
			fmt.Fprintf(&b, "- %s `%s`: %s\n", issue.Severity, issue.Path, issue.Message)
		}
		if len(item.Issues) > 0 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// Format formats the scoring summary as Markdown
func (f *MarkdownFormatter) Format(summary *batch.Summary) error {
	content := f.Render(summary)
	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, []byte(content), 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", f.outputFile, err)
		}
		return nil
	}
	_, err := io.WriteString(f.w, content)
	return err
}
