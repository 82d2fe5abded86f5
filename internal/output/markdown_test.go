package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/assess/internal/batch"
)

func TestMarkdownFormatter_Render(t *testing.T) {
	tests := []struct {
		name            string
		summary         *batch.Summary
		verbose         bool
		wantContains    []string
		wantNotContains []string
	}{
		{
			name:    "empty run",
			summary: batch.NewSummary(),
			wantContains: []string{
				"# Assessment Report",
				"**Generated:** 2026-03-01 12:00:00",
				"| Submissions | 0 |",
				"*No submissions found.*",
			},
			wantNotContains: []string{"## Results"},
		},
		{
			name:    "mixed run",
			summary: sampleSummary(t),
			wantContains: []string{
				"| Submissions | 4 |",
				"| Scored | 3 |",
				"| With fallbacks | 1 |",
				"| Failed | 1 |",
				"### full.json",
				"**Administration** (`spiritual-gifts`)",
				"Secondary: Teaching · Tertiary: Evangelism",
				"| **administration** | 100 |",
				"| **winter** | 93 |",
				"⚠️ fallbacks: 19 missing answer",
				"- warning `responses.99`: question 99 is not part of spiritual-gifts",
				"### broken.json",
				"❌ error parsing broken.json: unexpected EOF",
			},
			wantNotContains: []string{"#### Strengths"},
		},
		{
			name:    "verbose adds narrative",
			summary: sampleSummary(t),
			verbose: true,
			wantContains: []string{
				"#### Strengths",
				"- Bringing structure to complex projects",
				"#### Next Steps",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewMarkdownFormatter(nil, tt.verbose, "")
			f.now = fixedClock
			out := f.Render(tt.summary)
			for _, want := range tt.wantContains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q\n%s", want, out)
				}
			}
			for _, notWant := range tt.wantNotContains {
				if strings.Contains(out, notWant) {
					t.Errorf("output should not contain %q", notWant)
				}
			}
		})
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf, false, "").Format(sampleSummary(t)); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "# Assessment Report") {
		t.Errorf("unexpected output start: %q", buf.String()[:40])
	}

	path := filepath.Join(t.TempDir(), "report.md")
	if err := NewMarkdownFormatter(nil, false, path).Format(sampleSummary(t)); err != nil {
		t.Fatalf("Format() to file error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "### winter.yaml") {
		t.Error("file report missing winter.yaml section")
	}
}
