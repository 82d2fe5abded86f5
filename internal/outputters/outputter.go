package outputters

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/config"
	"github.com/dotcommander/assess/internal/output"
)

// Formatter renders a scoring summary
type Formatter interface {
	Format(summary *batch.Summary) error
}

// Outputter handles output formatting
type Outputter struct {
	config *config.Config
	w      io.Writer
}

// NewOutputter creates an Outputter writing to w, or stdout when w is nil
func NewOutputter(cfg *config.Config, w io.Writer) *Outputter {
	if w == nil {
		w = os.Stdout
	}
	return &Outputter{
		config: cfg,
		w:      w,
	}
}

// CreateFormatter returns the formatter for a format name
func (o *Outputter) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case "console":
		return output.NewConsoleFormatter(o.w, o.config.Quiet, o.config.Verbose, isTerminal(o.w)), nil
	case "json":
		return output.NewJSONFormatter(o.w, true, o.config.Output), nil
	case "markdown":
		return output.NewMarkdownFormatter(o.w, o.config.Verbose, o.config.Output), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Format formats the scoring summary using the given format
func (o *Outputter) Format(summary *batch.Summary, format string) error {
	if summary.StartTime.IsZero() {
		summary.StartTime = time.Now()
	}

	formatter, err := o.CreateFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(summary)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
