package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/discovery"
)

func newScoreCmd() *cobra.Command {
	var assessmentType string

	cmd := &cobra.Command{
		Use:   "score <file|->",
		Short: "Score a single submission",
		Long: `Score one JSON or YAML submission and print the primary, secondary and
tertiary categories. Use - to read the submission from stdin (JSON or YAML).`,
		Example: `  assess score answers.json
  assess score --type seasonal answers.yaml
  cat answers.json | assess score - --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args[0], assessmentType)
		},
	}

	cmd.Flags().StringVarP(&assessmentType, "type", "t", "", "Score as this assessment type, ignoring the submission's own")
	return cmd
}

func runScore(cmd *cobra.Command, path, assessmentType string) error {
	name, data, err := readSubmission(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	validator, err := newValidator()
	if err != nil {
		return err
	}

	opts := []batch.Option{batch.WithLogger(logger), batch.WithAssessmentType(assessmentType)}
	if validator != nil {
		opts = append(opts, batch.WithValidator(validator))
	}
	runner := batch.NewRunner(newEngine(), opts...)

	summary := batch.NewSummary(runner.ScoreDocument(name, data))
	if err := newOutputter(cmd.OutOrStdout()).Format(summary, cfg.Format); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return summary.Check(cfg.Strict)
}

// readSubmission reads a file, or stdin for "-". Stdin is parsed as YAML, which
// also accepts JSON.
func readSubmission(stdin io.Reader, path string) (string, []byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("error reading stdin: %w", err)
		}
		return "stdin.yaml", data, nil
	}
	absPath, err := discovery.ValidateFilePath(path)
	if err != nil {
		return "", nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return path, data, nil
}
