package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dotcommander/assess/internal/baseline"
	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/discovery"
	"github.com/dotcommander/assess/internal/git"
)

// ErrDrift is returned when results differ from the baseline snapshot.
var ErrDrift = errors.New("results differ from baseline")

type batchOptions struct {
	assessmentType string
	changed        bool
	staged         bool
	baselinePath   string
	updateBaseline bool
}

func newBatchCmd() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Score every submission under a directory",
		Long: `Discover JSON and YAML submissions under a directory (default: current
directory) and score them in parallel. Results are reported in path order.

Hidden directories and .assessrc files are skipped; add more patterns with the
exclude list in .assessrc.

With --baseline, results are compared against a saved snapshot and any submission
whose outcome changed is reported. --update-baseline writes the snapshot instead.`,
		Example: `  assess batch ./responses
  assess batch ./responses --format markdown --output report.md
  assess batch --concurrency 4 --strict
  assess batch --changed
  assess batch --baseline .assess-baseline.json --update-baseline`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runBatch(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.assessmentType, "type", "t", "", "Score every submission as this assessment type")
	cmd.Flags().BoolVar(&opts.changed, "changed", false, "Only score submissions with uncommitted git changes")
	cmd.Flags().BoolVar(&opts.staged, "staged", false, "Only score submissions staged in git")
	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "Compare results against a baseline snapshot")
	cmd.Flags().BoolVar(&opts.updateBaseline, "update-baseline", false, "Write the baseline snapshot instead of comparing")
	cmd.MarkFlagsMutuallyExclusive("changed", "staged")
	cmd.MarkFlagsMutuallyExclusive("changed", "baseline")
	cmd.MarkFlagsMutuallyExclusive("staged", "baseline")
	return cmd
}

func runBatch(cmd *cobra.Command, root string, opts batchOptions) error {
	if opts.updateBaseline && opts.baselinePath == "" {
		return fmt.Errorf("--update-baseline requires --baseline")
	}

	files, err := discovery.NewFileDiscovery(root, cfg.Exclude).DiscoverFiles()
	if err != nil {
		return fmt.Errorf("error discovering submissions: %w", err)
	}
	logger.Debug("discovered submissions", zap.String("root", root), zap.Int("files", len(files)))

	if opts.changed || opts.staged {
		files, err = filterGit(root, files, opts.staged)
		if err != nil {
			return err
		}
	}

	validator, err := newValidator()
	if err != nil {
		return err
	}

	runOpts := []batch.Option{
		batch.WithLogger(logger),
		batch.WithWorkers(cfg.Workers()),
		batch.WithAssessmentType(opts.assessmentType),
	}
	if validator != nil {
		runOpts = append(runOpts, batch.WithValidator(validator))
	}
	runner := batch.NewRunner(newEngine(), runOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx, files)
	if err != nil {
		return err
	}
	summary.Root = root

	if err := newOutputter(cmd.OutOrStdout()).Format(summary, cfg.Format); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}

	if opts.baselinePath != "" {
		if err := checkBaseline(cmd.ErrOrStderr(), summary, opts); err != nil {
			return err
		}
	}
	return summary.Check(cfg.Strict)
}

func filterGit(root string, files []discovery.File, staged bool) ([]discovery.File, error) {
	var paths []string
	var err error
	if staged {
		paths, err = git.StagedFiles(root)
	} else {
		paths, err = git.ChangedFiles(root)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing git changes: %w", err)
	}
	filtered := discovery.FilterPaths(files, paths)
	logger.Debug("filtered to git changes", zap.Int("files", len(filtered)), zap.Bool("staged", staged))
	return filtered, nil
}

func checkBaseline(w io.Writer, summary *batch.Summary, opts batchOptions) error {
	if opts.updateBaseline {
		if err := baseline.CreateBaseline(summary).SaveBaseline(opts.baselinePath); err != nil {
			return err
		}
		if !cfg.Quiet {
			fmt.Fprintf(w, "Baseline written to %s (%d results)\n", opts.baselinePath, summary.Scored)
		}
		return nil
	}

	base, err := baseline.LoadBaseline(opts.baselinePath)
	if err != nil {
		return err
	}
	drifts := base.Compare(summary)
	if len(drifts) == 0 {
		return nil
	}

	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	for _, d := range drifts {
		fmt.Fprintf(w, "%s %s\n", yellow.Render("≠"), d.String())
	}
	return fmt.Errorf("%w (%d submissions)", ErrDrift, len(drifts))
}
