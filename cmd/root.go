package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/config"
	"github.com/dotcommander/assess/internal/cue"
	"github.com/dotcommander/assess/internal/outputters"
)

// logLevelAnnotation lets a command raise the default log level.
const logLevelAnnotation = "assess/log-level"

var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assess",
		Short: "Score spiritual gifts and spiritual seasons assessments",
		Long: `assess scores questionnaire submissions against the built-in assessment
tables and reports the top categories with their narrative guidance.

Submissions are JSON or YAML documents of the form
  {"assessmentType": "spiritual-gifts", "responses": {"1": 5, "2": 4, ...}}

Scoring never fails: unknown types, missing answers and out-of-range values fall
back to defaults and are reported as diagnostics. Use --strict to exit non-zero
when that happens.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("quiet", "q", false, "Suppress non-essential output")
	flags.BoolP("verbose", "v", false, "Show full narratives and debug logging")
	flags.StringP("format", "f", "console", "Output format (console|json|markdown)")
	flags.StringP("output", "o", "", "Write the report to a file (json and markdown only)")
	flags.Bool("strict", false, "Exit non-zero when any result used a fallback")
	flags.String("default-type", assessment.DefaultType, "Assessment type used for unknown types")
	flags.Int("concurrency", 10, "Maximum submissions scored at once")
	flags.Bool("no-schema", false, "Skip CUE schema validation of submissions")

	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("strict", flags.Lookup("strict"))
	_ = viper.BindPFlag("defaultType", flags.Lookup("default-type"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))

	rootCmd.AddCommand(
		newScoreCmd(),
		newBatchCmd(),
		newTypesCmd(),
		newValidateCmd(),
		newServeCmd(),
		newInitCmd(),
	)
	return rootCmd
}

// Execute runs the CLI and exits 1 on error.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if noSchema, _ := cmd.Flags().GetBool("no-schema"); noSchema {
		loaded.Schemas.Enabled = false
	}
	cfg = loaded

	level := zapcore.ErrorLevel
	if lvl, ok := cmd.Annotations[logLevelAnnotation]; ok {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}
	logger, err = newLogger(level)
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	return nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func newEngine() *assessment.Engine {
	return assessment.NewEngine(
		assessment.WithDefaultType(cfg.DefaultType),
		assessment.WithLogger(logger),
	)
}

// newValidator returns nil when schema validation is disabled.
func newValidator() (*cue.Validator, error) {
	if !cfg.Schemas.Enabled {
		return nil, nil
	}
	v := cue.NewValidator(nil)
	if err := v.LoadSchemas(); err != nil {
		return nil, fmt.Errorf("error loading schemas: %w", err)
	}
	logger.Debug("schemas loaded", zap.Strings("schemas", v.Schemas()))
	return v, nil
}

func newOutputter(w io.Writer) *outputters.Outputter {
	return outputters.NewOutputter(cfg, w)
}
