package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/cue"
)

func newValidateCmd() *cobra.Command {
	var catalog bool

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate submissions or assessment tables against the CUE schemas",
		Long: `Validate submission documents against the submission schema. Unknown
assessment types and question ids that no category reads are reported as warnings.

With --catalog, the files are assessment tables instead; with no files, the
built-in tables are validated.`,
		Example: `  assess validate answers.json more/*.yaml
  assess validate --catalog
  assess validate --catalog my-table.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !catalog && len(args) == 0 {
				return fmt.Errorf("no files to validate")
			}
			return runValidate(cmd.OutOrStdout(), args, catalog)
		},
	}

	cmd.Flags().BoolVar(&catalog, "catalog", false, "Validate assessment tables instead of submissions")
	return cmd
}

func runValidate(w io.Writer, files []string, catalog bool) error {
	v := cue.NewValidator(nil)
	if err := v.LoadSchemas(); err != nil {
		return fmt.Errorf("error loading schemas: %w", err)
	}

	var issues []cue.ValidationError
	var checked []string
	switch {
	case catalog && len(files) == 0:
		errs, err := v.ValidateEmbeddedCatalog()
		if err != nil {
			return err
		}
		issues = errs
		tables, err := assessment.EmbeddedTables()
		if err != nil {
			return err
		}
		for name := range tables {
			checked = append(checked, name)
		}
	default:
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("error reading %s: %w", file, err)
			}
			errs, err := validateFile(v, file, data, catalog)
			if err != nil {
				return err
			}
			issues = append(issues, errs...)
			checked = append(checked, file)
		}
	}

	printValidation(w, len(checked), issues)

	if cue.HasErrors(issues) {
		return fmt.Errorf("validation failed")
	}
	if cfg.Strict && len(issues) > 0 {
		return fmt.Errorf("validation produced warnings")
	}
	return nil
}

func validateFile(v *cue.Validator, file string, data []byte, catalog bool) ([]cue.ValidationError, error) {
	if catalog {
		return v.ValidateCatalogTable(file, data)
	}
	sub, err := assessment.DecodeSubmission(file, data)
	if err != nil {
		return []cue.ValidationError{{
			File:     file,
			Message:  err.Error(),
			Severity: "error",
			Source:   cue.SourceSchema,
		}}, nil
	}
	return v.ValidateSubmission(file, sub)
}

func printValidation(w io.Writer, checked int, issues []cue.ValidationError) {
	if cfg.Quiet && !cue.HasErrors(issues) {
		return
	}
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	for _, issue := range issues {
		if issue.Severity == "error" {
			fmt.Fprintf(w, "%s %s\n", red.Render("✘"), issue.String())
		} else {
			fmt.Fprintf(w, "%s %s\n", yellow.Render("⚠"), issue.String())
		}
	}
	if len(issues) == 0 {
		fmt.Fprintf(w, "%s %d file(s) valid\n", green.Render("✓"), checked)
	}
}
