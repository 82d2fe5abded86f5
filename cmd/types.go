package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/assess/internal/server"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List assessment types and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd.OutOrStdout())
		},
	}
}

func runTypes(w io.Writer) error {
	types := server.Types(newEngine())

	switch cfg.Format {
	case "json":
		data, err := json.MarshalIndent(types, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "markdown":
		for _, t := range types {
			fmt.Fprintf(w, "## %s (`%s`)\n\n", t.Name, t.Type)
			fmt.Fprintf(w, "- Questions: %d\n", t.Questions)
			fmt.Fprintf(w, "- Default category: %s\n", t.DefaultCategory)
			fmt.Fprintf(w, "- Categories: %s\n\n", strings.Join(t.Categories, ", "))
		}
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true)
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	for _, t := range types {
		marker := ""
		if t.Default {
			marker = gray.Render(" (default)")
		}
		fmt.Fprintf(w, "%s%s  %s\n", bold.Render(t.Type), marker, t.Name)
		fmt.Fprintf(w, "    %d questions: %s\n", t.Questions, strings.Join(t.Categories, ", "))
	}
	return nil
}
