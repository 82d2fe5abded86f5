package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/assess/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a .assessrc.json with the current settings",
		Long: `Write the effective configuration (defaults, environment and flags) to
.assessrc.json in dir, or the current directory. Later runs from that directory
or any subdirectory pick it up.`,
		Example: `  assess init
  assess init --default-type seasonal --format markdown
  assess init ./submissions --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .assessrc.json")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFiles[0])
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	if !cfg.Quiet {
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", green.Render("✓"), path)
	}
	return nil
}
