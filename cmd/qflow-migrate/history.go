package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const historyTimeFormat = "2006-01-02 15:04:05"

// createHistoryCommand creates the history command.
func createHistoryCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded migrations",
		Long:  "List recorded migrations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryCommand(cmd, env)
		},
	}

	cmd.Flags().String("project_path", "", "Only list migrations of this project")
	cmd.Flags().Int("limit", 20, "Maximum number of migrations to list (0 for all)")

	return cmd
}

func runHistoryCommand(cmd *cobra.Command, env *environment) error {
	projectPath, err := cmd.Flags().GetString("project_path")
	if err != nil {
		return fmt.Errorf("failed to get project_path flag: %w", err)
	}
	if projectPath != "" {
		if projectPath, err = filepath.Abs(projectPath); err != nil {
			return fmt.Errorf("failed to resolve project path: %w", err)
		}
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}

	store, err := env.openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(cmd.Context(), projectPath, limit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No migrations recorded.")
		return nil
	}

	for _, rec := range records {
		_, _ = color.New(color.Bold).Fprintf(out, "#%d  %s  %s\n",
			rec.ID, rec.CreatedAt.Local().Format(historyTimeFormat), rec.ProjectPath)
		_, _ = fmt.Fprintf(out, "    rewritten=%d failed=%d\n", rec.Rewritten, rec.Failed)
		for _, r := range rec.Replacements {
			_, _ = fmt.Fprintf(out, "    %s -> %s\n", r.Old, r.New)
		}
	}
	return nil
}
