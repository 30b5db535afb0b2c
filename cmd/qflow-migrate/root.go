package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/qflow-migrate/internal/logging"
	"github.com/wizzomafizzo/qflow-migrate/internal/migrate"
)

const longDescription = `Convert a qflow project from one environment to another by rewriting the
paths recorded in qflow_vars.sh, project_vars.sh and qflow_exec.sh.

project_path may be omitted if the project path is the current directory.
qflow_path may be omitted if qflow is installed in the default /usr/local/share/qflow.
tech_path may be omitted if technology is embedded in the project.`

// createNewRootCommand creates the root command, which performs the migration.
func createNewRootCommand() *cobra.Command {
	return newRootCommand(defaultEnvironment())
}

func newRootCommand(env *environment) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qflow-migrate [options...]",
		Short:         "Migrate a qflow project to new paths",
		Long:          longDescription,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateCommand(cmd, env)
		},
	}

	flags := rootCmd.Flags()
	flags.String("project_path", "", "Path to project top level directory")
	flags.String("qflow_path", "", "Path to qflow installation")
	flags.String("tech_path", "", "Current path to technology files")
	flags.String("qflow_bin", "", "qflow executable queried for the current version")
	flags.Duration("timeout", 0, "Time allowed for the qflow version query")
	flags.Bool("dry_run", false, "Report the files that would change without writing them")
	flags.Bool("interactive", false, "Confirm the planned replacements before rewriting")

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Write debug messages to the log")

	rootCmd.AddCommand(createHistoryCommand(env))
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	return rootCmd
}

type migrateFlags struct {
	request     migrate.Request
	qflowBinary string
	dryRun      bool
	interactive bool
	verbose     bool
}

func readMigrateFlags(cmd *cobra.Command) (migrateFlags, error) {
	var f migrateFlags
	var err error

	strs := map[string]*string{
		"project_path": &f.request.ProjectPath,
		"qflow_path":   &f.request.ToolchainPath,
		"tech_path":    &f.request.TechPath,
		"qflow_bin":    &f.qflowBinary,
	}
	for name, dst := range strs {
		if *dst, err = cmd.Flags().GetString(name); err != nil {
			return f, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}

	bools := map[string]*bool{
		"dry_run":     &f.dryRun,
		"interactive": &f.interactive,
		"verbose":     &f.verbose,
	}
	for name, dst := range bools {
		if *dst, err = cmd.Flags().GetBool(name); err != nil {
			return f, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
	}

	return f, nil
}

// runMigrateCommand wires configuration, logging, history and the qflow
// launcher into a migrate.Migrator and runs it.
func runMigrateCommand(cmd *cobra.Command, env *environment) error {
	flags, err := readMigrateFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := env.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, err := env.initLogging(cmd.Context(), flags.request.ProjectPath, flags.verbose)
	if err != nil {
		return err
	}
	logger := logging.Get(ctx)

	binary := cfg.QflowBinary
	if flags.qflowBinary != "" {
		binary = flags.qflowBinary
	}
	timeout := cfg.VersionTimeout
	if cmd.Flags().Changed("timeout") {
		if timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return fmt.Errorf("failed to get timeout flag: %w", err)
		}
	}

	opts := migrate.Options{
		Fs:                   env.fs,
		Resolver:             env.newResolver(binary, timeout),
		Out:                  cmd.OutOrStdout(),
		Files:                cfg.Files,
		DefaultToolchainPath: cfg.QflowPath,
		DryRun:               flags.dryRun,
	}

	if !flags.dryRun {
		store, err := env.openHistory(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Migration history unavailable")
		} else {
			defer func() { _ = store.Close() }()
			opts.Recorder = store
		}
	}

	if flags.interactive {
		prompter := env.newPrompter()
		defer func() { _ = prompter.Close() }()
		opts.Prompter = prompter
	}

	result, err := migrate.New(opts).Run(ctx, flags.request)
	if err != nil {
		logger.Error().Err(err).Msg("Migration failed")
		if migrate.IsValidationError(err) {
			cmd.PrintErrln(cmd.UsageString())
			cmd.PrintErrln("Exiting.")
		}
		return err
	}

	if result.Report != nil {
		if reportErr := result.Report.Err(); reportErr != nil {
			cmd.PrintErrf("Some files were not migrated:\n%v\n", reportErr)
		}
	}
	return nil
}
