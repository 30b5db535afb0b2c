package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/wizzomafizzo/qflow-migrate/internal/config"
	"github.com/wizzomafizzo/qflow-migrate/internal/history"
	"github.com/wizzomafizzo/qflow-migrate/internal/logging"
	"github.com/wizzomafizzo/qflow-migrate/internal/prompt"
	"github.com/wizzomafizzo/qflow-migrate/internal/storage"
	"github.com/wizzomafizzo/qflow-migrate/internal/toolchain"
)

// environment holds the dependencies commands are built from, so tests can
// swap the filesystem, the qflow binary and the history location.
type environment struct {
	fs          afero.Fs
	newResolver func(binary string, timeout time.Duration) toolchain.VersionResolver
	newPrompter func() prompt.Prompter
	historyPath func() (string, error)
	// logWriter replaces the log file when set.
	logWriter io.Writer
}

func defaultEnvironment() *environment {
	fs := afero.NewOsFs()
	return &environment{
		fs: fs,
		newResolver: func(binary string, timeout time.Duration) toolchain.VersionResolver {
			return toolchain.NewLauncher(binary, timeout)
		},
		newPrompter: prompt.NewLinerPrompter,
		historyPath: storage.New(fs).GetHistoryPath,
	}
}

// initLogging attaches a logger to ctx
func (e *environment) initLogging(ctx context.Context, projectPath string, verbose bool) (context.Context, error) {
	level := logging.InfoLevel
	if verbose {
		level = logging.DebugLevel
	}

	ctx, err := logging.New(ctx, e.fs, logging.Config{
		Writer:      e.logWriter,
		ProjectPath: projectPath,
		Level:       level,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return ctx, nil
}

// loadConfig reads --config, or the XDG config file when the flag is unset
func (e *environment) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath == "" {
		configPath = storage.New(e.fs).GetConfigPath()
	}

	cfg, err := config.Load(e.fs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}

func (e *environment) openHistory(ctx context.Context) (*history.Store, error) {
	path, err := e.historyPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get history path: %w", err)
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}
