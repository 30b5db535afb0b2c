// Package migrate rewrites the paths recorded in a qflow project after the
// project, the qflow installation or the technology files have moved.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
	"github.com/wizzomafizzo/qflow-migrate/internal/history"
	"github.com/wizzomafizzo/qflow-migrate/internal/logging"
	"github.com/wizzomafizzo/qflow-migrate/internal/prompt"
	"github.com/wizzomafizzo/qflow-migrate/internal/qflowvars"
	"github.com/wizzomafizzo/qflow-migrate/internal/rewrite"
	"github.com/wizzomafizzo/qflow-migrate/internal/toolchain"
)

// Options configures a Migrator. Fs and Resolver are required.
type Options struct {
	Fs       afero.Fs
	Resolver toolchain.VersionResolver
	Out      io.Writer
	// Prompter, when set, is asked to confirm before files are rewritten.
	Prompter prompt.Prompter
	// Recorder, when set, receives a record of every completed migration.
	Recorder history.Recorder
	Getwd    func() (string, error)
	// Files are rewritten relative to the project path. Only the first one
	// receives the version substitution.
	Files                []string
	DefaultToolchainPath string
	DryRun               bool
}

// Result describes a finished migration.
type Result struct {
	Report    *rewrite.Report
	Locations Locations
	Original  qflowvars.Paths
	Version   string
	Rules     rewrite.Rules
	Warnings  []qflowvars.Warning
	Cancelled bool
}

// Migrator runs the migration pipeline.
type Migrator struct {
	opts Options
}

// New creates a Migrator, filling unset optional fields with defaults.
func New(opts Options) *Migrator {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Getwd == nil {
		opts.Getwd = os.Getwd
	}
	if len(opts.Files) == 0 {
		opts.Files = constants.DefaultTargetFiles()
	}
	if opts.DefaultToolchainPath == "" {
		opts.DefaultToolchainPath = constants.DefaultQflowPath
	}
	return &Migrator{opts: opts}
}

// Run resolves the request, reads the original paths from qflow_vars.sh,
// queries the installed qflow version and rewrites the project files.
func (m *Migrator) Run(ctx context.Context, req Request) (*Result, error) {
	logger := logging.Get(ctx)

	projectPath, err := m.resolveProject(req.ProjectPath)
	if err != nil {
		return nil, err
	}
	toolchainPath, err := m.resolveToolchain(req.ToolchainPath)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if err := m.readOriginal(ctx, projectPath, result); err != nil {
		return nil, err
	}

	techPath, err := m.resolveTech(req.TechPath, result.Original.Project, result.Original.Tech, projectPath)
	if err != nil {
		return nil, err
	}

	result.Locations, err = absolute(Locations{
		ProjectPath:   projectPath,
		ToolchainPath: toolchainPath,
		TechPath:      techPath,
	})
	if err != nil {
		return nil, err
	}

	result.Version, err = m.currentVersion(ctx, result.Original.Version)
	if err != nil {
		return nil, err
	}

	pathRules := rewrite.Rules{
		{Old: result.Original.Project, New: result.Locations.ProjectPath},
		{Old: result.Original.Tech, New: result.Locations.TechPath},
		{Old: result.Original.Toolchain, New: result.Locations.ToolchainPath},
	}
	result.Rules = append(pathRules, rewrite.Rule{Old: result.Original.Version, New: result.Version})

	logger.Info().
		Str("project", result.Locations.ProjectPath).
		Str("toolchain", result.Locations.ToolchainPath).
		Str("tech", result.Locations.TechPath).
		Str("version", result.Version).
		Bool("dry_run", m.opts.DryRun).
		Msg("Migration planned")

	if m.opts.Prompter != nil {
		confirmed, err := m.confirm(result.Rules)
		if err != nil && !errors.Is(err, prompt.ErrCancelled) {
			return nil, err
		}
		if !confirmed {
			m.say("Migration cancelled.")
			logger.Info().Msg("Migration cancelled by user")
			result.Cancelled = true
			return result, nil
		}
	}

	m.say("")
	result.Report, err = m.rewrite(ctx, result.Locations.ProjectPath, pathRules, result.Rules)
	if err != nil {
		return nil, err
	}

	m.record(ctx, result)

	if m.opts.DryRun {
		m.say("Dry run: %d file(s) would be rewritten.", result.Report.Count(rewrite.Rewritten))
	} else {
		m.say("Done with qflow project migration.")
	}
	return result, nil
}

// readOriginal parses qflow_vars.sh. Missing keys are warnings, except the
// version, which every migration rewrites.
func (m *Migrator) readOriginal(ctx context.Context, projectPath string, result *Result) error {
	logger := logging.Get(ctx)

	m.say("Parsing %s for original paths.", constants.VarsFilename)
	parsed, err := qflowvars.ParseFile(m.opts.Fs, filepath.Join(projectPath, constants.VarsFilename))
	if err != nil {
		return fmt.Errorf("failed to read original paths: %w", err)
	}

	for _, w := range parsed.Warnings {
		m.warn("%s", w)
		logger.Warn().Str("key", w.Key).Msg("Key missing from qflow_vars.sh")
	}

	orig := parsed.Paths
	m.say("Diagnostic:  After reading %s,", constants.VarsFilename)
	m.say("   project_orig = %s", orig.Project)
	m.say("   qflow_orig = %s", orig.Toolchain)
	m.say("   tech_orig = %s", orig.Tech)
	m.say("   qflow_version = %s", orig.Version)

	if orig.Version == "" {
		return validationErrorf("no %s recorded in %s", constants.KeyQflowVersion, constants.VarsFilename)
	}

	result.Original = orig
	result.Warnings = parsed.Warnings
	return nil
}

func (m *Migrator) currentVersion(ctx context.Context, previous string) (string, error) {
	version, err := m.opts.Resolver.ResolveVersion(ctx)
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintln(m.opts.Out, "Error:  Cannot get version number from qflow")
		return "", fmt.Errorf("failed to resolve qflow version: %w", err)
	}

	m.say("Current qflow version is %s", version)
	if toolchain.IsDowngrade(previous, version) {
		m.warn("qflow version %s is older than the project's version %s", version, previous)
		logging.Get(ctx).Warn().Str("previous", previous).Str("current", version).Msg("qflow downgrade")
	}
	return version, nil
}

func (m *Migrator) confirm(rules rewrite.Rules) (bool, error) {
	m.say("Planned replacements:")
	for _, r := range rules {
		if r.Valid() && !r.Noop() {
			m.say("   %s -> %s", r.Old, r.New)
		}
	}
	return prompt.Confirm(m.opts.Prompter, fmt.Sprintf("Rewrite %d file(s)?", len(m.opts.Files)))
}

// rewrite applies pathRules to every target file and the version rule to the
// first one. Each file gets a single pass over all of its rules.
func (m *Migrator) rewrite(
	ctx context.Context, projectPath string, pathRules, allRules rewrite.Rules,
) (*rewrite.Report, error) {
	engine := rewrite.New(m.opts.Fs, rewrite.WithOutput(m.opts.Out), rewrite.WithDryRun(m.opts.DryRun))

	report, err := engine.Filter(ctx, projectPath, m.opts.Files[:1], allRules)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite %s: %w", m.opts.Files[0], err)
	}

	if rest := m.opts.Files[1:]; len(rest) > 0 {
		more, err := engine.Filter(ctx, projectPath, rest, pathRules)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite project files: %w", err)
		}
		report.Merge(more)
	}

	if err := report.Err(); err != nil {
		logging.Get(ctx).Warn().Err(err).Msg("Some files were not rewritten")
	}
	return report, nil
}

func (m *Migrator) record(ctx context.Context, result *Result) {
	if m.opts.Recorder == nil || m.opts.DryRun {
		return
	}

	failed := result.Report.Count(rewrite.Skipped)
	id, err := m.opts.Recorder.Record(ctx, history.Record{
		ProjectPath:  result.Locations.ProjectPath,
		Replacements: result.Rules,
		Rewritten:    result.Report.Count(rewrite.Rewritten),
		Failed:       failed,
	})
	if err != nil {
		logging.Get(ctx).Warn().Err(err).Msg("Failed to record migration history")
		return
	}
	logging.Get(ctx).Debug().Int64("run_id", id).Msg("Recorded migration")
}
