package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/qflow-migrate/internal/logging"
)

// ErrNotText is reported for files whose content is not valid UTF-8.
var ErrNotText = errors.New("non-text content")

// Outcome describes what happened to a single file.
type Outcome int

const (
	// Unchanged files contained no occurrence of any rule.
	Unchanged Outcome = iota
	// Rewritten files had at least one line replaced. In a dry run they were
	// left untouched.
	Rewritten
	// Skipped files could not be read, decoded or written.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Rewritten:
		return "rewritten"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// FileResult is the outcome for one file.
type FileResult struct {
	Err     error
	Path    string
	Lines   int
	Outcome Outcome
}

// Report collects per-file results. Failures never stop the walk.
type Report struct {
	errs   *multierror.Error
	Files  []FileResult
	DryRun bool
}

// Err returns all per-file failures, or nil.
func (r *Report) Err() error {
	return r.errs.ErrorOrNil()
}

// Count returns the number of files with the given outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == outcome {
			n++
		}
	}
	return n
}

// Merge appends the results of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Files = append(r.Files, other.Files...)
	if other.errs != nil {
		r.errs = multierror.Append(r.errs, other.errs.Errors...)
	}
}

func (r *Report) fail(err error) {
	r.errs = multierror.Append(r.errs, err)
}

// Engine rewrites files on an afero filesystem.
type Engine struct {
	fs     afero.Fs
	out    io.Writer
	dryRun bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets where progress messages are printed.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithDryRun reports the files that would change without writing them.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// New creates an engine over fs.
func New(afs afero.Fs, opts ...Option) *Engine {
	e := &Engine{fs: afs, out: io.Discard}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Filter applies rules to files under root. An empty files list means every
// immediate child of root; relative names are resolved against root.
// Directories are processed recursively and symbolic links are skipped.
// A missing root, or a rule set with nothing to replace, is a no-op.
// The returned error is only set when ctx is cancelled.
func (e *Engine) Filter(ctx context.Context, root string, files []string, rules Rules) (*Report, error) {
	report := &Report{DryRun: e.dryRun}

	if info, err := lstat(e.fs, root); err != nil || info.Mode()&os.ModeSymlink != 0 {
		return report, nil
	}

	active := e.activeRules(ctx, rules, report)
	if len(active) == 0 {
		return report, nil
	}

	for _, r := range active {
		_, _ = fmt.Fprintf(e.out, "Replacing %s with %s\n", r.Old, r.New)
	}

	err := e.filter(ctx, root, files, active.Replacer(), report)
	return report, err
}

// activeRules drops rules that cannot change anything. Rules with an empty
// side are reported as errors.
func (e *Engine) activeRules(ctx context.Context, rules Rules, report *Report) Rules {
	logger := logging.Get(ctx)

	active := make(Rules, 0, len(rules))
	for _, r := range rules {
		switch {
		case r.Old == "":
			_, _ = color.New(color.FgRed).Fprintf(e.out, "Error:  No original text string.  New text is %s\n", r.New)
			logger.Error().Str("new", r.New).Msg("Rule has no original text")
			report.fail(fmt.Errorf("no original text for replacement %q", r.New))
		case r.New == "":
			_, _ = color.New(color.FgRed).Fprintf(e.out, "Error:  No new text string.  Original text is %s\n", r.Old)
			logger.Error().Str("old", r.Old).Msg("Rule has no new text")
			report.fail(fmt.Errorf("no new text for original %q", r.Old))
		case r.Noop():
			logger.Debug().Str("text", r.Old).Msg("Rule replaces text with itself")
		default:
			active = append(active, r)
		}
	}
	return active
}

func (e *Engine) filter(
	ctx context.Context, root string, files []string, replacer *strings.Replacer, report *Report,
) error {
	if len(files) == 0 {
		children, err := listChildren(e.fs, root)
		if err != nil {
			logging.Get(ctx).Error().Err(err).Str("dir", root).Msg("Failed to list directory")
			report.fail(fmt.Errorf("failed to list %s: %w", root, err))
			return nil
		}
		files = children
	}

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rewrite cancelled: %w", err)
		}

		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, name)
		}
		_, _ = fmt.Fprintf(e.out, "   in %s\n", filepath.Base(path))

		if err := e.filterPath(ctx, path, replacer, report); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) filterPath(ctx context.Context, path string, replacer *strings.Replacer, report *Report) error {
	logger := logging.Get(ctx)

	info, err := lstat(e.fs, path)
	if err != nil {
		report.Files = append(report.Files, e.skip(ctx, report, path, fmt.Errorf("failed to stat %s: %w", path, err)))
		return nil
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		logger.Debug().Str("path", path).Msg("Skipping symbolic link")
		return nil
	case info.IsDir():
		return e.filter(ctx, path, nil, replacer, report)
	default:
		report.Files = append(report.Files, e.rewriteFile(ctx, path, info.Mode().Perm(), replacer, report))
		return nil
	}
}

func (e *Engine) rewriteFile(
	ctx context.Context, path string, perm fs.FileMode, replacer *strings.Replacer, report *Report,
) FileResult {
	logger := logging.Get(ctx)

	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return e.skip(ctx, report, path, fmt.Errorf("failed to read %s: %w", path, err))
	}
	if !utf8.Valid(data) {
		_, _ = color.New(color.FgRed).Fprintf(e.out, "Failure to read file %s; non-ASCII content.\n", path)
		return e.skip(ctx, report, path, fmt.Errorf("failed to read %s: %w", path, ErrNotText))
	}

	lines := splitLines(string(data))
	changed := 0
	for i, line := range lines {
		replaced := replacer.Replace(line)
		if replaced != line {
			lines[i] = replaced
			changed++
		}
	}

	if changed == 0 {
		return FileResult{Path: path, Outcome: Unchanged}
	}

	if e.dryRun {
		logger.Info().Str("path", path).Int("lines", changed).Msg("Would rewrite file")
		return FileResult{Path: path, Outcome: Rewritten, Lines: changed}
	}

	if err := afero.WriteFile(e.fs, path, []byte(joinLines(lines)), perm); err != nil {
		return e.skip(ctx, report, path, fmt.Errorf("failed to write %s: %w", path, err))
	}

	logger.Info().Str("path", path).Int("lines", changed).Msg("Rewrote file")
	return FileResult{Path: path, Outcome: Rewritten, Lines: changed}
}

func (*Engine) skip(ctx context.Context, report *Report, path string, err error) FileResult {
	logging.Get(ctx).Warn().Err(err).Str("path", path).Msg("Skipping file")
	report.fail(err)
	return FileResult{Path: path, Outcome: Skipped, Err: err}
}

// listChildren returns the non-hidden entries of dir, sorted by name.
func listChildren(afs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(afs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		children = append(children, filepath.Join(dir, entry.Name()))
	}
	return children, nil
}

// lstat uses Lstat when the filesystem supports it so links can be detected.
func lstat(afs afero.Fs, name string) (os.FileInfo, error) {
	if lstater, ok := afs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err //nolint:wrapcheck // callers wrap with the path
	}
	return afs.Stat(name) //nolint:wrapcheck // callers wrap with the path
}
