// Package toolchain queries the installed qflow for its version.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/wizzomafizzo/qflow-migrate/internal/logging"
)

// VersionResolver returns the version of the installed toolchain.
type VersionResolver interface {
	ResolveVersion(ctx context.Context) (string, error)
}

// ExternalProcessError reports a failed or unusable version query.
type ExternalProcessError struct {
	Err    error
	Binary string
	Output string
}

func (e *ExternalProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("cannot get version number from %s (output %q): %v", e.Binary, e.Output, e.Err)
	}
	return fmt.Sprintf("cannot get version number from %s: %v", e.Binary, e.Err)
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}

// IsExternalProcessError returns true if the error is an ExternalProcessError
func IsExternalProcessError(err error) bool {
	var procErr *ExternalProcessError
	return errors.As(err, &procErr)
}

// ErrMalformedVersion is returned when the version output has no usable line.
var ErrMalformedVersion = errors.New("unexpected version output")

// waitDelay bounds how long output pipes may stay open after the process is killed.
const waitDelay = 500 * time.Millisecond

// Launcher runs "<binary> -v" to learn the installed qflow version.
type Launcher struct {
	Binary  string
	Timeout time.Duration
}

// NewLauncher creates a launcher for the given binary and timeout
func NewLauncher(binary string, timeout time.Duration) *Launcher {
	return &Launcher{Binary: binary, Timeout: timeout}
}

// ResolveVersion runs the version query and parses its output.
func (l *Launcher) ResolveVersion(ctx context.Context) (string, error) {
	logger := logging.Get(ctx)

	binaryPath, err := exec.LookPath(l.Binary)
	if err != nil {
		return "", &ExternalProcessError{Binary: l.Binary, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	// #nosec G204 -- binary comes from the user's own configuration
	cmd := exec.CommandContext(ctx, binaryPath, "-v")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	logger.Debug().
		Str("binary", binaryPath).
		Dur("timeout", l.Timeout).
		Msg("Querying qflow version")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("timed out after %s: %w", l.Timeout, ctx.Err())
		}
		logger.Error().
			Str("binary", binaryPath).
			Str("stderr", stderr.String()).
			Err(err).
			Msg("qflow version query failed")
		return "", &ExternalProcessError{Binary: binaryPath, Err: err, Output: stdout.String()}
	}

	version, err := ParseVersionOutput(stdout.String())
	if err != nil {
		return "", &ExternalProcessError{Binary: binaryPath, Err: err, Output: stdout.String()}
	}

	logger.Debug().Str("version", version).Msg("qflow version resolved")
	return version, nil
}

// ParseVersionOutput extracts "<major>.<minor>" from output such as
// "Qflow version 1 revision 4". The first non-empty line decides: it must
// have exactly five fields.
func ParseVersionOutput(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		tokens := strings.Fields(line)
		switch len(tokens) {
		case 0:
			continue
		case 5:
			return tokens[2] + "." + tokens[4], nil
		default:
			return "", fmt.Errorf("%w: %q", ErrMalformedVersion, strings.TrimSpace(line))
		}
	}
	return "", fmt.Errorf("%w: no output", ErrMalformedVersion)
}

// IsDowngrade reports whether current is an older version than previous.
// Versions that do not parse are never a downgrade.
func IsDowngrade(previous, current string) bool {
	prev, err := semver.NewVersion(previous)
	if err != nil {
		return false
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	return cur.LessThan(prev)
}
