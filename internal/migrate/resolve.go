package migrate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
)

// Request holds the user supplied locations. Empty fields are derived.
type Request struct {
	ProjectPath   string
	ToolchainPath string
	TechPath      string
}

// Locations are the absolute destinations of a migration.
type Locations struct {
	ProjectPath   string
	ToolchainPath string
	TechPath      string
}

// resolveProject applies the working directory default and checks for qflow_vars.sh.
func (m *Migrator) resolveProject(projectPath string) (string, error) {
	if projectPath == "" {
		m.say("Assuming current working directory is the project path.")
		wd, err := m.opts.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		projectPath = wd
	}

	ok, err := afero.Exists(m.opts.Fs, filepath.Join(projectPath, constants.VarsFilename))
	if err != nil {
		return "", fmt.Errorf("failed to check project path: %w", err)
	}
	if !ok {
		m.say("No %s found in project path.", constants.VarsFilename)
		return "", validationErrorf("no %s found in project path %s", constants.VarsFilename, projectPath)
	}

	m.okay()
	return projectPath, nil
}

// resolveToolchain applies the default installation and checks for scripts/qflow.sh.
func (m *Migrator) resolveToolchain(toolchainPath string) (string, error) {
	if toolchainPath == "" {
		toolchainPath = m.opts.DefaultToolchainPath
		m.say("Assuming qflow installation is the default (%s).", toolchainPath)
	}

	ok, err := afero.Exists(m.opts.Fs, constants.MarkerScriptPath(toolchainPath))
	if err != nil {
		return "", fmt.Errorf("failed to check qflow path: %w", err)
	}
	if !ok {
		m.say("No %s found in qflow path %s subdirectory.", constants.MarkerScript, constants.ScriptsDir)
		return "", validationErrorf("no %s found in %s",
			filepath.Join(constants.ScriptsDir, constants.MarkerScript), toolchainPath)
	}

	m.okay()
	return toolchainPath, nil
}

// resolveTech re-roots the original tech path under the new project path
// when no tech path was given.
func (m *Migrator) resolveTech(techPath, projectOrig, techOrig, projectPath string) (string, error) {
	if techPath != "" {
		return techPath, nil
	}

	m.say("Assuming technology is defined within the project.")
	derived, ok := reroot(projectOrig, techOrig, projectPath)
	if !ok {
		m.say("No path to the technology specified, and technology is not in the project.")
		return "", validationErrorf("technology path %q is not inside project path %q; use -tech_path", techOrig, projectOrig)
	}

	m.okay()
	return derived, nil
}

// reroot moves orig from under oldRoot to under newRoot. orig must equal
// oldRoot or lie below it on a separator boundary.
func reroot(oldRoot, orig, newRoot string) (string, bool) {
	if oldRoot == "" || orig == "" {
		return "", false
	}
	if orig == oldRoot {
		return newRoot, true
	}

	prefix := strings.TrimSuffix(oldRoot, "/")
	if !strings.HasPrefix(orig, prefix+"/") {
		return "", false
	}
	return newRoot + orig[len(prefix):], true
}

// absolute normalizes every location.
func absolute(loc Locations) (Locations, error) {
	for _, p := range []*string{&loc.ProjectPath, &loc.ToolchainPath, &loc.TechPath} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return Locations{}, fmt.Errorf("failed to make %s absolute: %w", *p, err)
		}
		*p = abs
	}
	return loc, nil
}

func (m *Migrator) okay() {
	_, _ = color.New(color.FgGreen).Fprintln(m.opts.Out, "Okay.")
}

func (m *Migrator) say(format string, args ...any) {
	_, _ = fmt.Fprintf(m.opts.Out, format+"\n", args...)
}

func (m *Migrator) warn(format string, args ...any) {
	_, _ = color.New(color.FgYellow).Fprintf(m.opts.Out, "Warning:  "+format+"\n", args...)
}
