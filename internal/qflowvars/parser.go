// Package qflowvars parses the "set key=value" assignments that qflow records in
// qflow_vars.sh.
package qflowvars

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
)

// Paths holds the values recorded in qflow_vars.sh when the project was created.
// Empty fields were not present in the file.
type Paths struct {
	Project   string
	Toolchain string
	Tech      string
	Version   string
}

// Warning reports a key missing from qflow_vars.sh.
type Warning struct {
	Key   string
	Field string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s not found in %s", w.Field, constants.VarsFilename)
}

// Result is the outcome of parsing a variables file.
type Result struct {
	Paths    Paths
	Warnings []Warning
}

// Parse reads set assignments from r. Unknown keys are ignored and a repeated
// key keeps its last value.
func Parse(r io.Reader) (*Result, error) {
	var paths Paths

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		switch key {
		case constants.KeyProjectPath:
			paths.Project = value
		case constants.KeyScriptDir:
			// scriptdir points at <qflow>/scripts
			if value != "" {
				paths.Toolchain = path.Dir(value)
			}
		case constants.KeyTechDir:
			paths.Tech = value
		case constants.KeyQflowVersion:
			paths.Version = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}

	return &Result{Paths: paths, Warnings: missing(paths)}, nil
}

// ParseFile parses the variables file at name.
func ParseFile(fs afero.Fs, name string) (*Result, error) {
	file, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() { _ = file.Close() }()

	result, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return result, nil
}

// parseLine splits "set key=value". Token 1 must contain exactly one '='.
func parseLine(line string) (key, value string, ok bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 || tokens[0] != "set" {
		return "", "", false
	}

	pair := strings.Split(tokens[1], "=")
	if len(pair) != 2 {
		return "", "", false
	}
	return pair[0], pair[1], true
}

func missing(p Paths) []Warning {
	var warnings []Warning
	if p.Project == "" {
		warnings = append(warnings, Warning{Key: constants.KeyProjectPath, Field: "Project path"})
	}
	if p.Toolchain == "" {
		warnings = append(warnings, Warning{Key: constants.KeyScriptDir, Field: "Qflow path"})
	}
	if p.Tech == "" {
		warnings = append(warnings, Warning{Key: constants.KeyTechDir, Field: "Technology path"})
	}
	if p.Version == "" {
		warnings = append(warnings, Warning{Key: constants.KeyQflowVersion, Field: "Qflow version"})
	}
	return warnings
}
