// Package constants contains file names and defaults shared across qflow-migrate.
package constants

import "path/filepath"

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "qflow-migrate"

	// VarsFilename is the project variable-assignment file written by qflow.
	// Its presence marks a directory as a qflow project.
	VarsFilename = "qflow_vars.sh"

	// ProjectVarsFilename is the secondary project variables file.
	ProjectVarsFilename = "project_vars.sh"

	// ExecFilename is the qflow execution wrapper script.
	ExecFilename = "qflow_exec.sh"

	// ScriptsDir is the scripts subdirectory of a qflow installation.
	ScriptsDir = "scripts"

	// MarkerScript is the script whose presence marks a qflow installation.
	MarkerScript = "qflow.sh"

	// DefaultQflowPath is the default qflow installation directory.
	DefaultQflowPath = "/usr/local/share/qflow"

	// DefaultQflowBinary is the qflow executable queried for its version.
	DefaultQflowBinary = "qflow"

	// LogFilename is the default log file name.
	LogFilename = "qflow-migrate.log"

	// HistoryFilename is the migration history database file name.
	HistoryFilename = "history.db"

	// ConfigFilename is the user configuration file name.
	ConfigFilename = "config.yml"
)

// DefaultTargetFiles returns the project files rewritten by a migration.
// The first entry is the only file that receives the version substitution.
func DefaultTargetFiles() []string {
	return []string{VarsFilename, ProjectVarsFilename, ExecFilename}
}

// MarkerScriptPath returns the marker script location inside a qflow installation.
func MarkerScriptPath(qflowPath string) string {
	return filepath.Join(qflowPath, ScriptsDir, MarkerScript)
}
