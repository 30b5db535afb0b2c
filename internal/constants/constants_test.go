package constants

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarsFilename(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "qflow_vars.sh", VarsFilename)
}

func TestDefaultTargetFiles(t *testing.T) {
	t.Parallel()

	files := DefaultTargetFiles()
	assert.Equal(t, []string{"qflow_vars.sh", "project_vars.sh", "qflow_exec.sh"}, files)

	// Callers may modify the slice without affecting later calls
	files[0] = "changed"
	assert.Equal(t, VarsFilename, DefaultTargetFiles()[0])
}

func TestMarkerScriptPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/opt/qflow", "scripts", "qflow.sh"), MarkerScriptPath("/opt/qflow"))
}

func TestDefaultQflowPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/usr/local/share/qflow", DefaultQflowPath)
}
