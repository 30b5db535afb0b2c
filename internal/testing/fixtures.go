package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
)

// Project describes the paths recorded in a fixture qflow_vars.sh.
type Project struct {
	Root      string
	Toolchain string
	Tech      string
	Version   string
}

// VarsContent renders a qflow_vars.sh in the layout qflow writes.
func (p Project) VarsContent() string {
	var b strings.Builder
	b.WriteString("#!/bin/tcsh -f\n")
	b.WriteString("#-------------------------------------------\n")
	fmt.Fprintf(&b, "# qflow variables for project %s\n", p.Root)
	b.WriteString("#-------------------------------------------\n\n")
	if p.Root != "" {
		fmt.Fprintf(&b, "set projectpath=%s\n", p.Root)
	}
	if p.Tech != "" {
		fmt.Fprintf(&b, "set techdir=%s\n", p.Tech)
	}
	if p.Root != "" {
		fmt.Fprintf(&b, "set sourcedir=%s/source\n", p.Root)
		fmt.Fprintf(&b, "set synthlog=%s/synth.log\n", p.Root)
	}
	if p.Toolchain != "" {
		fmt.Fprintf(&b, "set scriptdir=%s/scripts\n", p.Toolchain)
		fmt.Fprintf(&b, "set bindir=%s/bin\n", p.Toolchain)
	}
	if p.Version != "" {
		fmt.Fprintf(&b, "set qflowversion=%s\n", p.Version)
	}
	return b.String()
}

// ProjectVarsContent renders a project_vars.sh referencing the technology.
func (p Project) ProjectVarsContent() string {
	return fmt.Sprintf("#!/bin/tcsh -f\n# project variables\nset techfile=%s/osu035.lef\nset scriptdir=%s/scripts\n",
		p.Tech, p.Toolchain)
}

// ExecContent renders a qflow_exec.sh wrapper.
func (p Project) ExecContent() string {
	return fmt.Sprintf("#!/bin/tcsh -f\n%s/scripts/synthesize.sh %s counter || exit 1\n",
		p.Toolchain, p.Root)
}

// WriteProject writes the three qflow project files for p under dir.
func WriteProject(t *testing.T, fs afero.Fs, dir string, p Project) {
	t.Helper()

	files := map[string]string{
		constants.VarsFilename:        p.VarsContent(),
		constants.ProjectVarsFilename: p.ProjectVarsContent(),
		constants.ExecFilename:        p.ExecContent(),
	}
	for name, content := range files {
		WriteFile(t, fs, filepath.Join(dir, name), content)
	}
}

// WriteToolchain creates the marker script of a qflow installation at dir.
func WriteToolchain(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	WriteFile(t, fs, constants.MarkerScriptPath(dir), "#!/bin/tcsh -f\n")
}

// WriteFile writes content to name, creating parent directories.
func WriteFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()

	if err := fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// ReadFile returns the content of name as a string.
func ReadFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()

	data, err := afero.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}
