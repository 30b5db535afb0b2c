package qflowvars

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
)

const fullVars = `#!/bin/tcsh -f
#-------------------------------------------
# qflow variables for project /old/proj
#-------------------------------------------

set projectpath=/old/proj
set techdir=/old/proj/tech
set sourcedir=/old/proj/source
set synthlog=/old/proj/synth.log
set scriptdir=/old/tool/scripts
set qflowversion=1.0
`

func TestParse_AllKeys(t *testing.T) {
	t.Parallel()

	result, err := Parse(strings.NewReader(fullVars))
	require.NoError(t, err)

	assert.Equal(t, Paths{
		Project:   "/old/proj",
		Toolchain: "/old/tool",
		Tech:      "/old/proj/tech",
		Version:   "1.0",
	}, result.Paths)
	assert.Empty(t, result.Warnings)
}

func TestParse_MissingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		drop    string
		key     string
		message string
		want    Paths
	}{
		{
			name:    "project",
			drop:    "set projectpath=/old/proj\n",
			key:     constants.KeyProjectPath,
			message: "Project path not found in qflow_vars.sh",
			want:    Paths{Toolchain: "/old/tool", Tech: "/old/proj/tech", Version: "1.0"},
		},
		{
			name:    "scriptdir",
			drop:    "set scriptdir=/old/tool/scripts\n",
			key:     constants.KeyScriptDir,
			message: "Qflow path not found in qflow_vars.sh",
			want:    Paths{Project: "/old/proj", Tech: "/old/proj/tech", Version: "1.0"},
		},
		{
			name:    "techdir",
			drop:    "set techdir=/old/proj/tech\n",
			key:     constants.KeyTechDir,
			message: "Technology path not found in qflow_vars.sh",
			want:    Paths{Project: "/old/proj", Toolchain: "/old/tool", Version: "1.0"},
		},
		{
			name:    "version",
			drop:    "set qflowversion=1.0\n",
			key:     constants.KeyQflowVersion,
			message: "Qflow version not found in qflow_vars.sh",
			want:    Paths{Project: "/old/proj", Toolchain: "/old/tool", Tech: "/old/proj/tech"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content := strings.Replace(fullVars, tt.drop, "", 1)
			result, err := Parse(strings.NewReader(content))
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.Paths)
			require.Len(t, result.Warnings, 1)
			assert.Equal(t, tt.key, result.Warnings[0].Key)
			assert.Equal(t, tt.message, result.Warnings[0].String())
		})
	}
}

func TestParse_IgnoresMalformedLines(t *testing.T) {
	t.Parallel()

	content := strings.Join([]string{
		"setenv projectpath /wrong",
		"set",
		"set projectpath",
		"set projectpath=/a=b",
		"# set techdir=/commented",
		"   set   techdir=/old/tech   # trailing",
		"set projectpath=/first",
		"set projectpath=/second",
	}, "\n")

	result, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, "/second", result.Paths.Project)
	assert.Equal(t, "/old/tech", result.Paths.Tech)
	assert.Empty(t, result.Paths.Toolchain)
	assert.Len(t, result.Warnings, 2)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	result, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Paths{}, result.Paths)
	assert.Len(t, result.Warnings, 4)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/old/proj/qflow_vars.sh", []byte(fullVars), 0o644))

	result, err := ParseFile(fs, "/old/proj/qflow_vars.sh")
	require.NoError(t, err)
	assert.Equal(t, "/old/proj", result.Paths.Project)

	_, err = ParseFile(fs, "/missing/qflow_vars.sh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
