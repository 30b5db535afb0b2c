package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestConfig(writer *strings.Builder) Config {
	return Config{
		Writer:      writer,
		ProjectPath: "/projects/counter",
		Level:       InfoLevel,
	}
}

func TestGet_WithoutLogger(t *testing.T) {
	t.Parallel()

	logger := Get(context.Background())

	require.NotNil(t, logger)
	// When no logger is attached, zerolog.Ctx returns a disabled logger
	require.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestNew_WithCustomWriter(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx, err := New(context.Background(), nil, createTestConfig(&buf))
	require.NoError(t, err)

	logger := Get(ctx)
	assert.Equal(t, InfoLevel, logger.GetLevel())

	logger.Info().Str("file", "qflow_vars.sh").Msg("rewritten")

	output := buf.String()
	assert.Contains(t, output, `"project_path":"/projects/counter"`)
	assert.Contains(t, output, `"file":"qflow_vars.sh"`)
	assert.Contains(t, output, `"message":"rewritten"`)
}

func TestNew_LevelFiltersMessages(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	ctx, err := New(context.Background(), nil, createTestConfig(&buf))
	require.NoError(t, err)

	Get(ctx).Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_NoWriterNoFilesystem_ReturnsError(t *testing.T) {
	t.Parallel()

	ctx, err := New(context.Background(), nil, Config{Level: InfoLevel})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "filesystem required when no writer provided")
	assert.Nil(t, ctx)
}

func TestNew_ReadOnlyFilesystem_ReturnsError(t *testing.T) {
	t.Parallel()

	ctx, err := New(context.Background(), afero.NewReadOnlyFs(afero.NewMemMapFs()), Config{Level: InfoLevel})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get log path")
	assert.Nil(t, ctx)
}
