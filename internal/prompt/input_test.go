package prompt

import (
	"errors"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	err     error
	answer  string
	prompts []string
}

func (s *scriptedPrompter) Prompt(p string) (string, error) {
	s.prompts = append(s.prompts, p)
	return s.answer, s.err
}

func (*scriptedPrompter) Close() error { return nil }

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err     error
		wantErr error
		name    string
		answer  string
		want    bool
	}{
		{name: "yes", answer: "yes", want: true},
		{name: "y upper", answer: " Y ", want: true},
		{name: "no", answer: "n"},
		{name: "empty defaults to no", answer: ""},
		{name: "anything else", answer: "sure"},
		{name: "ctrl-c", err: liner.ErrPromptAborted, wantErr: ErrCancelled},
		{name: "eof", err: io.EOF, wantErr: ErrCancelled},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &scriptedPrompter{answer: tt.answer, err: tt.err}
			got, err := Confirm(p, "Rewrite 3 files?")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			require.Len(t, p.prompts, 1)
			assert.Contains(t, p.prompts[0], "Rewrite 3 files? [y/N]")
		})
	}
}

func TestConfirm_OtherError(t *testing.T) {
	t.Parallel()

	_, err := Confirm(&scriptedPrompter{err: errors.New("tty gone")}, "Continue?")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), "confirmation prompt failed")
}
