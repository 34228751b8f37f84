package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeTranslationFailed, "translate query", cause)

	require.EqualError(t, err, "translate query: boom")
	require.True(t, IsCode(err, CodeTranslationFailed))
	require.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("pipeline: %w", err)
	require.Equal(t, CodeTranslationFailed, CodeOf(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	require.Empty(t, CodeOf(errors.New("plain")))
	require.False(t, IsCode(nil, CodeInvalidInput))
	require.EqualError(t, Wrap(CodeInvalidInput, "query is required", nil), "query is required")
}
