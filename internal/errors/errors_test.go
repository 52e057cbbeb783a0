package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{name: "config", code: ErrCodeConfigInvalid, category: CategoryConfig},
		{name: "io", code: ErrCodeSnapshotCorrupt, category: CategoryIO},
		{name: "validation", code: ErrCodeInvalidInput, category: CategoryValidation},
		{name: "internal", code: ErrCodeRebuildFailed, category: CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestError_IncludesCodeAndMessage(t *testing.T) {
	err := New(ErrCodeRebuildFailed, "rebuild blew up", nil)
	assert.Equal(t, "[ERR_502_REBUILD_FAILED] rebuild blew up", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := Wrap(ErrCodeSnapshotWrite, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeRebuildInProgress, "busy", nil)
	b := New(ErrCodeRebuildInProgress, "different message", nil)

	assert.True(t, stderrors.Is(a, b))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeRebuildInProgress, "busy", nil)))
	assert.False(t, IsRetryable(New(ErrCodeConfigInvalid, "bad", nil)))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeEventsMalformed, "bad row", nil).
		WithDetail("row", "17").
		WithSuggestion("fix the events file")

	assert.Equal(t, "17", err.Details["row"])
	assert.Equal(t, "fix the events file", err.Suggestion)
}

func TestFormatForCLI(t *testing.T) {
	t.Run("core error with suggestion", func(t *testing.T) {
		err := New(ErrCodeEventsNotFound, "events file missing", nil).
			WithSuggestion("run with --events")
		out := FormatForCLI(err)

		assert.Contains(t, out, "events file missing")
		assert.Contains(t, out, "run with --events")
		assert.Contains(t, out, ErrCodeEventsNotFound)
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "Error: nope", FormatForCLI(stderrors.New("nope")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", FormatForCLI(nil))
	})
}
