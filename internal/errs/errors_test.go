package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Equal(t, "[connection_failed] could not open pool: dial tcp: refused",
		Wrap(ErrKindConnectionFailed, "could not open pool", cause).Error())
	assert.Equal(t, "[invalid_input] 2 placeholders, 1 parameters",
		Newf(ErrKindInvalidInput, "%d placeholders, %d parameters", 2, 1).Error())
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(ErrKindQueryFailed, "exec failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsQueryFailed(err))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindNotFound, IsNotFound},
		{ErrKindTimeout, IsTimeout},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindInvalidInput, IsInvalidInput},
		{ErrKindPermissionDenied, IsPermissionDenied},
		{ErrKindConflict, IsConflict},
		{ErrKindClosed, IsClosed},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.True(t, tt.pred(New(tt.kind, "x")))
			assert.False(t, tt.pred(New(ErrKindUnknown, "x")))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestKindOf_NilAndForeign(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "unknown", ErrKind(99).String())
}
