package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedSentinels(t *testing.T) {
	assert.True(t, stderrors.Is(NotFound("missing"), ErrNotFound))
	assert.True(t, stderrors.Is(AlreadyExists("dup"), ErrAlreadyExists))
	assert.True(t, stderrors.Is(InvalidArgument("bad"), ErrInvalidArgument))
	assert.True(t, stderrors.Is(Timeout("too slow"), ErrTimeout))
	assert.False(t, stderrors.Is(NotFound("missing"), ErrAlreadyExists))
}

func TestWrapPreservesType(t *testing.T) {
	inner := NotFound("no such symbol")
	wrapped := Wrap(inner, "fetch failed")

	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "fetch failed: no such symbol", wrapped.Error())

	var appErr *AppError
	require.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, ErrorTypeNotFound, appErr.Type)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrap(cause, "dial failed")
	assert.Equal(t, cause, stderrors.Unwrap(wrapped))
}
