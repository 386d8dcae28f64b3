package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = New("sentinel")

type codedError struct{ code string }

func (e *codedError) Error() string { return e.code }

func TestWrapKeepsIdentity(t *testing.T) {
	wrapped := Wrapf(Wrap(errSentinel, "load donations"), "claim %s", "don_1")

	assert.True(t, Is(wrapped, errSentinel))
	assert.Equal(t, "claim don_1: load donations: sentinel", wrapped.Error())
	assert.Contains(t, fmt.Sprintf("%+v", wrapped), "errors_test.go")
}

func TestNilStaysNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, WithStack(nil))
}

func TestAsFindsTypedError(t *testing.T) {
	err := WithStack(&codedError{code: "STORAGE_UNAVAILABLE"})

	var coded *codedError
	assert.True(t, As(err, &coded))
	assert.Equal(t, "STORAGE_UNAVAILABLE", coded.code)

	assert.False(t, As(Errorf("plain %d", 1), &coded))
}
