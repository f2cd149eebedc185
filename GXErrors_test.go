package gxpacket

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := newError(ReadFailed, "/dev/ttyS0", os.ErrClosed)
	assert.True(t, errors.Is(err, ErrReadFailed))
	assert.True(t, errors.Is(err, os.ErrClosed))
	assert.False(t, errors.Is(err, ErrWriteFailed))
	assert.Equal(t, "/dev/ttyS0: read failed: "+os.ErrClosed.Error(), err.Error())

	wrapped := fmt.Errorf("session: %w", err)
	assert.Equal(t, ReadFailed, KindOf(wrapped))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("other")))
}

func TestError_IsWithCause(t *testing.T) {
	err := newError(DeviceUnavailable, "COM3", ErrPortInUse)
	assert.True(t, errors.Is(err, &Error{Kind: DeviceUnavailable, Err: ErrPortInUse}))
	assert.False(t, errors.Is(err, &Error{Kind: DeviceUnavailable, Err: os.ErrClosed}))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "PermissionDenied", PermissionDenied.String())
	assert.Equal(t, "NotConfigured", NotConfigured.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
}

func TestClassifyOpenError(t *testing.T) {
	err := classifyOpenError("/dev/ttyUSB0", &fs.PathError{Op: "open", Path: "/dev/ttyUSB0", Err: fs.ErrPermission})
	assert.Equal(t, PermissionDenied, err.Kind)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	err = classifyOpenError("/dev/ttyUSB0", fs.ErrNotExist)
	assert.Equal(t, DeviceUnavailable, err.Kind)

	orig := newError(NotConfigured, "", nil)
	assert.Same(t, orig, classifyOpenError("/dev/ttyUSB0", orig))
}
