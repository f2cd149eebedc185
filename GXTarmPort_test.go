package gxpacket

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readResult struct {
	data []byte
	err  error
}

// eofPort answers reads from a script, the way tarm/serial reports timeouts.
type eofPort struct {
	reads   []readResult
	written []byte
	closed  bool
}

func (e *eofPort) Read(p []byte) (int, error) {
	if len(e.reads) == 0 {
		return 0, io.EOF
	}
	r := e.reads[0]
	e.reads = e.reads[1:]
	return copy(p, r.data), r.err
}

func (e *eofPort) Write(p []byte) (int, error) {
	e.written = append(e.written, p...)
	return len(p), nil
}

func (e *eofPort) Close() error {
	e.closed = true
	return nil
}

func TestTarmPort_EmptyEOFIsTimeout(t *testing.T) {
	failed := errors.New("device removed")
	raw := &eofPort{reads: []readResult{
		{err: io.EOF},
		{data: []byte{1, 2}, err: io.EOF},
		{data: []byte{3}},
		{err: failed},
	}}
	tp := &tarmPort{p: raw}
	buf := make([]byte, 8)

	n, err := tp.read(buf, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = tp.read(buf, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, buf[:n])

	n, err = tp.read(buf, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, []byte{3}, buf[:n])

	_, err = tp.read(buf, time.Millisecond)
	assert.ErrorIs(t, err, failed)
}

func TestTarmPort_Device(t *testing.T) {
	raw := &eofPort{reads: []readResult{{data: []byte{0x7E}}}}
	dev := newPortDevice(&tarmPort{p: raw})
	n, err := dev.Output().Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{1, 2, 3}, raw.written)

	buf := make([]byte, 4)
	n, err = dev.Input().Read(buf, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7E}, buf[:n])
	n, err = dev.Input().Read(buf, time.Millisecond)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, dev.Close())
	assert.True(t, raw.closed)
}
