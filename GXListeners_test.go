package gxpacket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	frames int
}

func (c *countingListener) OnFrame(Frame) {
	c.frames++
}

// sliceListener is not comparable.
type sliceListener []Frame

func (sliceListener) OnFrame(Frame) {}

func TestListenerRegistry_NoDuplicates(t *testing.T) {
	var r listenerRegistry
	a, b := &countingListener{}, &countingListener{}
	require.NoError(t, r.add(a))
	require.NoError(t, r.add(a))
	require.NoError(t, r.add(b))
	assert.Len(t, r.snapshot(), 2)

	assert.True(t, r.remove(a))
	assert.False(t, r.remove(a))
	assert.Equal(t, []FrameListener{b}, r.snapshot())

	r.clear()
	assert.Empty(t, r.snapshot())
}

func TestListenerRegistry_Invalid(t *testing.T) {
	var r listenerRegistry
	assert.ErrorIs(t, r.add(nil), ErrInvalidListener)
	assert.ErrorIs(t, r.add(sliceListener{}), ErrInvalidListener)
	assert.False(t, r.remove(sliceListener{}))
	assert.Empty(t, r.snapshot())
}

func TestListenerRegistry_SnapshotIsStable(t *testing.T) {
	var r listenerRegistry
	a, b := &countingListener{}, &countingListener{}
	require.NoError(t, r.add(a))
	require.NoError(t, r.add(b))
	snap := r.snapshot()
	r.remove(a)
	require.NoError(t, r.add(&countingListener{}))
	assert.Equal(t, []FrameListener{a, b}, snap)
	for _, l := range r.snapshot() {
		l.OnFrame(Frame{})
	}
	assert.Zero(t, a.frames)
	assert.Equal(t, 1, b.frames)
}

func TestListenerRegistry_ErrorListener(t *testing.T) {
	var r listenerRegistry
	assert.Nil(t, r.errorListener())
	var got error
	r.setErrorListener(ErrorListenerFunc(func(err error) { got = err }))
	r.errorListener().OnError(ErrReadFailed)
	assert.Equal(t, ErrReadFailed, got)
	r.setErrorListener(nil)
	assert.Nil(t, r.errorListener())
}

func TestSendListenerFuncs(t *testing.T) {
	var progress []int
	var done error = ErrNotRunning
	l := SendListenerFuncs{Progress: func(sent, total int) { progress = append(progress, sent) }}
	l.OnProgress(1, 2)
	l.OnComplete(nil)
	assert.Equal(t, []int{1}, progress)

	l = SendListenerFuncs{Complete: func(err error) { done = err }}
	l.OnProgress(1, 2)
	l.OnComplete(nil)
	assert.NoError(t, done)
}
