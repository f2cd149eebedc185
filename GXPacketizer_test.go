package gxpacket

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPacketizer(t *testing.T, policy FramingPolicy) (*scriptedInput, *Packetizer, chan Frame, chan error) {
	t.Helper()
	in := newScriptedInput()
	frames := make(chan Frame, 64)
	errs := make(chan error, 4)
	p := NewPacketizer(in, policy,
		func(f Frame) { frames <- f },
		func(err error) { errs <- err })
	p.SetMaxReadWait(20 * time.Millisecond)
	require.NoError(t, p.Start())
	t.Cleanup(p.Stop)
	return in, p, frames, errs
}

func nextFrame(t *testing.T, frames <-chan Frame, timeout time.Duration) Frame {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(timeout):
		require.FailNow(t, "frame was not received")
	}
	return Frame{}
}

func noFrame(t *testing.T, frames <-chan Frame, wait time.Duration) {
	t.Helper()
	select {
	case f := <-frames:
		assert.Failf(t, "unexpected frame", "%s", f.Hex())
	case <-time.After(wait):
	}
}

func TestPacketizer_AutoGapJoinsContinuousBytes(t *testing.T) {
	in, p, frames, _ := startPacketizer(t, AutoGap{Gap: 200 * time.Millisecond})
	var all []byte
	for i := 0; i < 5; i++ {
		chunk := []byte{byte(i), byte(i + 0x10)}
		all = append(all, chunk...)
		in.push(chunk...)
		time.Sleep(10 * time.Millisecond)
	}
	f := nextFrame(t, frames, 2*time.Second)
	assert.Equal(t, all, f.Bytes())
	noFrame(t, frames, 300*time.Millisecond)
	assert.Equal(t, uint64(len(all)), p.BytesReceived())
	assert.Equal(t, uint64(1), p.FramesReceived())
}

func TestPacketizer_AutoGapSplitsOnPause(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, AutoGap{Gap: 30 * time.Millisecond})
	in.push(1, 2, 3)
	time.Sleep(300 * time.Millisecond)
	in.push(4, 5)
	assert.Equal(t, []byte{1, 2, 3}, nextFrame(t, frames, 2*time.Second).Bytes())
	assert.Equal(t, []byte{4, 5}, nextFrame(t, frames, 2*time.Second).Bytes())
	noFrame(t, frames, 100*time.Millisecond)
}

func TestPacketizer_FixedLengthEmitsImmediately(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, FixedLengthOrTimeout{Length: 4, Timeout: 10 * time.Second})
	in.push(1, 2, 3, 4)
	f := nextFrame(t, frames, time.Second)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Bytes())
	assert.Equal(t, 4, f.Len())
}

func TestPacketizer_FixedLengthTimeout(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, FixedLengthOrTimeout{Length: 10, Timeout: 50 * time.Millisecond})
	start := time.Now()
	in.push(7, 8, 9)
	f := nextFrame(t, frames, 2*time.Second)
	assert.Equal(t, []byte{7, 8, 9}, f.Bytes())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacketizer_FixedLengthTimeoutIsNotReset(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, FixedLengthOrTimeout{Length: 100, Timeout: 150 * time.Millisecond})
	start := time.Now()
	for i := 0; i < 10; i++ {
		in.push(byte(i))
		time.Sleep(30 * time.Millisecond)
	}
	f := nextFrame(t, frames, 2*time.Second)
	// An idle timer would not fire while bytes keep arriving every 30 ms.
	assert.Less(t, f.Len(), 10)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPacketizer_FixedLengthKeepsRemainder(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, FixedLengthOrTimeout{Length: 4, Timeout: 100 * time.Millisecond})
	in.push(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	assert.Equal(t, []byte{1, 2, 3, 4}, nextFrame(t, frames, time.Second).Bytes())
	assert.Equal(t, []byte{5, 6, 7, 8}, nextFrame(t, frames, time.Second).Bytes())
	assert.Equal(t, []byte{9, 10}, nextFrame(t, frames, time.Second).Bytes())
}

func TestPacketizer_ReadErrorDropsPartialFrame(t *testing.T) {
	in, p, frames, errs := startPacketizer(t, AutoGap{Gap: 10 * time.Second})
	in.push(1, 2)
	time.Sleep(50 * time.Millisecond)
	in.fail <- io.EOF
	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, ErrReadFailed))
		assert.True(t, errors.Is(err, io.EOF))
		assert.Equal(t, ReadFailed, KindOf(err))
	case <-time.After(2 * time.Second):
		require.FailNow(t, "read error was not reported")
	}
	noFrame(t, frames, 100*time.Millisecond)
	assert.Equal(t, uint64(2), p.BytesReceived())
}

func TestPacketizer_StopDiscardsPartialFrame(t *testing.T) {
	in, p, frames, errs := startPacketizer(t, AutoGap{Gap: 10 * time.Second})
	in.push(1, 2, 3)
	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	p.Stop()
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, p.IsRunning())
	noFrame(t, frames, 50*time.Millisecond)
	assert.Empty(t, errs)
}

func TestPacketizer_StartTwice(t *testing.T) {
	_, p, _, _ := startPacketizer(t, nil)
	assert.ErrorIs(t, p.Start(), ErrAlreadyRunning)
}

func TestPacketizer_SetPolicy(t *testing.T) {
	in, p, frames, _ := startPacketizer(t, AutoGap{Gap: 10 * time.Second})
	require.Error(t, p.SetPolicy(FixedLengthOrTimeout{Length: 0, Timeout: time.Second}))
	assert.Equal(t, AutoGap{Gap: 10 * time.Second}, p.Policy())

	require.NoError(t, p.SetPolicy(FixedLengthOrTimeout{Length: 2, Timeout: 10 * time.Second}))
	time.Sleep(60 * time.Millisecond)
	in.push(0xAA, 0xBB)
	assert.Equal(t, []byte{0xAA, 0xBB}, nextFrame(t, frames, time.Second).Bytes())

	require.NoError(t, p.SetPolicy(nil))
	assert.Equal(t, AutoGap{Gap: 5 * time.Millisecond}, p.Policy())
}

func TestPacketizer_HexMatchesBytes(t *testing.T) {
	in, _, frames, _ := startPacketizer(t, AutoGap{Gap: 20 * time.Millisecond})
	data := []byte{0x00, 0x0f, 0xa5, 0xff, 0x10}
	in.push(data...)
	f := nextFrame(t, frames, time.Second)
	assert.Equal(t, "000FA5FF10", f.Hex())
	decoded, err := ParseHex(f.Hex())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(f.Bytes(), decoded))
}

func TestPacketizer_LargeChunkIsReadInBlocks(t *testing.T) {
	in, p, frames, _ := startPacketizer(t, AutoGap{Gap: 100 * time.Millisecond})
	data := make([]byte, ReadChunkSize*2+10)
	for i := range data {
		data[i] = byte(i)
	}
	in.push(data...)
	f := nextFrame(t, frames, 2*time.Second)
	assert.Equal(t, data, f.Bytes())
	assert.Equal(t, uint64(len(data)), p.BytesReceived())
}

func TestPacketizer_SetPolicySplitsPendingBytes(t *testing.T) {
	in, p, frames, _ := startPacketizer(t, AutoGap{Gap: 2 * time.Second})
	in.push(1, 2, 3, 4)
	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.SetPolicy(FixedLengthOrTimeout{Length: 2, Timeout: 100 * time.Millisecond}))
	assert.Equal(t, "0102", nextFrame(t, frames, time.Second).Hex())
	assert.Equal(t, "0304", nextFrame(t, frames, time.Second).Hex())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	noFrame(t, frames, 200*time.Millisecond)
}

func TestPacketizer_SetPolicyReanchorsPendingDeadline(t *testing.T) {
	in, p, frames, _ := startPacketizer(t, FixedLengthOrTimeout{Length: 10, Timeout: 10 * time.Second})
	in.push(1, 2, 3)
	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.SetPolicy(AutoGap{Gap: 30 * time.Millisecond}))
	assert.Equal(t, []byte{1, 2, 3}, nextFrame(t, frames, time.Second).Bytes())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPacketizer_SetPolicyRejectsNilPointer(t *testing.T) {
	_, p, _, _ := startPacketizer(t, AutoGap{Gap: 20 * time.Millisecond})
	err := p.SetPolicy((*FixedLengthOrTimeout)(nil))
	require.Error(t, err)
	assert.Equal(t, AutoGap{Gap: 20 * time.Millisecond}, p.Policy())
	require.NoError(t, p.SetPolicy(&FixedLengthOrTimeout{Length: 3, Timeout: time.Second}))
	assert.Equal(t, FixedLengthOrTimeout{Length: 3, Timeout: time.Second}, p.Policy())
}
