package gxpacket

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransmitter_ProgressIsCumulative(t *testing.T) {
	for _, tc := range []struct {
		n, chunk int
	}{
		{1, 1024}, {1023, 1024}, {1024, 1024}, {1025, 1024},
		{2048, 1024}, {5000, 1024}, {10, 3}, {9, 3},
	} {
		t.Run(fmt.Sprintf("%d/%d", tc.n, tc.chunk), func(t *testing.T) {
			out := &recordingOutput{}
			tr := NewTransmitter(out, tc.chunk)
			data := make([]byte, tc.n)
			for i := range data {
				data[i] = byte(i)
			}
			var progress []int
			sent, err := tr.Send(data, func(sent, total int) {
				assert.Equal(t, tc.n, total)
				progress = append(progress, sent)
			})
			require.NoError(t, err)
			assert.Equal(t, tc.n, sent)

			chunks := (tc.n + tc.chunk - 1) / tc.chunk
			require.Len(t, progress, chunks)
			for i, v := range progress {
				assert.Equal(t, min((i+1)*tc.chunk, tc.n), v)
			}
			writes := out.written()
			require.Len(t, writes, chunks)
			var joined []byte
			for _, w := range writes {
				assert.LessOrEqual(t, len(w), tc.chunk)
				joined = append(joined, w...)
			}
			assert.Equal(t, data, joined)
			assert.Equal(t, uint64(tc.n), tr.BytesSent())
		})
	}
}

func TestTransmitter_FailureOnSecondChunk(t *testing.T) {
	out := &recordingOutput{failAt: 2}
	tr := NewTransmitter(out, 1024)
	data := make([]byte, 2048)
	var progress []int
	sent, err := tr.Send(data, func(sent, total int) {
		progress = append(progress, sent)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.True(t, errors.Is(err, errSink))
	assert.Equal(t, []int{1024}, progress)
	assert.Equal(t, 1024, sent)
	assert.Len(t, out.written(), 2)
	assert.Equal(t, uint64(1024), tr.BytesSent())
}

func TestTransmitter_EmptyData(t *testing.T) {
	out := &recordingOutput{}
	tr := NewTransmitter(out, 0)
	assert.Equal(t, DefaultChunkSize, tr.ChunkSize())
	called := false
	sent, err := tr.Send(nil, func(int, int) { called = true })
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.False(t, called)
	assert.Empty(t, out.written())
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestTransmitter_ShortWriteFails(t *testing.T) {
	tr := NewTransmitter(shortWriter{}, 8)
	sent, err := tr.Send([]byte{1, 2, 3, 4}, nil)
	assert.True(t, errors.Is(err, io.ErrShortWrite))
	assert.Equal(t, WriteFailed, KindOf(err))
	assert.Equal(t, 2, sent)
}
