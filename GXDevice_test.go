package gxpacket

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type memoryPort struct {
	data    []byte
	written []byte
	closes  int
}

func (m *memoryPort) read(p []byte, _ time.Duration) (int, error) {
	n := copy(p, m.data)
	m.data = m.data[n:]
	return n, nil
}

func (m *memoryPort) write(p []byte) (int, error) {
	m.written = append(m.written, p...)
	return len(p), nil
}

func (m *memoryPort) close() error {
	m.closes++
	return nil
}

func TestPortDevice_Streams(t *testing.T) {
	raw := &memoryPort{data: []byte{1, 2, 3}}
	d := newPortDevice(raw)
	buf := make([]byte, 8)
	n, err := d.Input().Read(buf, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])
	_, err = d.Output().Write([]byte{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, raw.written)

	require.NoError(t, d.Output().Close())
	_, err = d.Output().Write([]byte{6})
	assert.True(t, errors.Is(err, os.ErrClosed))
	_, err = d.Input().Read(buf, time.Millisecond)
	assert.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, raw.closes)
	_, err = d.Input().Read(buf, time.Millisecond)
	assert.True(t, errors.Is(err, os.ErrClosed))
}

func TestPortSettings_Default(t *testing.T) {
	assert.Equal(t, DefaultPortSettings(), PortSettings{}.orDefault())
	s := PortSettings{DataBits: 7, Parity: gxcommon.ParityEven, StopBits: gxcommon.StopBitsTwo}
	assert.Equal(t, s, s.orDefault())
}

func TestBaudRates(t *testing.T) {
	rates := BaudRates()
	assert.Len(t, rates, 30)
	assert.Equal(t, gxcommon.BaudRate(50), rates[0])
	assert.Contains(t, rates, gxcommon.BaudRate(115200))
	rates[0] = 1
	assert.Equal(t, gxcommon.BaudRate(50), BaudRates()[0])
}

func TestBugstMode(t *testing.T) {
	mode, err := bugstMode(9600, DefaultPortSettings())
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}, mode)

	mode, err = bugstMode(19200, PortSettings{DataBits: 7, Parity: gxcommon.ParityOdd, StopBits: gxcommon.StopBitsTwo})
	require.NoError(t, err)
	assert.Equal(t, serial.OddParity, mode.Parity)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
}

func TestOpenerFunc(t *testing.T) {
	called := ""
	o := OpenerFunc(func(path string, baudRate gxcommon.BaudRate) (Device, error) {
		called = path
		return nil, ErrDeviceUnavailable
	})
	_, err := o.Open("COM2", 9600)
	assert.Equal(t, "COM2", called)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
}
