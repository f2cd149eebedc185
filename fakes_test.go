package gxpacket

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/Gurux/gxcommon-go"
	"go.uber.org/atomic"
)

// scriptedInput returns the chunks pushed to it. A pushed error ends the stream.
type scriptedInput struct {
	data   chan []byte
	fail   chan error
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	rest   []byte
	closes atomic.Int32
}

func newScriptedInput() *scriptedInput {
	return &scriptedInput{
		data: make(chan []byte, 64),
		fail: make(chan error, 1),
		done: make(chan struct{}),
	}
}

func (s *scriptedInput) push(b ...byte) {
	s.data <- b
}

func (s *scriptedInput) Read(p []byte, timeout time.Duration) (int, error) {
	s.mu.Lock()
	if len(s.rest) != 0 {
		n := copy(p, s.rest)
		s.rest = s.rest[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b := <-s.data:
		n := copy(p, b)
		if n < len(b) {
			s.mu.Lock()
			s.rest = append(s.rest, b[n:]...)
			s.mu.Unlock()
		}
		return n, nil
	case err := <-s.fail:
		return 0, err
	case <-s.done:
		return 0, os.ErrClosed
	case <-timer.C:
		return 0, nil
	}
}

func (s *scriptedInput) Close() error {
	s.closes.Inc()
	s.once.Do(func() { close(s.done) })
	return nil
}

// recordingOutput records writes. A write with index failAt (1-based) fails.
type recordingOutput struct {
	mu     sync.Mutex
	writes [][]byte
	failAt int
	closed bool
}

var errSink = errors.New("sink failure")

func (o *recordingOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, os.ErrClosed
	}
	if o.failAt != 0 && len(o.writes)+1 == o.failAt {
		o.writes = append(o.writes, nil)
		return 0, errSink
	}
	o.writes = append(o.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (o *recordingOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}

func (o *recordingOutput) written() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	ret := make([][]byte, len(o.writes))
	copy(ret, o.writes)
	return ret
}

type fakeDevice struct {
	in     *scriptedInput
	out    *recordingOutput
	closes *atomic.Int32
}

func (d *fakeDevice) Input() InputStream {
	return d.in
}

func (d *fakeDevice) Output() OutputStream {
	return d.out
}

func (d *fakeDevice) Close() error {
	d.closes.Inc()
	return nil
}

// countingOpener opens fake devices and counts open and close calls.
type countingOpener struct {
	mu      sync.Mutex
	opens   int
	closes  atomic.Int32
	err     error
	failAt  int
	paths   []string
	rates   []gxcommon.BaudRate
	devices []*fakeDevice
}

func (o *countingOpener) Open(path string, baudRate gxcommon.BaudRate) (Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paths = append(o.paths, path)
	o.rates = append(o.rates, baudRate)
	if o.err != nil {
		return nil, o.err
	}
	o.opens++
	d := &fakeDevice{in: newScriptedInput(), out: &recordingOutput{failAt: o.failAt}, closes: &o.closes}
	o.devices = append(o.devices, d)
	return d, nil
}

func (o *countingOpener) last() *fakeDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.devices[len(o.devices)-1]
}

func (o *countingOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

func (o *countingOpener) attempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.paths)
}

// inline runs tasks on the submitting goroutine.
var inline = ExecutorFunc(func(task func()) { task() })

// frameCollector is a FrameListener that forwards frames to a channel.
type frameCollector struct {
	frames chan Frame
}

func newFrameCollector() *frameCollector {
	return &frameCollector{frames: make(chan Frame, 64)}
}

func (c *frameCollector) OnFrame(frame Frame) {
	c.frames <- frame
}

func (c *frameCollector) next(timeout time.Duration) (Frame, bool) {
	select {
	case f := <-c.frames:
		return f, true
	case <-time.After(timeout):
		return Frame{}, false
	}
}
