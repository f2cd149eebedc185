package gxpacket

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Gurux/gxcommon-go"
	"go.uber.org/atomic"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// State is the lifecycle state of a device session.
type State int

const (
	// StateClosed means that no device is open.
	StateClosed State = iota
	// StateOpening means that the device is being opened.
	StateOpening
	// StateRunning means that the device is open and frames are received.
	StateRunning
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpening:
		return "Opening"
	case StateRunning:
		return "Running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrorPresenter shows an error message to the user. It is used for open and
// configuration errors when no error listener is set.
type ErrorPresenter interface {
	PresentError(message string)
}

// ErrorPresenterFunc adapts a function to ErrorPresenter.
type ErrorPresenterFunc func(message string)

// PresentError implements ErrorPresenter.
func (f ErrorPresenterFunc) PresentError(message string) {
	f(message)
}

// Option configures a GXDeviceSession.
type Option func(*GXDeviceSession)

// WithExecutor sets the executor that runs all notifications.
// By default the session starts its own SerialExecutor.
func WithExecutor(e Executor) Option {
	return func(g *GXDeviceSession) {
		g.executor = e
	}
}

// WithConfigStore sets the store used when the device identity is not set.
func WithConfigStore(store ConfigStore) Option {
	return func(g *GXDeviceSession) {
		g.store = store
	}
}

// WithErrorPresenter sets the presenter of open and configuration errors.
func WithErrorPresenter(p ErrorPresenter) Option {
	return func(g *GXDeviceSession) {
		g.presenter = p
	}
}

// WithPortRegistry sets the registry that guards device paths.
// Sessions share a package level registry by default.
func WithPortRegistry(r *PortRegistry) Option {
	return func(g *GXDeviceSession) {
		g.ports = r
	}
}

// WithChunkSize sets the largest block written at once.
func WithChunkSize(size int) Option {
	return func(g *GXDeviceSession) {
		g.chunkSize = size
	}
}

// WithMaxReadWait sets the longest time one read may block.
func WithMaxReadWait(value time.Duration) Option {
	return func(g *GXDeviceSession) {
		g.maxReadWait = value
	}
}

// GXDeviceSession owns one open serial device, the packetizer that reads it
// and the transmitter that writes it.
//
// All notifications are run by the session executor one at a time and in
// order. GXDeviceSession implements gxcommon.IGXMedia.
type GXDeviceSession struct {
	opener Opener
	// life serializes start and stop.
	life sync.Mutex
	mu   sync.RWMutex

	device   string
	baudRate gxcommon.BaudRate
	// policy is the policy set by the user. A default AutoGap is resolved
	// against the baud rate when it is used.
	policy FramingPolicy
	state  State

	dev         Device
	in          InputStream
	out         OutputStream
	packetizer  *Packetizer
	transmitter *Transmitter
	claimed     string

	executor    Executor
	owned       *SerialExecutor
	store       ConfigStore
	presenter   ErrorPresenter
	ports       *PortRegistry
	chunkSize   int
	maxReadWait time.Duration

	// sendMu allows one send in flight.
	sendMu    sync.Mutex
	listeners listenerRegistry

	eop         any
	synchronous bool
	received    *receiveBuffer
	// The trace level specifies which types of trace messages are emitted.
	traceLevel gxcommon.TraceLevel

	//Called when the Media state is changed.
	onState gxcommon.MediaStateHandler
	//Called when the new data is received.
	onReceive gxcommon.ReceivedEventHandler
	//Called when the Media is sending or receiving data.
	onTrace gxcommon.TraceEventHandler
	//Called when an error occurs.
	onErr gxcommon.ErrorEventHandler

	bytesSent      *atomic.Uint64
	bytesReceived  *atomic.Uint64
	framesReceived *atomic.Uint64

	// Printer for localized messages.
	p *message.Printer
}

// NewGXDeviceSession returns a closed session that opens devices with opener.
func NewGXDeviceSession(opener Opener, opts ...Option) *GXDeviceSession {
	g := &GXDeviceSession{
		opener:         opener,
		ports:          defaultPorts,
		chunkSize:      DefaultChunkSize,
		maxReadWait:    DefaultMaxReadWait,
		received:       newReceiveBuffer(),
		bytesSent:      atomic.NewUint64(0),
		bytesReceived:  atomic.NewUint64(0),
		framesReceived: atomic.NewUint64(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.opener == nil {
		g.opener = NativeOpener{}
	}
	if g.ports == nil {
		g.ports = defaultPorts
	}
	g.Localize(language.AmericanEnglish)
	return g
}

// State returns the lifecycle state.
func (g *GXDeviceSession) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Configure sets the device path and the baud rate used by the next start.
func (g *GXDeviceSession) Configure(device string, baudRate gxcommon.BaudRate) {
	g.SetDevice(device)
	g.SetBaudRate(baudRate)
}

// SetDevice sets the device path used by the next start.
func (g *GXDeviceSession) SetDevice(device string) {
	g.mu.Lock()
	g.device = device
	g.mu.Unlock()
}

// Device returns the device path.
func (g *GXDeviceSession) Device() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.device
}

// SetBaudRate sets the baud rate used by the next start.
// A default AutoGap is recomputed for the new baud rate at once.
func (g *GXDeviceSession) SetBaudRate(baudRate gxcommon.BaudRate) {
	g.mu.Lock()
	g.baudRate = baudRate
	p := g.packetizer
	policy := resolvePolicy(g.policy, baudRate)
	g.mu.Unlock()
	if p != nil {
		_ = p.SetPolicy(policy)
	}
}

// BaudRate returns the baud rate.
func (g *GXDeviceSession) BaudRate() gxcommon.BaudRate {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.baudRate
}

// SetFramingPolicy selects the framing policy. Nil selects AutoGap with the
// default gap. A running session uses the new policy from the next read.
func (g *GXDeviceSession) SetFramingPolicy(policy FramingPolicy) error {
	policy, err := checkPolicy(policy)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.policy = policy
	p := g.packetizer
	resolved := resolvePolicy(policy, g.baudRate)
	g.mu.Unlock()
	if p != nil {
		return p.SetPolicy(resolved)
	}
	return nil
}

// FramingPolicy returns the effective framing policy.
func (g *GXDeviceSession) FramingPolicy() FramingPolicy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return resolvePolicy(g.policy, g.baudRate)
}

// SaveIdentity writes the device path and the baud rate to the config store.
func (g *GXDeviceSession) SaveIdentity() error {
	g.mu.RLock()
	store, device, baudRate := g.store, g.device, g.baudRate
	g.mu.RUnlock()
	if store == nil {
		return errors.New("config store is not set")
	}
	if err := store.SaveDevice(device); err != nil {
		return err
	}
	return store.SaveBaudRate(strconv.Itoa(int(baudRate)))
}

func (g *GXDeviceSession) loadIdentity(device string, baudRate gxcommon.BaudRate) (string, gxcommon.BaudRate) {
	g.mu.RLock()
	store := g.store
	g.mu.RUnlock()
	if store == nil {
		return device, baudRate
	}
	if device == "" {
		device = store.LoadDevice()
	}
	if baudRate <= 0 {
		if v, err := strconv.Atoi(store.LoadBaudRate()); err == nil && v > 0 {
			baudRate = gxcommon.BaudRate(v)
		}
	}
	return device, baudRate
}

// Start opens the device and starts receiving frames.
//
// If the device path or the baud rate is not set, they are read from the
// config store. Start fails with a NotConfigured error without opening
// anything if they are still missing. Open errors are classified as
// PermissionDenied or DeviceUnavailable. Errors are also reported to the error
// listener or, if there is none, to the error presenter. The session is left
// closed after an error.
func (g *GXDeviceSession) Start() error {
	g.life.Lock()
	defer g.life.Unlock()
	return g.start()
}

func (g *GXDeviceSession) start() error {
	g.mu.Lock()
	if g.state != StateClosed {
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	device, baudRate := g.device, g.baudRate
	g.mu.Unlock()
	if device == "" || baudRate <= 0 {
		device, baudRate = g.loadIdentity(device, baudRate)
	}
	if device == "" || baudRate <= 0 {
		err := newError(NotConfigured, device, nil)
		g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.not_configured"))
		g.reportError(err)
		return err
	}

	g.mu.Lock()
	g.state = StateOpening
	g.mu.Unlock()
	g.statef(gxcommon.MediaStateOpening)
	g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.connecting_to", device, int(baudRate)))

	if err := g.ports.claim(device, g); err != nil {
		return g.openFailed(newError(DeviceUnavailable, device, err))
	}
	dev, err := g.opener.Open(device, baudRate)
	if err == nil && dev == nil {
		err = errors.New("opener returned no device")
	}
	if err != nil {
		g.ports.release(device, g)
		return g.openFailed(classifyOpenError(device, err))
	}

	in, out := dev.Input(), dev.Output()
	g.mu.Lock()
	policy := resolvePolicy(g.policy, baudRate)
	p := NewPacketizer(in, policy, g.handleFrame, g.handleReadError)
	p.port = device
	p.bytesReceived = g.bytesReceived
	p.framesReceived = g.framesReceived
	p.SetMaxReadWait(g.maxReadWait)
	t := NewTransmitter(out, g.chunkSize)
	t.port = device
	t.bytesSent = g.bytesSent
	g.dev, g.in, g.out = dev, in, out
	g.packetizer, g.transmitter = p, t
	g.claimed = device
	g.device, g.baudRate = device, baudRate
	g.state = StateRunning
	g.mu.Unlock()

	_ = p.Start()
	g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.connected_to", device, policy.String()))
	g.statef(gxcommon.MediaStateOpen)
	return nil
}

func (g *GXDeviceSession) openFailed(err *Error) error {
	g.mu.Lock()
	g.state = StateClosed
	g.mu.Unlock()
	g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.connect_failed", err.Port, err))
	g.reportError(err)
	g.statef(gxcommon.MediaStateClosed)
	return err
}

// Stop stops receiving and closes the device. Close errors are traced and
// never returned. Stop does nothing if the session is closed.
//
// Stop waits for the read goroutine. It must not be called from a frame
// listener when the executor runs tasks on the calling goroutine.
func (g *GXDeviceSession) Stop() {
	g.life.Lock()
	defer g.life.Unlock()
	g.stop()
}

func (g *GXDeviceSession) stop() {
	g.mu.Lock()
	if g.state == StateClosed {
		g.mu.Unlock()
		return
	}
	p, in, out, dev := g.packetizer, g.in, g.out, g.dev
	claimed := g.claimed
	g.packetizer, g.transmitter = nil, nil
	g.in, g.out, g.dev = nil, nil, nil
	g.claimed = ""
	g.mu.Unlock()

	g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.closing_connection", claimed))
	g.statef(gxcommon.MediaStateClosing)
	if p != nil {
		p.Stop()
	}
	if in != nil {
		g.closeQuietly(claimed, in.Close)
	}
	if out != nil {
		g.closeQuietly(claimed, out.Close)
	}
	if dev != nil {
		g.closeQuietly(claimed, dev.Close)
	}
	if claimed != "" {
		g.ports.release(claimed, g)
	}
	g.mu.Lock()
	g.state = StateClosed
	g.mu.Unlock()
	g.trace(gxcommon.TraceTypesInfo, g.printer().Sprintf("msg.connection_closed", claimed))
	g.statef(gxcommon.MediaStateClosed)
}

func (g *GXDeviceSession) closeQuietly(port string, closer func() error) {
	defer func() {
		if r := recover(); r != nil {
			g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.close_failed", port, r))
		}
	}()
	if err := closer(); err != nil {
		g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.close_failed", port, err))
	}
}

// Restart stops and starts the session.
func (g *GXDeviceSession) Restart() error {
	g.life.Lock()
	defer g.life.Unlock()
	g.stop()
	return g.start()
}

// RestartWith sets a new device identity and restarts the session.
func (g *GXDeviceSession) RestartWith(device string, baudRate gxcommon.BaudRate) error {
	g.life.Lock()
	defer g.life.Unlock()
	g.Configure(device, baudRate)
	g.stop()
	return g.start()
}

// Destroy stops the session and removes all listeners. The executor that the
// session started by itself is closed after the queued notifications are run.
func (g *GXDeviceSession) Destroy() {
	g.life.Lock()
	defer g.life.Unlock()
	g.stop()
	g.listeners.clear()
	g.listeners.setErrorListener(nil)
	g.mu.Lock()
	owned := g.owned
	if owned != nil {
		g.owned = nil
		g.executor = nil
	}
	g.mu.Unlock()
	if owned != nil {
		owned.Close()
	}
}

// AddFrameListener adds a listener for received frames. Adding the same
// listener twice has no effect.
func (g *GXDeviceSession) AddFrameListener(l FrameListener) error {
	return g.listeners.add(l)
}

// RemoveFrameListener removes a frame listener. Frames delivered after
// removal are not passed to it.
func (g *GXDeviceSession) RemoveFrameListener(l FrameListener) bool {
	return g.listeners.remove(l)
}

// ClearFrameListeners removes all frame listeners.
func (g *GXDeviceSession) ClearFrameListeners() {
	g.listeners.clear()
}

// SetErrorListener sets the listener of session errors. Nil removes it.
func (g *GXDeviceSession) SetErrorListener(l ErrorListener) {
	g.listeners.setErrorListener(l)
}

// SendAsync writes data to the device.
//
// Data that fits in one chunk is written on the calling goroutine. Larger data
// is written on its own goroutine. One send is in flight at a time. The
// listener, when given, receives progress after each chunk and the result.
// The result is also written to the returned channel. Send errors are not
// passed to the error listener.
func (g *GXDeviceSession) SendAsync(data []byte, l SendListener) <-chan error {
	result := make(chan error, 1)
	g.mu.RLock()
	t := g.transmitter
	device := g.device
	g.mu.RUnlock()
	if t == nil {
		g.completeSend(l, result, newError(WriteFailed, device, ErrNotRunning))
		return result
	}
	tmp := make([]byte, len(data))
	copy(tmp, data)
	if len(tmp) <= t.ChunkSize() {
		g.send(t, tmp, l, result)
	} else {
		go g.send(t, tmp, l, result)
	}
	return result
}

func (g *GXDeviceSession) send(t *Transmitter, data []byte, l SendListener, result chan<- error) {
	g.sendMu.Lock()
	defer g.sendMu.Unlock()
	if len(data) != 0 {
		g.tracef(gxcommon.TraceTypesSent, "TX: %s", newFrame(data).Hex())
	}
	_, err := t.Send(data, func(sent, total int) {
		if l != nil {
			g.dispatch(func() {
				l.OnProgress(sent, total)
			})
		}
	})
	if err != nil {
		g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.send_failed", err))
	}
	g.completeSend(l, result, err)
}

func (g *GXDeviceSession) completeSend(l SendListener, result chan<- error, err error) {
	result <- err
	close(result)
	if l != nil {
		g.dispatch(func() {
			l.OnComplete(err)
		})
	}
}

func (g *GXDeviceSession) handleFrame(frame Frame) {
	g.tracef(gxcommon.TraceTypesReceived, "RX: %s", frame.Hex())
	if g.IsSynchronous() {
		g.received.append(frame.Bytes())
		return
	}
	g.dispatch(func() {
		for _, l := range g.listeners.snapshot() {
			l.OnFrame(frame)
		}
		g.mu.RLock()
		cb := g.onReceive
		device := g.device
		g.mu.RUnlock()
		if cb != nil {
			cb(g, *gxcommon.NewReceiveEventArgs(frame.Bytes(), device))
		}
	})
}

// handleReadError reports a failed read loop. The session stays running so
// that the device can still be written.
func (g *GXDeviceSession) handleReadError(err error) {
	g.trace(gxcommon.TraceTypesError, g.printer().Sprintf("msg.read_failed", err))
	g.mu.RLock()
	cb := g.onErr
	g.mu.RUnlock()
	g.dispatch(func() {
		if l := g.listeners.errorListener(); l != nil {
			l.OnError(err)
		}
		if cb != nil {
			cb(g, err)
		}
	})
}

// reportError reports an open or configuration error.
func (g *GXDeviceSession) reportError(err error) {
	l := g.listeners.errorListener()
	g.mu.RLock()
	cb := g.onErr
	presenter := g.presenter
	p := g.p
	g.mu.RUnlock()
	if l == nil && cb == nil {
		if presenter != nil {
			msg := p.Sprintf(errorMessageKey(err))
			g.dispatch(func() {
				presenter.PresentError(msg)
			})
		}
		return
	}
	g.dispatch(func() {
		if l != nil {
			l.OnError(err)
		}
		if cb != nil {
			cb(g, err)
		}
	})
}

func (g *GXDeviceSession) dispatch(task func()) {
	g.mu.Lock()
	e := g.executor
	if e == nil {
		g.owned = NewSerialExecutor()
		g.executor = g.owned
		e = g.owned
	}
	g.mu.Unlock()
	e.Submit(task)
}

func (g *GXDeviceSession) printer() *message.Printer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.p
}

func (g *GXDeviceSession) tracef(traceType gxcommon.TraceTypes, fmtStr string, a ...any) {
	g.mu.RLock()
	enabled := !(int(g.traceLevel) < int(traceType))
	cb := g.onTrace
	g.mu.RUnlock()
	if cb != nil && enabled {
		g.trace(traceType, fmt.Sprintf(fmtStr, a...))
	}
}

func (g *GXDeviceSession) trace(traceType gxcommon.TraceTypes, message string) {
	g.mu.RLock()
	enabled := !(int(g.traceLevel) < int(traceType))
	cb := g.onTrace
	g.mu.RUnlock()
	if cb != nil && enabled {
		p := gxcommon.NewTraceEventArgs(traceType, message, "")
		g.dispatch(func() {
			cb(g, *p)
		})
	}
}

func (g *GXDeviceSession) statef(state gxcommon.MediaState) {
	g.mu.RLock()
	cb := g.onState
	g.mu.RUnlock()
	if cb != nil {
		g.dispatch(func() {
			cb(g, *gxcommon.NewMediaStateEventArgs(state))
		})
	}
}

// FramesReceived returns the number of completed frames.
func (g *GXDeviceSession) FramesReceived() uint64 {
	return g.framesReceived.Load()
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXDeviceSession) Localize(language language.Tag) {
	p := message.NewPrinter(language)
	g.mu.Lock()
	g.p = p
	g.mu.Unlock()
}
