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
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/Gurux/gxcommon-go"
	"go.uber.org/atomic"
)

// InputStream is the receiving side of an open device.
type InputStream interface {
	// Read reads up to len(p) bytes and waits at most timeout for them.
	// It returns 0 and nil error when the timeout elapses and io.EOF when
	// the stream has ended.
	Read(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// OutputStream is the sending side of an open device.
type OutputStream interface {
	io.Writer
	Close() error
}

// Device is an open serial device. Both streams share one handle that is
// released by Close.
type Device interface {
	Input() InputStream
	Output() OutputStream
	Close() error
}

// Opener opens serial devices.
type Opener interface {
	Open(path string, baudRate gxcommon.BaudRate) (Device, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string, baudRate gxcommon.BaudRate) (Device, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string, baudRate gxcommon.BaudRate) (Device, error) {
	return f(path, baudRate)
}

// PortSettings holds the line settings used when a port is opened.
type PortSettings struct {
	DataBits int
	Parity   gxcommon.Parity
	StopBits gxcommon.StopBits
}

// DefaultPortSettings returns 8N1.
func DefaultPortSettings() PortSettings {
	return PortSettings{DataBits: 8, Parity: gxcommon.ParityNone, StopBits: gxcommon.StopBitsOne}
}

func (s PortSettings) orDefault() PortSettings {
	if s.DataBits == 0 {
		return DefaultPortSettings()
	}
	return s
}

// NativeOpener opens ports with the operating system serial API.
type NativeOpener struct {
	Settings PortSettings
}

// Open implements Opener.
func (o NativeOpener) Open(path string, baudRate gxcommon.BaudRate) (Device, error) {
	p, err := openPort(path, baudRate, o.Settings.orDefault())
	if err != nil {
		return nil, err
	}
	return newPortDevice(p), nil
}

// GetPortNames returns list of available serial ports.
func GetPortNames() ([]string, error) {
	return getPortNames()
}

var baudRates = []gxcommon.BaudRate{
	50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600,
	19200, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// BaudRates returns the list of baud rates offered to the user.
func BaudRates() []gxcommon.BaudRate {
	ret := make([]gxcommon.BaudRate, len(baudRates))
	copy(ret, baudRates)
	return ret
}

// rawPort is a handle of one backend.
type rawPort interface {
	read(p []byte, timeout time.Duration) (int, error)
	write(p []byte) (int, error)
	close() error
}

// portDevice splits one raw handle into input and output streams.
type portDevice struct {
	raw    rawPort
	in     *portInput
	out    *portOutput
	closed atomic.Bool
}

func newPortDevice(raw rawPort) *portDevice {
	d := &portDevice{raw: raw}
	d.in = &portInput{d: d}
	d.out = &portOutput{d: d}
	return d
}

func (d *portDevice) Input() InputStream {
	return d.in
}

func (d *portDevice) Output() OutputStream {
	return d.out
}

func (d *portDevice) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.raw.close()
}

type portInput struct {
	d      *portDevice
	closed atomic.Bool
}

func (s *portInput) Read(p []byte, timeout time.Duration) (int, error) {
	if s.closed.Load() || s.d.closed.Load() {
		return 0, os.ErrClosed
	}
	return s.d.raw.read(p, timeout)
}

func (s *portInput) Close() error {
	s.closed.Store(true)
	return nil
}

type portOutput struct {
	d      *portDevice
	closed atomic.Bool
}

func (s *portOutput) Write(p []byte) (int, error) {
	if s.closed.Load() || s.d.closed.Load() {
		return 0, os.ErrClosed
	}
	return s.d.raw.write(p)
}

func (s *portOutput) Close() error {
	s.closed.Store(true)
	return nil
}

// classifyOpenError maps an open failure to PermissionDenied or DeviceUnavailable.
func classifyOpenError(port string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, fs.ErrPermission) {
		return newError(PermissionDenied, port, err)
	}
	return newError(DeviceUnavailable, port, err)
}
