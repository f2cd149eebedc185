//go:build darwin

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
	"io"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/Gurux/gxcommon-go"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// port keeps its files after close; closed guards them instead, so a
// write racing with close fails with os.ErrClosed.
type port struct {
	f      *os.File
	fd     int
	r      *os.File
	w      *os.File
	rfd    int
	closed atomic.Bool
}

// toUnitBaudrate maps a baud rate to the corresponding constant in the mac package.
var toUnitBaudrate = map[int]uint64{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// getPortNames returns a list of available serial port device paths on macOS.
func getPortNames() ([]string, error) {
	patterns := []string{
		"/dev/tty.*",
		"/dev/cu.*",
	}

	var devices []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, device := range matches {
			if _, ok := seen[device]; !ok {
				seen[device] = struct{}{}
				devices = append(devices, device)
			}
		}
	}
	return devices, nil
}

func openPort(name string, baudRate gxcommon.BaudRate, settings PortSettings) (*port, error) {
	speed, ok := toUnitBaudrate[int(baudRate)]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d: %w", baudRate, gxcommon.ErrInvalidArgument)
	}
	fd, err := unix.Open(name, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0666)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	p := &port{f: os.NewFile(uintptr(fd), name), fd: fd}

	t, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
	if err != nil {
		_ = p.close()
		return nil, err
	}
	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST | unix.ONLCR | unix.OCRNL
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK
	t.Ispeed = speed
	t.Ospeed = speed

	t.Cflag &^= unix.CSIZE
	switch settings.DataBits {
	case 5:
		t.Cflag |= unix.CS5
	case 6:
		t.Cflag |= unix.CS6
	case 7:
		t.Cflag |= unix.CS7
	case 8:
		t.Cflag |= unix.CS8
	default:
		_ = p.close()
		return nil, errors.New("invalid databits (must be 5..8)")
	}

	switch settings.StopBits {
	case gxcommon.StopBitsOne:
		t.Cflag &^= unix.CSTOPB
	case gxcommon.StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	default:
		_ = p.close()
		return nil, errors.New("invalid stopbits (must be 1 or 2)")
	}

	// macOS has no CMSPAR, mark and space parity are not available.
	t.Iflag &^= unix.INPCK | unix.ISTRIP
	t.Cflag &^= unix.PARENB | unix.PARODD
	switch settings.Parity {
	case gxcommon.ParityNone:
	case gxcommon.ParityEven:
		t.Cflag |= unix.PARENB
	case gxcommon.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
	case gxcommon.ParityMark, gxcommon.ParitySpace:
		_ = p.close()
		return nil, errors.New("mark/space parity not supported on this system")
	default:
		_ = p.close()
		return nil, errors.New("invalid parity")
	}

	t.Iflag &^= unix.IXON | unix.IXOFF
	t.Cflag &^= unix.CRTSCTS
	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, t); err != nil {
		_ = p.close()
		return nil, err
	}
	if err := ioctlSetIntPointer(fd, unix.TIOCFLUSH, unix.TCIOFLUSH); err != nil {
		_ = p.close()
		return nil, err
	}
	p.r, p.w, err = os.Pipe()
	if err != nil {
		_ = p.close()
		return nil, err
	}
	p.rfd = int(p.r.Fd())
	_ = unix.SetNonblock(p.rfd, true)
	return p, nil
}

func ioctlSetIntPointer(fd int, req uint, value int) error {
	v := value
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(unsafe.Pointer(&v)))
	if errno != 0 {
		return errno
	}
	return nil
}

func (p *port) close() error {
	if p == nil || p.closed.Swap(true) {
		return nil
	}
	if p.w != nil {
		// Wake up a pending poll.
		_, _ = p.w.Write([]byte{0})
		_ = p.w.Close()
	}
	if p.r != nil {
		_ = p.r.Close()
	}
	if p.f != nil {
		return p.f.Close()
	}
	return nil
}

func (p *port) ensureOpen() error {
	if p == nil || p.f == nil || p.closed.Load() {
		return os.ErrClosed
	}
	return nil
}

func (p *port) read(buf []byte, timeout time.Duration) (int, error) {
	if err := p.ensureOpen(); err != nil {
		return 0, err
	}
	if p.r == nil {
		return 0, errors.New("read not initialized: closedR is nil")
	}
	// Close might hang if infinity value is used, so the wait is always bounded.
	ms := int(timeout / time.Millisecond)
	if ms <= 0 {
		ms = 1
	}
	pfds := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.rfd), Events: unix.POLLIN},
	}
	n, err := unix.Poll(pfds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if pfds[1].Revents != 0 {
		return 0, os.ErrClosed
	}
	if pfds[0].Revents&unix.POLLIN == 0 {
		if pfds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			return 0, io.EOF
		}
		return 0, nil
	}
	return p.f.Read(buf)
}

func (p *port) write(data []byte) (int, error) {
	if err := p.ensureOpen(); err != nil {
		return 0, err
	}
	return p.f.Write(data)
}
