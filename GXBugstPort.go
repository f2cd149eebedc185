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
	"os"
	"time"

	"github.com/Gurux/gxcommon-go"
	"go.bug.st/serial"
)

// BugstOpener opens ports with go.bug.st/serial.
type BugstOpener struct {
	Settings PortSettings
}

// Open implements Opener.
func (o BugstOpener) Open(path string, baudRate gxcommon.BaudRate) (Device, error) {
	mode, err := bugstMode(baudRate, o.Settings.orDefault())
	if err != nil {
		return nil, err
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, bugstError(err)
	}
	return newPortDevice(&bugstPort{p: p, timeout: -1}), nil
}

// BugstPortNames returns the ports reported by go.bug.st/serial.
func BugstPortNames() ([]string, error) {
	return serial.GetPortsList()
}

func bugstMode(baudRate gxcommon.BaudRate, s PortSettings) (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: int(baudRate), DataBits: s.DataBits}
	switch s.Parity {
	case gxcommon.ParityNone:
		mode.Parity = serial.NoParity
	case gxcommon.ParityOdd:
		mode.Parity = serial.OddParity
	case gxcommon.ParityEven:
		mode.Parity = serial.EvenParity
	case gxcommon.ParityMark:
		mode.Parity = serial.MarkParity
	case gxcommon.ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("invalid parity %v: %w", s.Parity, gxcommon.ErrInvalidArgument)
	}
	switch s.StopBits {
	case gxcommon.StopBitsOne:
		mode.StopBits = serial.OneStopBit
	case gxcommon.StopBitsTwo:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %v: %w", s.StopBits, gxcommon.ErrInvalidArgument)
	}
	return mode, nil
}

// bugstError marks permission failures so that they are classified as PermissionDenied.
func bugstError(err error) error {
	var pe *serial.PortError
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code() {
	case serial.PermissionDenied:
		return fmt.Errorf("%w: %w", os.ErrPermission, err)
	case serial.PortClosed:
		return fmt.Errorf("%w: %w", os.ErrClosed, err)
	}
	return err
}

type bugstPort struct {
	p serial.Port
	// Last timeout given to SetReadTimeout.
	timeout time.Duration
}

func (b *bugstPort) read(p []byte, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	if timeout != b.timeout {
		if err := b.p.SetReadTimeout(timeout); err != nil {
			return 0, bugstError(err)
		}
		b.timeout = timeout
	}
	n, err := b.p.Read(p)
	if err != nil {
		return n, bugstError(err)
	}
	return n, nil
}

func (b *bugstPort) write(p []byte) (int, error) {
	n, err := b.p.Write(p)
	if err != nil {
		return n, bugstError(err)
	}
	return n, nil
}

func (b *bugstPort) close() error {
	return b.p.Close()
}
