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
	"time"

	"github.com/Gurux/gxcommon-go"
	"github.com/tarm/serial"
)

// TarmOpener opens ports with github.com/tarm/serial.
//
// tarm/serial fixes the read timeout when the port is opened, so reads wait
// ReadTimeout instead of the wait asked by the caller. Keep ReadTimeout short.
//
// tarm/serial also reports a read timeout as io.EOF. An empty EOF read is
// taken as a timeout, so a port that has gone away is noticed only when a
// write fails.
type TarmOpener struct {
	Settings    PortSettings
	ReadTimeout time.Duration
}

// Open implements Opener.
func (o TarmOpener) Open(path string, baudRate gxcommon.BaudRate) (Device, error) {
	s := o.Settings.orDefault()
	cfg := &serial.Config{
		Name:        path,
		Baud:        int(baudRate),
		ReadTimeout: o.ReadTimeout,
		Size:        byte(s.DataBits),
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	switch s.Parity {
	case gxcommon.ParityNone:
		cfg.Parity = serial.ParityNone
	case gxcommon.ParityOdd:
		cfg.Parity = serial.ParityOdd
	case gxcommon.ParityEven:
		cfg.Parity = serial.ParityEven
	case gxcommon.ParityMark:
		cfg.Parity = serial.ParityMark
	case gxcommon.ParitySpace:
		cfg.Parity = serial.ParitySpace
	default:
		return nil, fmt.Errorf("invalid parity %v: %w", s.Parity, gxcommon.ErrInvalidArgument)
	}
	switch s.StopBits {
	case gxcommon.StopBitsOne:
		cfg.StopBits = serial.Stop1
	case gxcommon.StopBitsTwo:
		cfg.StopBits = serial.Stop2
	default:
		return nil, fmt.Errorf("invalid stop bits %v: %w", s.StopBits, gxcommon.ErrInvalidArgument)
	}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return newPortDevice(&tarmPort{p: p}), nil
}

type tarmPort struct {
	p io.ReadWriteCloser
}

func (t *tarmPort) read(p []byte, _ time.Duration) (int, error) {
	n, err := t.p.Read(p)
	if errors.Is(err, io.EOF) {
		if n == 0 {
			// Timeout.
			return 0, nil
		}
		// Bytes were read; the EOF is seen again on the next read.
		return n, nil
	}
	return n, err
}

func (t *tarmPort) write(p []byte) (int, error) {
	return t.p.Write(p)
}

func (t *tarmPort) close() error {
	return t.p.Close()
}
