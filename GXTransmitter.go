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
	"io"

	"go.uber.org/atomic"
)

// DefaultChunkSize is the largest block written with one write call.
const DefaultChunkSize = 1024

// Transmitter writes buffers to an output in chunks of bounded size.
//
// One Send writes its chunks strictly in order. Concurrent Send calls are not
// synchronized and must be serialized by the caller.
type Transmitter struct {
	out       io.Writer
	port      string
	chunkSize int
	bytesSent *atomic.Uint64
}

// NewTransmitter returns a Transmitter for out. Non-positive chunkSize
// selects DefaultChunkSize.
func NewTransmitter(out io.Writer, chunkSize int) *Transmitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Transmitter{out: out, chunkSize: chunkSize, bytesSent: atomic.NewUint64(0)}
}

// ChunkSize returns the used chunk size.
func (t *Transmitter) ChunkSize() int {
	return t.chunkSize
}

// BytesSent returns the number of bytes written so far.
func (t *Transmitter) BytesSent() uint64 {
	return t.bytesSent.Load()
}

// Send writes data and returns the number of bytes actually written.
//
// Data that fits in one chunk is written with a single call. Otherwise data is
// split to ceil(len/chunkSize) chunks. progress is called after every
// successful write with the cumulative byte count. The first failed write
// aborts the send; bytes already written are not rolled back. Errors are
// classified as WriteFailed.
func (t *Transmitter) Send(data []byte, progress func(sent, total int)) (int, error) {
	total := len(data)
	if total == 0 {
		return 0, nil
	}
	sent := 0
	for sent < total {
		end := sent + t.chunkSize
		if end > total {
			end = total
		}
		n, err := t.write(data[sent:end])
		if err != nil {
			return sent + n, err
		}
		sent = end
		if progress != nil {
			progress(sent, total)
		}
	}
	return sent, nil
}

func (t *Transmitter) write(chunk []byte) (int, error) {
	n, err := t.out.Write(chunk)
	if n > 0 {
		t.bytesSent.Add(uint64(n))
	}
	if err == nil && n < len(chunk) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, newError(WriteFailed, t.port, err)
	}
	return n, nil
}
