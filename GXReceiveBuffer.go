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
	"bytes"
	"sync"
	"time"
)

// receiveBuffer collects frames while the session is synchronous.
// Readers wait on a channel that is replaced and closed on every append.
type receiveBuffer struct {
	mu   sync.Mutex
	buf  []byte
	wait chan struct{}
}

func newReceiveBuffer() *receiveBuffer {
	return &receiveBuffer{wait: make(chan struct{})}
}

func (b *receiveBuffer) append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	old := b.wait
	b.wait = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// take removes count bytes from the head of the buffer. -1 takes everything.
func (b *receiveBuffer) take(count int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if count < 0 || count > len(b.buf) {
		count = len(b.buf)
	}
	ret := make([]byte, count)
	copy(ret, b.buf)
	b.buf = append(b.buf[:0], b.buf[count:]...)
	return ret
}

func (b *receiveBuffer) reset() {
	b.mu.Lock()
	b.buf = b.buf[:0]
	b.mu.Unlock()
}

func (b *receiveBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// search waits until at least minLen bytes are buffered and eop, when given,
// has been received. It returns the number of bytes up to and including eop,
// or -1 if maxWait elapses first.
func (b *receiveBuffer) search(eop []byte, minLen int, maxWait time.Duration) int {
	if minLen < 0 {
		minLen = 0
	}
	if len(eop) == 0 && minLen == 0 {
		minLen = 1
	}
	var deadline time.Time
	if maxWait > 0 {
		deadline = time.Now().Add(maxWait)
	}
	// Bytes before start have already been searched for eop.
	start := 0
	for {
		b.mu.Lock()
		if len(b.buf) >= minLen {
			if len(eop) == 0 {
				b.mu.Unlock()
				return minLen
			}
			if i := bytes.Index(b.buf[start:], eop); i >= 0 {
				b.mu.Unlock()
				return start + i + len(eop)
			}
			// A terminator may be split between two appends.
			start = len(b.buf) - len(eop) + 1
			if start < 0 {
				start = 0
			}
		}
		ch := b.wait
		b.mu.Unlock()
		if !waitUntil(ch, deadline) {
			return -1
		}
	}
}

// waitUntil returns false when the deadline is zero or has elapsed before ch is closed.
func waitUntil(ch <-chan struct{}, deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	rem := time.Until(deadline)
	if rem <= 0 {
		return false
	}
	timer := time.NewTimer(rem)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
