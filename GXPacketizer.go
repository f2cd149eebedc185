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
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	// ReadChunkSize is the largest block read from the input at once.
	ReadChunkSize = 4096
	// DefaultMaxReadWait bounds a single read. Stop is noticed within this time.
	DefaultMaxReadWait = 100 * time.Millisecond
)

// Packetizer reads an input stream on a background goroutine and groups the
// received bytes into frames with the active FramingPolicy.
//
// A partial frame that is pending when the packetizer is stopped or when the
// input fails is discarded, not emitted.
type Packetizer struct {
	in      InputStream
	port    string
	onFrame func(Frame)
	onError func(error)

	mu      sync.RWMutex
	policy  FramingPolicy
	maxWait time.Duration

	stop    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	bytesReceived  *atomic.Uint64
	framesReceived *atomic.Uint64
}

// NewPacketizer returns a stopped packetizer. onFrame is called for every
// completed frame and onError once if the input ends or fails. Both are called
// on the read goroutine.
func NewPacketizer(in InputStream, policy FramingPolicy, onFrame func(Frame), onError func(error)) *Packetizer {
	return &Packetizer{
		in:             in,
		onFrame:        onFrame,
		onError:        onError,
		policy:         resolvePolicy(policy, referenceBaudRate),
		maxWait:        DefaultMaxReadWait,
		bytesReceived:  atomic.NewUint64(0),
		framesReceived: atomic.NewUint64(0),
	}
}

// Policy returns the active framing policy.
func (p *Packetizer) Policy() FramingPolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy
}

// SetPolicy replaces the framing policy. The new policy is used from the next
// read cycle and also applies to bytes already waiting for a frame.
func (p *Packetizer) SetPolicy(policy FramingPolicy) error {
	policy, err := checkPolicy(policy)
	if err != nil {
		return err
	}
	resolved := resolvePolicy(policy, referenceBaudRate)
	p.mu.Lock()
	p.policy = resolved
	p.mu.Unlock()
	return nil
}

// SetMaxReadWait sets the longest time one read may block.
func (p *Packetizer) SetMaxReadWait(value time.Duration) {
	if value <= 0 {
		value = DefaultMaxReadWait
	}
	p.mu.Lock()
	p.maxWait = value
	p.mu.Unlock()
}

// BytesReceived returns the number of bytes read from the input.
func (p *Packetizer) BytesReceived() uint64 {
	return p.bytesReceived.Load()
}

// FramesReceived returns the number of emitted frames.
func (p *Packetizer) FramesReceived() uint64 {
	return p.framesReceived.Load()
}

// IsRunning returns true between Start and Stop.
func (p *Packetizer) IsRunning() bool {
	return p.running.Load()
}

// Start begins the read loop.
func (p *Packetizer) Start() error {
	if p.running.Swap(true) {
		return ErrAlreadyRunning
	}
	p.stop = make(chan struct{})
	p.wg.Add(1)
	go p.reader(p.stop)
	return nil
}

// Stop ends the read loop and waits until it has exited. Stop must not be
// called from onFrame or onError.
func (p *Packetizer) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.stop)
	p.wg.Wait()
}

func (p *Packetizer) cycle() (FramingPolicy, time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy, p.maxWait
}

func (p *Packetizer) emit(data []byte) {
	p.framesReceived.Inc()
	if p.onFrame != nil {
		p.onFrame(newFrame(data))
	}
}

// split emits every complete fixed length frame held in pending and
// returns the remainder. A kept remainder starts a new frame at now.
func (p *Packetizer) split(pending []byte, length int, now time.Time, first *time.Time) []byte {
	for len(pending) >= length {
		frame := pending[:length:length]
		var rest []byte
		if len(pending) > length {
			rest = append(rest, pending[length:]...)
			*first = now
		}
		p.emit(frame)
		pending = rest
	}
	return pending
}

func (p *Packetizer) reader(stop <-chan struct{}) {
	defer p.wg.Done()
	buf := make([]byte, ReadChunkSize)
	var pending []byte
	var deadline, first time.Time
	var last FramingPolicy
	for {
		select {
		case <-stop:
			return
		default:
		}
		policy, wait := p.cycle()
		if len(pending) != 0 && policy != last {
			// Policy changed while bytes are waiting. Apply it to them now.
			now := time.Now()
			switch v := policy.(type) {
			case AutoGap:
				deadline = now.Add(v.Gap)
			case FixedLengthOrTimeout:
				pending = p.split(pending, v.Length, now, &first)
				deadline = first.Add(v.Timeout)
			}
		}
		last = policy
		if len(pending) != 0 {
			rem := time.Until(deadline)
			if rem <= 0 {
				p.emit(pending)
				pending = nil
				continue
			}
			if rem < wait {
				wait = rem
			}
		}
		n, err := p.in.Read(buf, wait)
		if n > 0 {
			now := time.Now()
			p.bytesReceived.Add(uint64(n))
			if len(pending) == 0 {
				first = now
			}
			pending = append(pending, buf[:n]...)
			switch v := policy.(type) {
			case AutoGap:
				deadline = now.Add(v.Gap)
			case FixedLengthOrTimeout:
				pending = p.split(pending, v.Length, now, &first)
				deadline = first.Add(v.Timeout)
			}
		}
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			if p.onError != nil {
				p.onError(newError(ReadFailed, p.port, err))
			}
			return
		}
	}
}
