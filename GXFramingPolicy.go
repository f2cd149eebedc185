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
	"fmt"
	"time"

	"github.com/Gurux/gxcommon-go"
)

const (
	// referenceBaudRate is the bit rate where the default gap is gapBase milliseconds.
	referenceBaudRate = 115200
	gapBase           = 5
)

// FramingPolicy selects how received bytes are grouped into frames.
// Exactly one policy is active at a time. Implementations are AutoGap and
// FixedLengthOrTimeout.
type FramingPolicy interface {
	// Validate checks the policy parameters.
	Validate() error
	String() string
	framingPolicy()
}

// AutoGap ends a frame when no new bytes arrive for Gap.
// Zero Gap means that the gap is derived from the baud rate, see DefaultGap.
type AutoGap struct {
	Gap time.Duration
}

func (AutoGap) framingPolicy() {}

// Validate implements FramingPolicy.
func (p AutoGap) Validate() error {
	if p.Gap < 0 {
		return fmt.Errorf("invalid frame gap %s: %w", p.Gap, gxcommon.ErrInvalidArgument)
	}
	return nil
}

// String implements FramingPolicy.
func (p AutoGap) String() string {
	if p.Gap == 0 {
		return "AutoGap(default)"
	}
	return fmt.Sprintf("AutoGap(%s)", p.Gap)
}

// FixedLengthOrTimeout ends a frame when Length bytes are received or when
// Timeout has elapsed since the first byte of the frame, whichever comes first.
type FixedLengthOrTimeout struct {
	Length  int
	Timeout time.Duration
}

func (FixedLengthOrTimeout) framingPolicy() {}

// Validate implements FramingPolicy.
func (p FixedLengthOrTimeout) Validate() error {
	if p.Length < 1 {
		return fmt.Errorf("invalid frame length %d: %w", p.Length, gxcommon.ErrInvalidArgument)
	}
	if p.Timeout < time.Millisecond {
		return fmt.Errorf("invalid frame timeout %s: %w", p.Timeout, gxcommon.ErrInvalidArgument)
	}
	return nil
}

// String implements FramingPolicy.
func (p FixedLengthOrTimeout) String() string {
	return fmt.Sprintf("FixedLengthOrTimeout(%d, %s)", p.Length, p.Timeout)
}

// DefaultGap returns the frame gap used when AutoGap has no explicit value.
//
// gap = ceil(5 / (baudRate / 115200)) ms, at least 1 ms. A slower line needs a
// longer quiet time before the frame is considered complete.
// Unknown baud rate uses the 115200 value.
func DefaultGap(baudRate gxcommon.BaudRate) time.Duration {
	baud := int64(baudRate)
	if baud <= 0 {
		baud = referenceBaudRate
	}
	ms := (gapBase*referenceBaudRate + baud - 1) / baud
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// resolvePolicy replaces a default AutoGap with the gap of the given baud rate.
func resolvePolicy(p FramingPolicy, baudRate gxcommon.BaudRate) FramingPolicy {
	switch v := p.(type) {
	case nil:
		return AutoGap{Gap: DefaultGap(baudRate)}
	case AutoGap:
		if v.Gap == 0 {
			return AutoGap{Gap: DefaultGap(baudRate)}
		}
	case *AutoGap:
		if v == nil {
			return resolvePolicy(nil, baudRate)
		}
		return resolvePolicy(*v, baudRate)
	case *FixedLengthOrTimeout:
		if v == nil {
			return resolvePolicy(nil, baudRate)
		}
		return *v
	}
	return p
}

// checkPolicy dereferences pointer variants and validates the policy.
// Nil selects the default AutoGap. A nil pointer is rejected.
func checkPolicy(p FramingPolicy) (FramingPolicy, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case *AutoGap:
		if v == nil {
			return nil, fmt.Errorf("nil framing policy: %w", gxcommon.ErrInvalidArgument)
		}
		p = *v
	case *FixedLengthOrTimeout:
		if v == nil {
			return nil, fmt.Errorf("nil framing policy: %w", gxcommon.ErrInvalidArgument)
		}
		p = *v
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
