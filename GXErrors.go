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
)

// ErrorKind classifies failures reported by the device session.
type ErrorKind int

const (
	// PermissionDenied is reported when the device access is refused.
	PermissionDenied ErrorKind = iota + 1
	// DeviceUnavailable is reported when the device can't be opened or used
	// and the reason is unknown to the caller.
	DeviceUnavailable
	// NotConfigured is reported when no device identity is available.
	NotConfigured
	// WriteFailed is reported when a chunk or a whole buffer write fails.
	WriteFailed
	// ReadFailed is reported when the input stream ends or fails.
	ReadFailed
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "PermissionDenied"
	case DeviceUnavailable:
		return "DeviceUnavailable"
	case NotConfigured:
		return "NotConfigured"
	case WriteFailed:
		return "WriteFailed"
	case ReadFailed:
		return "ReadFailed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a classified session error.
type Error struct {
	Kind ErrorKind
	// Port is the device path the error is related to. It can be empty.
	Port string
	// Err is the underlying cause.
	Err error
}

func newError(kind ErrorKind, port string, err error) *Error {
	return &Error{Kind: kind, Port: port, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case PermissionDenied:
		msg = "permission denied"
	case DeviceUnavailable:
		msg = "device unavailable"
	case NotConfigured:
		msg = "serial port is not configured"
	case WriteFailed:
		msg = "write failed"
	case ReadFailed:
		msg = "read failed"
	default:
		msg = "serial port error"
	}
	if e.Port != "" {
		msg = e.Port + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// Sentinel errors carry only the kind so errors.Is(err, ErrReadFailed) works
// for every read failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Err == nil || errors.Is(e.Err, t.Err))
}

// KindOf returns the kind of a classified error or zero if err is not classified.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

var (
	ErrPermissionDenied  = &Error{Kind: PermissionDenied}
	ErrDeviceUnavailable = &Error{Kind: DeviceUnavailable}
	ErrNotConfigured     = &Error{Kind: NotConfigured}
	ErrWriteFailed       = &Error{Kind: WriteFailed}
	ErrReadFailed        = &Error{Kind: ReadFailed}

	// ErrNotRunning is returned when the session has no open device.
	ErrNotRunning = errors.New("serial port is not running")
	// ErrAlreadyRunning is returned when start is called on a running session.
	ErrAlreadyRunning = errors.New("serial port is already running")
	// ErrPortInUse is the cause when another session owns the device path.
	ErrPortInUse = errors.New("serial port is used by another session")
	// ErrInvalidListener is returned for nil or non-comparable listeners.
	ErrInvalidListener = errors.New("invalid listener")
)
