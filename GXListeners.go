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
	"reflect"
	"sync"
)

// FrameListener receives completed frames.
//
// Listeners are compared by identity, so implement the interface with a
// pointer receiver when the same value is added and removed.
type FrameListener interface {
	OnFrame(frame Frame)
}

// ErrorListener receives classified session errors.
type ErrorListener interface {
	OnError(err error)
}

// ErrorListenerFunc adapts a function to ErrorListener.
type ErrorListenerFunc func(err error)

// OnError implements ErrorListener.
func (f ErrorListenerFunc) OnError(err error) {
	f(err)
}

// SendListener receives the progress and the result of one send.
type SendListener interface {
	// OnProgress is called after each written chunk with the cumulative byte count.
	OnProgress(sent, total int)
	// OnComplete is called once. err is nil when all bytes were written.
	OnComplete(err error)
}

// SendListenerFuncs adapts functions to SendListener. Nil functions are skipped.
type SendListenerFuncs struct {
	Progress func(sent, total int)
	Complete func(err error)
}

// OnProgress implements SendListener.
func (f SendListenerFuncs) OnProgress(sent, total int) {
	if f.Progress != nil {
		f.Progress(sent, total)
	}
}

// OnComplete implements SendListener.
func (f SendListenerFuncs) OnComplete(err error) {
	if f.Complete != nil {
		f.Complete(err)
	}
}

// listenerRegistry holds frame listeners and the error listener.
// Frame listeners are kept in a copy-on-write slice, so a snapshot is never
// changed after it has been handed out.
type listenerRegistry struct {
	mu     sync.Mutex
	frames []FrameListener
	err    ErrorListener
}

func (r *listenerRegistry) add(l FrameListener) error {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return ErrInvalidListener
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.frames {
		if it == l {
			return nil
		}
	}
	frames := make([]FrameListener, len(r.frames), len(r.frames)+1)
	copy(frames, r.frames)
	r.frames = append(frames, l)
	return nil
}

func (r *listenerRegistry) remove(l FrameListener) bool {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.frames {
		if it == l {
			frames := make([]FrameListener, 0, len(r.frames)-1)
			frames = append(frames, r.frames[:i]...)
			r.frames = append(frames, r.frames[i+1:]...)
			return true
		}
	}
	return false
}

func (r *listenerRegistry) clear() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func (r *listenerRegistry) snapshot() []FrameListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *listenerRegistry) setErrorListener(l ErrorListener) {
	r.mu.Lock()
	r.err = l
	r.mu.Unlock()
}

func (r *listenerRegistry) errorListener() ErrorListener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
