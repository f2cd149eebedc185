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

import "sync"

// Executor runs listener notifications.
// An executor must run submitted tasks one at a time and in submission order.
type Executor interface {
	Submit(task func())
}

// ExecutorFunc adapts a function to Executor. It can be used to hand tasks to
// an event loop owned by the application.
type ExecutorFunc func(task func())

// Submit implements Executor.
func (f ExecutorFunc) Submit(task func()) {
	f(task)
}

// SerialExecutor runs tasks on one goroutine in FIFO order.
// Submit never blocks.
type SerialExecutor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewSerialExecutor starts a new SerialExecutor.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Submit implements Executor. Tasks submitted after Close are dropped.
func (e *SerialExecutor) Submit(task func()) {
	if task == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.tasks = append(e.tasks, task)
	e.cond.Signal()
}

// Close stops the executor after the queued tasks have been run.
// Close does not wait, so it can be called from a task.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Done is closed when the executor goroutine has exited.
func (e *SerialExecutor) Done() <-chan struct{} {
	return e.done
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.tasks) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.tasks) == 0 {
			e.mu.Unlock()
			return
		}
		task := e.tasks[0]
		e.tasks[0] = nil
		e.tasks = e.tasks[1:]
		e.mu.Unlock()
		task()
	}
}
