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
	"path/filepath"
	"sync"
)

// PortRegistry records which session owns a device path.
// Only one session can run against a path at a time.
type PortRegistry struct {
	mu     sync.Mutex
	owners map[string]any
}

// NewPortRegistry returns an empty registry.
func NewPortRegistry() *PortRegistry {
	return &PortRegistry{owners: map[string]any{}}
}

// defaultPorts is shared by sessions that are not given a registry.
var defaultPorts = NewPortRegistry()

func portKey(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// InUse returns true if a running session owns the path.
func (r *PortRegistry) InUse(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owners[portKey(path)]
	return ok
}

func (r *PortRegistry) claim(path string, owner any) error {
	key := portKey(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners == nil {
		r.owners = map[string]any{}
	}
	if it, ok := r.owners[key]; ok && it != owner {
		return ErrPortInUse
	}
	r.owners[key] = owner
	return nil
}

func (r *PortRegistry) release(path string, owner any) {
	key := portKey(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, ok := r.owners[key]; ok && it == owner {
		delete(r.owners, key)
	}
}
