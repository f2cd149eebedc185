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
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys of the persisted serial port identity.
const (
	configGroup    = "SERIAL_PORT"
	configDevice   = "DEVICE"
	configBaudRate = "BAUD_RATE"
)

// ConfigStore persists the last used device path and baud rate.
// Missing values are returned as empty strings.
type ConfigStore interface {
	SaveDevice(device string) error
	LoadDevice() string
	SaveBaudRate(baudRate string) error
	LoadBaudRate() string
}

// MemoryStore keeps the identity in memory.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

// SaveDevice implements ConfigStore.
func (m *MemoryStore) SaveDevice(device string) error {
	return m.set(configDevice, device)
}

// LoadDevice implements ConfigStore.
func (m *MemoryStore) LoadDevice() string {
	return m.get(configDevice)
}

// SaveBaudRate implements ConfigStore.
func (m *MemoryStore) SaveBaudRate(baudRate string) error {
	return m.set(configBaudRate, baudRate)
}

// LoadBaudRate implements ConfigStore.
func (m *MemoryStore) LoadBaudRate() string {
	return m.get(configBaudRate)
}

// FileStore keeps the identity in a YAML file:
//
//	SERIAL_PORT:
//	  DEVICE: /dev/ttyS4
//	  BAUD_RATE: "9600"
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store that uses the given file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file name.
func (f *FileStore) Path() string {
	return f.path
}

// load returns an empty document when the file is missing or unreadable.
func (f *FileStore) load() map[string]map[string]string {
	doc := map[string]map[string]string{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return doc
	}
	if err := yaml.Unmarshal(data, &doc); err != nil || doc == nil {
		return map[string]map[string]string{}
	}
	return doc
}

func (f *FileStore) set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := f.load()
	group := doc[configGroup]
	if group == nil {
		group = map[string]string{}
		doc[configGroup] = group
	}
	group[key] = value
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, data, 0o644)
}

func (f *FileStore) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()[configGroup][key]
}

// SaveDevice implements ConfigStore.
func (f *FileStore) SaveDevice(device string) error {
	return f.set(configDevice, device)
}

// LoadDevice implements ConfigStore.
func (f *FileStore) LoadDevice() string {
	return f.get(configDevice)
}

// SaveBaudRate implements ConfigStore.
func (f *FileStore) SaveBaudRate(baudRate string) error {
	return f.set(configBaudRate, baudRate)
}

// LoadBaudRate implements ConfigStore.
func (f *FileStore) LoadBaudRate() string {
	return f.get(configBaudRate)
}
