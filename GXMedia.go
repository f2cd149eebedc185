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
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Gurux/gxcommon-go"
)

// The methods in this file make GXDeviceSession usable as gxcommon.IGXMedia.
var _ gxcommon.IGXMedia = (*GXDeviceSession)(nil)

// String implements IGXMedia
func (g *GXDeviceSession) String() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fmt.Sprintf("%s %d %s", g.device, int(g.baudRate), resolvePolicy(g.policy, g.baudRate))
}

// GetName implements IGXMedia
func (g *GXDeviceSession) GetName() string {
	return g.Device()
}

// IsOpen implements IGXMedia
func (g *GXDeviceSession) IsOpen() bool {
	return g.State() == StateRunning
}

// Copy implements IGXMedia
func (g *GXDeviceSession) Copy(target gxcommon.IGXMedia) error {
	dst, ok := target.(*GXDeviceSession)
	if !ok {
		return fmt.Errorf("copy: target is %T; want *GXDeviceSession", target)
	}
	if dst == g {
		return nil
	}
	g.mu.RLock()
	device, baudRate, policy := g.device, g.baudRate, g.policy
	traceLevel, eop := g.traceLevel, g.eop
	g.mu.RUnlock()
	dst.mu.Lock()
	dst.device = device
	dst.baudRate = baudRate
	dst.policy = policy
	dst.traceLevel = traceLevel
	dst.eop = eop
	dst.mu.Unlock()
	return nil
}

// GetMediaType implements IGXMedia
func (g *GXDeviceSession) GetMediaType() string {
	return "Serial"
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// GetSettings implements IGXMedia
//
// Gap and Timeout are written in milliseconds. Gap is written only when it
// has been set explicitly.
func (g *GXDeviceSession) GetSettings() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var b strings.Builder
	if g.device != "" {
		fmt.Fprintf(&b, "<Port>%s</Port>\n", xmlEscape(g.device))
	}
	if g.baudRate != 0 {
		fmt.Fprintf(&b, "<Bps>%d</Bps>\n", int(g.baudRate))
	}
	switch v := resolvePolicy(g.policy, referenceBaudRate).(type) {
	case FixedLengthOrTimeout:
		fmt.Fprintf(&b, "<Length>%d</Length>\n", v.Length)
		fmt.Fprintf(&b, "<Timeout>%d</Timeout>\n", v.Timeout.Milliseconds())
	case AutoGap:
		if p, ok := g.policy.(AutoGap); ok && p.Gap != 0 {
			fmt.Fprintf(&b, "<Gap>%d</Gap>\n", p.Gap.Milliseconds())
		}
	}
	return b.String()
}

// SetSettings implements IGXMedia
func (g *GXDeviceSession) SetSettings(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var (
		device             string
		baudRate           gxcommon.BaudRate
		gap, length, tmout int
		hasPort, hasBps    bool
	)
	dec := xml.NewDecoder(strings.NewReader("<root>" + value + "</root>"))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var v string
		switch se.Name.Local {
		case "Port", "Bps", "Gap", "Length", "Timeout":
			if err := dec.DecodeElement(&v, &se); err != nil {
				return err
			}
		default:
			continue
		}
		switch se.Name.Local {
		case "Port":
			device, hasPort = v, true
		case "Bps":
			baudRate, err = gxcommon.BaudRateParse(v)
			if err != nil {
				return err
			}
			hasBps = true
		case "Gap":
			if gap, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("invalid Gap value: %v", err)
			}
		case "Length":
			if length, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("invalid Length value: %v", err)
			}
		case "Timeout":
			if tmout, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("invalid Timeout value: %v", err)
			}
		}
	}
	var policy FramingPolicy
	if length != 0 {
		policy = FixedLengthOrTimeout{Length: length, Timeout: time.Duration(tmout) * time.Millisecond}
	} else if gap != 0 {
		policy = AutoGap{Gap: time.Duration(gap) * time.Millisecond}
	}
	if hasPort {
		g.SetDevice(device)
	}
	if hasBps {
		g.SetBaudRate(baudRate)
	}
	if policy != nil {
		return g.SetFramingPolicy(policy)
	}
	return nil
}

// GetSynchronous implements IGXMedia
func (g *GXDeviceSession) GetSynchronous() func() {
	g.mu.Lock()
	g.synchronous = true
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.synchronous = false
		g.mu.Unlock()
	}
}

// IsSynchronous implements IGXMedia
func (g *GXDeviceSession) IsSynchronous() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.synchronous
}

// ResetSynchronousBuffer implements IGXMedia
func (g *GXDeviceSession) ResetSynchronousBuffer() {
	g.received.reset()
}

// GetBytesSent implements IGXMedia
func (g *GXDeviceSession) GetBytesSent() uint64 {
	return g.bytesSent.Load()
}

// GetBytesReceived implements IGXMedia
func (g *GXDeviceSession) GetBytesReceived() uint64 {
	return g.bytesReceived.Load()
}

// ResetByteCounters implements IGXMedia
func (g *GXDeviceSession) ResetByteCounters() {
	g.bytesSent.Store(0)
	g.bytesReceived.Store(0)
	g.framesReceived.Store(0)
}

// Validate implements IGXMedia
func (g *GXDeviceSession) Validate() error {
	if g.Device() == "" {
		return errors.New(g.printer().Sprintf("msg.no_serial_port_selected"))
	}
	return nil
}

// SetEop implements IGXMedia
func (g *GXDeviceSession) SetEop(eop any) {
	g.mu.Lock()
	g.eop = eop
	g.mu.Unlock()
}

// GetEop implements IGXMedia
func (g *GXDeviceSession) GetEop() any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.eop
}

// GetTrace implements IGXMedia
func (g *GXDeviceSession) GetTrace() gxcommon.TraceLevel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.traceLevel
}

// SetTrace implements IGXMedia
func (g *GXDeviceSession) SetTrace(traceLevel gxcommon.TraceLevel) error {
	g.mu.Lock()
	g.traceLevel = traceLevel
	g.mu.Unlock()
	return nil
}

// SetOnReceived implements IGXMedia
func (g *GXDeviceSession) SetOnReceived(value gxcommon.ReceivedEventHandler) {
	g.mu.Lock()
	g.onReceive = value
	g.mu.Unlock()
}

// SetOnError implements IGXMedia
func (g *GXDeviceSession) SetOnError(value gxcommon.ErrorEventHandler) {
	g.mu.Lock()
	g.onErr = value
	g.mu.Unlock()
}

// SetOnMediaStateChange implements IGXMedia
func (g *GXDeviceSession) SetOnMediaStateChange(value gxcommon.MediaStateHandler) {
	g.mu.Lock()
	g.onState = value
	g.mu.Unlock()
}

// SetOnTrace implements IGXMedia
func (g *GXDeviceSession) SetOnTrace(value gxcommon.TraceEventHandler) {
	g.mu.Lock()
	g.onTrace = value
	g.mu.Unlock()
}

// Open implements IGXMedia
func (g *GXDeviceSession) Open() error {
	err := g.Start()
	if errors.Is(err, ErrAlreadyRunning) {
		return nil
	}
	return err
}

// Send implements IGXMedia
//
// Send waits until the data is written.
func (g *GXDeviceSession) Send(data any, receiver string) error {
	tmp, err := gxcommon.ToBytes(data, binary.BigEndian)
	if err != nil {
		return err
	}
	return <-g.SendAsync(tmp, nil)
}

// Receive implements IGXMedia
//
// Frames are collected for Receive only while the session is synchronous.
func (g *GXDeviceSession) Receive(args *gxcommon.ReceiveParameters) (bool, error) {
	if args.EOP == nil && args.Count == 0 && !args.AllData {
		return false, errors.New(g.printer().Sprintf("msg.count_or_eop"))
	}
	var terminator []byte
	if args.EOP != nil {
		var err error
		terminator, err = gxcommon.ToBytes(args.EOP, binary.BigEndian)
		if err != nil {
			return false, err
		}
	}
	var waitTime time.Duration
	if args.WaitTime > 0 {
		waitTime = time.Duration(args.WaitTime) * time.Millisecond
	}
	index := g.received.search(terminator, args.Count, waitTime)
	if index == -1 {
		return false, nil
	}
	if args.AllData {
		//Read all data.
		index = -1
	}
	var err error
	args.Reply, err = gxcommon.BytesToAny2(g.received.take(index), args.ReplyType, binary.ByteOrder(binary.BigEndian))
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close implements IGXMedia
func (g *GXDeviceSession) Close() error {
	g.Stop()
	return nil
}
