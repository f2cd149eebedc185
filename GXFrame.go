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
	"encoding/hex"
	"strings"
)

// Frame is one complete unit of received bytes.
// A frame is immutable; Bytes returns a copy.
type Frame struct {
	data []byte
	hex  string
}

// newFrame takes ownership of data.
func newFrame(data []byte) Frame {
	return Frame{data: data, hex: strings.ToUpper(hex.EncodeToString(data))}
}

// Bytes returns a copy of the frame bytes.
func (f Frame) Bytes() []byte {
	ret := make([]byte, len(f.data))
	copy(ret, f.data)
	return ret
}

// Len returns the number of bytes in the frame.
func (f Frame) Len() int {
	return len(f.data)
}

// Hex returns the frame as uppercase hexadecimal pairs without separators.
func (f Frame) Hex() string {
	return f.hex
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return f.hex
}

// ParseHex converts a string returned by Frame.Hex back to bytes.
func ParseHex(value string) ([]byte, error) {
	return hex.DecodeString(value)
}
