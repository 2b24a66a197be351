// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package endianness provides helpers for on-disk structures which might be
// written in either byte order.
package endianness

import (
	"encoding/binary"
)

// Detect32 returns the byte order in which the first four bytes of data
// decode to magic.
//
// Big-endian is tried first, so a palindromic magic always reports big-endian.
func Detect32(data []byte, magic uint32) (binary.ByteOrder, bool) {
	if len(data) < 4 {
		return nil, false
	}

	switch magic {
	case binary.BigEndian.Uint32(data[:4]):
		return binary.BigEndian, true
	case binary.LittleEndian.Uint32(data[:4]):
		return binary.LittleEndian, true
	default:
		return nil, false
	}
}
