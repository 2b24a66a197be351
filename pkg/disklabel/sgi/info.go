// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Info block constants.
const (
	// InfoMagic identifies the info block.
	InfoMagic = 0x00072959
	// InfoSize is the size of the info block.
	InfoSize = SectorSize
	// InfoVolumeName is the volume directory name which enables the info block.
	InfoVolumeName = "sgilabel"

	// IRIX keeps the info block in the second block after the label.
	infoSector = 2
)

// Info is the installer information block IRIX tools write next to the label.
type Info struct {
	Magic      uint32
	A2         uint32
	A3         uint32
	A4         uint32
	B1         uint32
	B2         uint16
	B3         uint16
	C          [16]uint32
	D          [3]uint16
	SCSIString [50]byte
	Serial     [137]byte
	_          uint8
	Check1816  uint16
	Installer  [225]byte
	_          [3]byte
}

// NewInfo returns the info block template.
func NewInfo() *Info {
	info := &Info{
		Magic:     InfoMagic,
		B1:        0xffffffff,
		B2:        0xffff,
		B3:        1,
		Check1816: 18*256 + 16,
	}

	copy(info.SCSIString[:], "IBM OEM 0662S12         3 30")
	copy(info.Serial[:], "0000")
	copy(info.Installer[:], "Sfx version 5.3, Oct 18, 1994")

	return info
}

// Bytes serializes the info block.
func (info *Info) Bytes(order binary.ByteOrder) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, InfoSize))

	if err := binary.Write(buf, order, info); err != nil {
		return nil, fmt.Errorf("sgi: error encoding info block: %w", err)
	}

	return buf.Bytes(), nil
}
