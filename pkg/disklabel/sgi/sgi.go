// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sgi implements the SGI/IRIX volume header disk label.
//
// The label occupies the first 512-byte sector of the disk and holds 16 partition
// entries, 15 volume directory entries, the drive parameters and a checksum which
// makes all 32-bit words of the sector sum to zero.
package sgi

import (
	"fmt"
	"strconv"
	"strings"
)

// Label layout constants.
const (
	// Magic identifies the label in either byte order.
	Magic = 0x0be5a941

	// SectorSize is the size of the label and of the disk blocks it addresses.
	SectorSize = 512

	// NumPartitions is the number of partition entries in a label.
	NumPartitions = 16
	// NumVolumes is the number of volume directory entries in a label.
	NumVolumes = 15
	// NoLabelPartitions is the number of entries exposed without a label.
	NoLabelPartitions = 4

	// BootFileSize is the size of the boot file field.
	BootFileSize = 16
	// VolumeNameSize is the size of a volume directory entry name.
	VolumeNameSize = 8

	// DefaultBootFile is the IRIX kernel path.
	DefaultBootFile = "/unix"
)

// Conventional indices of the reserved entries.
const (
	// VolumeHeaderIndex is where the volume header lives (partition 9).
	VolumeHeaderIndex = 8
	// EntireDiskIndex is where IRIX expects the whole disk entry (partition 11).
	EntireDiskIndex = 10

	// volumeHeaderCylinders is the size of an automatically created volume header.
	volumeHeaderCylinders = 5
)

// Drive parameter flags.
const (
	FlagSectorSlip    = 0x01
	FlagSectorForward = 0x02
	FlagTrackForward  = 0x04
	FlagTrackMultiVol = 0x08
	FlagIgnoreErrors  = 0x10
	FlagReseek        = 0x20
	FlagCmdTagQueue   = 0x40
)

// SystemID is the partition type tag.
type SystemID uint32

// Known partition types.
const (
	VolumeHeader      SystemID = 0x00
	TrackReplacement  SystemID = 0x01
	SectorReplacement SystemID = 0x02
	Raw               SystemID = 0x03
	BSD               SystemID = 0x04
	SysV              SystemID = 0x05
	EntireDisk        SystemID = 0x06
	EFS               SystemID = 0x07
	LVol              SystemID = 0x08
	RLVol             SystemID = 0x09
	XFS               SystemID = 0x0a
	XLVol             SystemID = 0x0b
	RXLVol            SystemID = 0x0c
	LinuxSwap         SystemID = 0x82
	LinuxNative       SystemID = 0x83
)

// SystemType is a known partition type with its name.
type SystemType struct {
	ID   SystemID
	Name string
}

var systemTypes = []SystemType{
	{VolumeHeader, "SGI volhdr"},
	{TrackReplacement, "SGI trkrepl"},
	{SectorReplacement, "SGI secrepl"},
	{Raw, "SGI raw"},
	{BSD, "SGI bsd"},
	{SysV, "SGI sysv"},
	{EntireDisk, "SGI volume"},
	{EFS, "SGI efs"},
	{LVol, "SGI lvol"},
	{RLVol, "SGI rlvol"},
	{XFS, "SGI xfs"},
	{XLVol, "SGI xlvol"},
	{RXLVol, "SGI rxlvol"},
	{LinuxSwap, "Linux swap"},
	{LinuxNative, "Linux native"},
}

// SystemTypes returns the known partition types.
func SystemTypes() []SystemType {
	return append([]SystemType(nil), systemTypes...)
}

// Name returns the type name, and false for unknown ids.
func (id SystemID) Name() (string, bool) {
	for _, t := range systemTypes {
		if t.ID == id {
			return t.Name, true
		}
	}

	return "", false
}

func (id SystemID) String() string {
	if name, ok := id.Name(); ok {
		return name
	}

	return fmt.Sprintf("Unknown (%#x)", uint32(id))
}

// ParseSystemID parses a partition type given as a number ("0x83", "131") or as a
// name, with or without the "SGI " prefix ("xfs", "SGI volume", "linux swap").
func ParseSystemID(s string) (SystemID, error) {
	s = strings.TrimSpace(s)

	if v, err := strconv.ParseUint(s, 0, 32); err == nil {
		return SystemID(v), nil
	}

	for _, t := range systemTypes {
		if strings.EqualFold(s, t.Name) || strings.EqualFold(s, strings.TrimPrefix(t.Name, "SGI ")) {
			return t.ID, nil
		}
	}

	return 0, fmt.Errorf("unknown partition type %q", s)
}

// IsSwap reports whether the type is accepted for the swap partition.
func (id SystemID) IsSwap() bool {
	return id == Raw || id == LinuxSwap
}

// Geometry is the device geometry in the classic CHS sense.
type Geometry struct {
	Heads     uint32
	Sectors   uint32
	Cylinders uint32
}

// CylinderSize returns the number of sectors in a cylinder.
func (g Geometry) CylinderSize() int64 {
	return int64(g.Heads) * int64(g.Sectors)
}

// LastBlock returns the number of addressable sectors.
func (g Geometry) LastBlock() int64 {
	return g.CylinderSize() * int64(g.Cylinders)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d heads, %d sectors, %d cylinders", g.Heads, g.Sectors, g.Cylinders)
}
