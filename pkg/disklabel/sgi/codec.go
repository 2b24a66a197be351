// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/siderolabs/gen/xerrors"

	"github.com/siderolabs/sgidisk/pkg/endianness"
)

// checksumOffset is the offset of Label.Checksum in the sector.
const checksumOffset = 504

// DeviceParameters is the drive parameter block of the label.
type DeviceParameters struct {
	Skew              uint8
	Gap1              uint8
	Gap2              uint8
	SpareCylinders    uint8
	PhysicalCylinders uint16
	HeadVol0          uint16
	Heads             uint16 // tracks per cylinder
	CmdTagQueueDepth  uint8
	Unused0           uint8
	Unused1           uint16
	Sectors           uint16 // sectors per track
	BytesPerSector    uint16
	Interleave        uint16
	Flags             uint32
	DataRate          uint32
	RetriesOnError    uint32
	MsPerWord         uint32
	XylogicsGap1      uint16
	XylogicsSyncDelay uint16
	XylogicsReadDelay uint16
	XylogicsGap2      uint16
	XylogicsReadGate  uint16
	XylogicsWriteCont uint16
}

// VolumeEntry is a volume directory entry.
//
// The directory holds standalone tools and metadata blocks stored in the volume header.
type VolumeEntry struct {
	Name  [VolumeNameSize]byte
	Start uint32 // sector
	Size  uint32 // bytes
}

// FileName returns the entry name without NUL padding.
func (v *VolumeEntry) FileName() string {
	return cString(v.Name[:])
}

// PartitionEntry is a partition table entry.
type PartitionEntry struct {
	NumSectors  uint32
	StartSector uint32
	ID          uint32
}

// Label is the on-disk label in host byte order.
//
// Field order and sizes match the disk layout, the struct encodes to exactly SectorSize bytes.
type Label struct {
	Magic         uint32
	BootPartition uint16
	SwapPartition uint16
	BootFile      [BootFileSize]byte
	Device        DeviceParameters
	Volumes       [NumVolumes]VolumeEntry
	Partitions    [NumPartitions]PartitionEntry
	Checksum      uint32
	Fill          uint32
}

// BootFileName returns the boot file without NUL padding.
func (l *Label) BootFileName() string {
	return cString(l.BootFile[:])
}

// Geometry returns the geometry recorded in the drive parameters.
func (l *Label) Geometry() Geometry {
	return Geometry{
		Heads:     uint32(l.Device.Heads),
		Sectors:   uint32(l.Device.Sectors),
		Cylinders: uint32(l.Device.PhysicalCylinders),
	}
}

// Checksum returns the negated sum of the 32-bit words in buf.
//
// A label is consistent when the checksum over the whole sector, including the
// stored checksum, is zero.
func Checksum(buf []byte, order binary.ByteOrder) uint32 {
	var sum uint32

	for i := 0; i+4 <= len(buf); i += 4 {
		sum -= order.Uint32(buf[i : i+4])
	}

	return sum
}

// Decode parses the label from the first sector in buf.
//
// Sectors without the magic fail with an InvalidLabelTag error. A label with a bad
// checksum is returned together with a ChecksumMismatchTag error, so the caller can
// decide to keep using it.
func Decode(buf []byte) (*Label, binary.ByteOrder, error) {
	if len(buf) < SectorSize {
		return nil, nil, xerrors.NewTaggedf[InvalidLabelTag]("sgi: short sector: %d bytes", len(buf))
	}

	buf = buf[:SectorSize]

	order, ok := endianness.Detect32(buf, Magic)
	if !ok {
		return nil, nil, xerrors.NewTaggedf[InvalidLabelTag]("sgi: unexpected magic %#08x, expecting %#08x", binary.BigEndian.Uint32(buf), uint32(Magic))
	}

	label := &Label{}

	if err := binary.Read(bytes.NewReader(buf), order, label); err != nil {
		return nil, nil, xerrors.NewTaggedf[InvalidLabelTag]("sgi: error decoding label: %w", err)
	}

	if sum := Checksum(buf, order); sum != 0 {
		return label, order, xerrors.NewTaggedf[ChecksumMismatchTag]("sgi: checksum mismatch: residue %#08x", sum)
	}

	return label, order, nil
}

// Encode serializes the label in the given byte order and fills in the checksum.
//
// The label itself is updated with the new checksum.
func Encode(label *Label, order binary.ByteOrder) ([]byte, error) {
	label.Checksum = 0

	buf := bytes.NewBuffer(make([]byte, 0, SectorSize))

	if err := binary.Write(buf, order, label); err != nil {
		return nil, fmt.Errorf("sgi: error encoding label: %w", err)
	}

	b := buf.Bytes()

	if len(b) != SectorSize {
		return nil, fmt.Errorf("sgi: encoded label is %d bytes, expecting %d", len(b), SectorSize)
	}

	label.Checksum = Checksum(b, order)
	order.PutUint32(b[checksumOffset:checksumOffset+4], label.Checksum)

	return b, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	return string(b)
}
