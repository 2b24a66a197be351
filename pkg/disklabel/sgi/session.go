// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"

	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi/freelist"
)

// Session owns a label being inspected or edited.
//
// A session is not safe for concurrent use.
type Session struct {
	opts   *Options
	logger *zap.Logger

	label *Label
	order binary.ByteOrder
	table *Table

	geometry Geometry

	labeled       bool
	checksumValid bool

	free *freelist.Result
}

// LegacyPartition is an entry carried over from a previous partition table.
type LegacyPartition struct {
	Start    uint32
	Sectors  uint32
	SystemID SystemID
}

// New returns a session without a label for a device of the given geometry.
func New(geometry Geometry, setters ...Option) *Session {
	opts := NewDefaultOptions(setters...)

	s := &Session{
		opts:     opts,
		logger:   opts.Logger,
		geometry: geometry,
	}

	s.reset()

	return s
}

// Open reads the label from the first sector of the device.
//
// Errors tagged with InvalidLabelTag or ChecksumMismatchTag still return a usable
// session, in no-label mode or with the suspicious label loaded respectively.
func Open(dev sector.Device, geometry Geometry, setters ...Option) (*Session, error) {
	s := New(geometry, setters...)

	buf, err := dev.ReadSector(0)
	if err != nil {
		return nil, xerrors.NewTaggedf[IOErrorTag]("error reading label sector: %w", err)
	}

	return s, s.Load(buf)
}

func (s *Session) reset() {
	s.label = &Label{}
	s.order = binary.BigEndian
	s.table = newTable(s.label, NoLabelPartitions)
	s.labeled = false
	s.checksumValid = false

	s.refresh()
}

// Load replaces the session state with the label decoded from buf.
//
// The drive geometry is taken from the label only if its checksum is valid.
func (s *Session) Load(buf []byte) error {
	label, order, err := Decode(buf)

	switch {
	case err == nil:
		s.geometry = label.Geometry()
		s.checksumValid = true
	case xerrors.TagIs[ChecksumMismatchTag](err):
		s.printf("Detected sgi disklabel with wrong checksum.\n")
		s.logger.Warn("label checksum mismatch, keeping known geometry", zap.Error(err), zap.Stringer("geometry", s.geometry))

		s.checksumValid = false
	default:
		s.reset()

		return err
	}

	s.label = label
	s.order = order
	s.table = newTable(s.label, NumPartitions)
	s.labeled = true

	s.refresh()

	s.logger.Debug("label loaded",
		zap.Stringer("byte_order", order),
		zap.Stringer("geometry", s.geometry),
		zap.Int("partitions", s.table.CountUsed()),
	)

	return err
}

// Create builds a fresh label for the session geometry.
//
// The entire disk entry and the volume header are created automatically, then up to
// four legacy entries are copied into the first slots.
func (s *Session) Create(legacy ...LegacyPartition) error {
	g := s.geometry

	if g.LastBlock() == 0 {
		return xerrors.NewTaggedf[RejectedMutationTag]("cannot create a label without geometry (%s)", g)
	}

	if g.Heads > math.MaxUint16 || g.Sectors > math.MaxUint16 || g.Cylinders > math.MaxUint16 {
		return xerrors.NewTaggedf[RejectedMutationTag]("geometry %s does not fit the drive parameters", g)
	}

	if g.LastBlock() > math.MaxUint32 {
		return xerrors.NewTaggedf[RejectedMutationTag]("disk of %d sectors is too large for the label", g.LastBlock())
	}

	if len(legacy) > NoLabelPartitions {
		return xerrors.NewTaggedf[RejectedMutationTag]("at most %d legacy partitions can be kept, got %d", NoLabelPartitions, len(legacy))
	}

	s.printf("Building a new SGI disklabel. Changes will remain in memory only, until you decide to write them.\n")

	s.label = &Label{
		Magic:         Magic,
		BootPartition: 0,
		SwapPartition: 1,
		Device: DeviceParameters{
			PhysicalCylinders: uint16(g.Cylinders),
			Heads:             uint16(g.Heads),
			Sectors:           uint16(g.Sectors),
			BytesPerSector:    SectorSize,
			Interleave:        1,
			Flags:             FlagTrackForward | FlagIgnoreErrors | FlagReseek,
			RetriesOnError:    1,
		},
	}

	copy(s.label.BootFile[:], DefaultBootFile)

	// SGI machines are big-endian
	s.order = binary.BigEndian
	s.table = newTable(s.label, NumPartitions)
	s.labeled = true
	s.checksumValid = true

	s.refresh()

	s.setEntireDisk()
	s.setVolumeHeader()

	for i, old := range legacy {
		if old.SystemID == 0 {
			continue
		}

		s.printf("Trying to keep parameters of partition %d.\n", i+1)
		s.setPartition(i, old.Start, old.Sectors, old.SystemID)
	}

	s.logger.Info("label created", zap.Stringer("geometry", g), zap.Int("legacy", len(legacy)))

	return nil
}

// CreateInfo points the first volume directory entry to the info block in sector 2.
//
// The info block is written together with the label.
func (s *Session) CreateInfo() error {
	if !s.labeled {
		return xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	v := &s.label.Volumes[0]

	v.Name = [VolumeNameSize]byte{}
	copy(v.Name[:], InfoVolumeName)
	v.Start = infoSector
	v.Size = InfoSize

	return nil
}

// Clear drops the label and falls back to the four entry no-label mode.
func (s *Session) Clear() {
	s.reset()

	s.logger.Debug("label cleared")
}

// Labeled reports whether the session holds a label.
func (s *Session) Labeled() bool {
	return s.labeled
}

// ChecksumValid reports whether the loaded label checksummed to zero.
func (s *Session) ChecksumValid() bool {
	return s.labeled && s.checksumValid
}

// ByteOrder returns the byte order the label is stored in.
func (s *Session) ByteOrder() binary.ByteOrder {
	return s.order
}

// Geometry returns the geometry in use.
func (s *Session) Geometry() Geometry {
	return s.geometry
}

// Label returns a copy of the label.
func (s *Session) Label() Label {
	return *s.label
}

// Table returns the partition table.
func (s *Session) Table() *Table {
	return s.table
}

// FreeSpace scans the table for vacant sectors.
func (s *Session) FreeSpace() *freelist.Result {
	s.refresh()

	return s.free
}

// BootPartition returns the boot partition index.
func (s *Session) BootPartition() int {
	return int(s.label.BootPartition)
}

// SwapPartition returns the swap partition index.
func (s *Session) SwapPartition() int {
	return int(s.label.SwapPartition)
}

// BootFile returns the boot file path.
func (s *Session) BootFile() string {
	return s.label.BootFileName()
}

// Volume is a used volume directory entry with its index.
type Volume struct {
	VolumeEntry

	Index int
}

// Volumes returns the volume directory entries with a nonzero size.
func (s *Session) Volumes() []Volume {
	if !s.labeled {
		return nil
	}

	var volumes []Volume

	for i, v := range s.label.Volumes {
		if v.Size != 0 {
			volumes = append(volumes, Volume{VolumeEntry: v, Index: i})
		}
	}

	return volumes
}

func (s *Session) refresh() {
	s.free = freelist.Compute(s.table.Segments(), s.geometry.LastBlock())
}

func (s *Session) printf(format string, args ...any) {
	s.opts.Printf(format, args...)
}

func (s *Session) lastBlock32() uint32 {
	return clamp32(s.geometry.LastBlock())
}

func clamp32(v int64) uint32 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}

func (s *Session) checkIndex(i int) error {
	if !s.labeled {
		return xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	if !s.table.Valid(i) {
		return xerrors.NewTaggedf[RejectedMutationTag]("partition %d is out of range 1-%d", i+1, s.table.Len())
	}

	return nil
}

func partitionName(i int) string {
	return fmt.Sprintf("#%d", i+1)
}
