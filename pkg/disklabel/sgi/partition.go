// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"github.com/dustin/go-humanize"
	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"
)

func (s *Session) setPartition(i int, start, length uint32, id SystemID) {
	s.table.Set(i, start, length, id)

	s.refresh()

	if s.free.Gap < 0 {
		s.printf("Note: partitions overlap on the disk.\n")
	}
}

// setEntireDisk creates the entire disk entry in the first free slot from partition 11 on.
func (s *Session) setEntireDisk() {
	for n := EntireDiskIndex; n < s.table.Len(); n++ {
		if !s.table.Used(n) {
			s.setPartition(n, 0, s.lastBlock32(), EntireDisk)

			return
		}
	}
}

// setVolumeHeader creates a five cylinder volume header in the first free slot from partition 9 on.
func (s *Session) setVolumeHeader() {
	size := s.geometry.CylinderSize() * volumeHeaderCylinders

	for n := VolumeHeaderIndex; n < s.table.Len(); n++ {
		if s.table.Used(n) {
			continue
		}

		if size < s.geometry.LastBlock() {
			s.setPartition(n, 0, uint32(size), VolumeHeader)
		}

		return
	}
}

// AddPartition defines entry i over sectors [first, end).
//
// Partition 11 is always added as the entire disk and partition 9 as the volume
// header. When the label has no entire disk entry yet, it is created together with a
// volume header before the new entry is placed. Entries other than the entire disk
// have to fit into a single free extent.
//
// A rejected request leaves the table as it was, automatic entries included.
func (s *Session) AddPartition(i int, id SystemID, first, end uint32) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	s.refresh()

	saved := s.table.save()

	if err := s.addPartition(i, id, first, end); err != nil {
		s.table.restore(saved)
		s.refresh()

		return err
	}

	return nil
}

//nolint:gocyclo
func (s *Session) addPartition(i int, id SystemID, first, end uint32) error {
	switch i {
	case EntireDiskIndex:
		id = EntireDisk
	case VolumeHeaderIndex:
		id = VolumeHeader
	}

	if s.table.Used(i) {
		return xerrors.NewTaggedf[RejectedMutationTag]("partition %s is already defined, delete it before re-adding it", partitionName(i))
	}

	if _, ok := s.table.FindEntireDisk().Get(); !ok && id != EntireDisk {
		s.printf("Attempting to generate entire disk entry automatically.\n")

		s.setEntireDisk()
		s.setVolumeHeader()

		if s.table.Used(i) {
			return xerrors.NewTaggedf[RejectedMutationTag]("partition %s was taken by the automatic entries", partitionName(i))
		}
	}

	gap := s.free.Gap

	if gap == 0 && id != EntireDisk {
		return xerrors.NewTaggedf[RejectedMutationTag]("the entire disk is already covered with partitions")
	}

	if gap < 0 {
		return xerrors.NewTaggedf[RejectedMutationTag]("partitions overlap on the disk, fix it first")
	}

	lastBlock := s.geometry.LastBlock()

	if end <= first {
		return xerrors.NewTaggedf[RejectedMutationTag]("partition %s would be empty: first %d, end %d", partitionName(i), first, end)
	}

	if id == EntireDisk {
		if int64(first) >= lastBlock || int64(end) > lastBlock {
			return xerrors.NewTaggedf[RejectedMutationTag]("sectors %d-%d are beyond the end of the disk at %d", first, end-1, lastBlock)
		}

		if first != 0 || int64(end) != lastBlock {
			s.printf("It is highly recommended that the eleventh partition covers the entire disk and is of type 'SGI volume'.\n")
		}
	} else {
		bound, ok := s.free.Free.Contains(int64(first))
		if !ok {
			return xerrors.NewTaggedf[RejectedMutationTag]("sector %d is not vacant, the partition would overlap", first)
		}

		if int64(end) > bound {
			return xerrors.NewTaggedf[RejectedMutationTag]("partition %s would overlap: free extent ends at %d, requested end %d", partitionName(i), bound, end)
		}
	}

	s.setPartition(i, first, end-first, id)

	s.logger.Info("partition added",
		zap.Int("partition", i+1),
		zap.Uint32("start", first),
		zap.Uint32("sectors", end-first),
		zap.Stringer("type", id),
		zap.String("size", humanize.IBytes(uint64(end-first)*SectorSize)),
	)

	return nil
}

// DeletePartition clears entry i.
func (s *Session) DeletePartition(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	s.setPartition(i, 0, 0, 0)

	s.logger.Info("partition deleted", zap.Int("partition", i+1))

	return nil
}

// ChangeSystemID retags entry i.
//
// Entries starting at sector 0 are expected to be the volume header or the entire
// disk: any other type there requires confirmed to be set.
func (s *Session) ChangeSystemID(i int, id SystemID, confirmed bool) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	if !s.table.Used(i) {
		return xerrors.NewTaggedf[RejectedMutationTag]("only the type of non-empty partitions can be changed")
	}

	if id != EntireDisk && id != VolumeHeader && s.table.Start(i) < 1 && !confirmed {
		return xerrors.NewTaggedf[ConfirmationRequiredTag](
			"partition %s starts at sector 0, which IRIX expects to be the %q or the %q entry", partitionName(i), VolumeHeader, EntireDisk)
	}

	s.table.SetSystemID(i, id)

	s.refresh()

	s.logger.Info("partition type changed", zap.Int("partition", i+1), zap.Stringer("type", id))

	return nil
}
