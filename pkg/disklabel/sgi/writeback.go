// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"

	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
)

// Serialize encodes the label with a fresh checksum.
//
// The encoded sector is checksummed again, a nonzero result is reported with
// InternalChecksumFailureTag. The session is not modified.
func (s *Session) Serialize() ([]byte, error) {
	if !s.labeled {
		return nil, xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	label := *s.label

	buf, err := Encode(&label, s.order)
	if err != nil {
		return nil, xerrors.NewTaggedf[InternalChecksumFailureTag]("%w", err)
	}

	if sum := Checksum(buf, s.order); sum != 0 {
		return nil, xerrors.NewTaggedf[InternalChecksumFailureTag]("sgi: encoded label checksums to %#08x", sum)
	}

	return buf, nil
}

// Write stores the label in the first sector of the device.
//
// When the first volume directory entry is the info block, the info block is written
// to the sector recorded in the entry as well, whether or not the label write
// succeeded. The session only considers the changes written if both writes succeed.
func (s *Session) Write(dev sector.Device) error {
	buf, err := s.Serialize()
	if err != nil {
		return err
	}

	var result *multierror.Error

	if err = dev.WriteSector(0, buf); err != nil {
		result = multierror.Append(result, fmt.Errorf("error writing label: %w", err))
	}

	if v := s.label.Volumes[0]; v.FileName() == InfoVolumeName {
		if err = s.writeInfo(dev, int64(v.Start)); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err = result.ErrorOrNil(); err != nil {
		return xerrors.NewTagged[IOErrorTag](err)
	}

	s.label.Checksum = s.order.Uint32(buf[checksumOffset : checksumOffset+4])
	s.checksumValid = true

	s.logger.Info("label written", zap.Ints("changed", s.table.DirtyIndices()))

	s.table.ClearDirty()

	return nil
}

func (s *Session) writeInfo(dev sector.Device, lba int64) error {
	info, err := NewInfo().Bytes(s.order)
	if err != nil {
		return err
	}

	if err = dev.WriteSector(lba, info); err != nil {
		return fmt.Errorf("error writing info block at sector %d: %w", lba, err)
	}

	return nil
}
