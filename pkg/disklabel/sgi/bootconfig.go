// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"strings"

	"github.com/siderolabs/gen/xerrors"
	"go.uber.org/zap"
)

// BootFileStatus is the outcome of SetBootFile.
type BootFileStatus int

// Boot file outcomes.
const (
	BootFileUnchanged BootFileStatus = iota
	BootFileChanged
)

func (s BootFileStatus) String() string {
	if s == BootFileChanged {
		return "changed"
	}

	return "unchanged"
}

// "/a" plus a character is the shortest accepted path.
const minBootFileLength = 3

// CheckBootFile validates a boot file path.
func CheckBootFile(path string) error {
	switch {
	case len(path) < minBootFileLength:
		return xerrors.NewTaggedf[RejectedMutationTag](
			"invalid boot file %q: the boot file must be an absolute non-zero pathname, e.g. \"/unix\" or \"/unix.save\"", path)
	case len(path) > BootFileSize:
		return xerrors.NewTaggedf[RejectedMutationTag]("boot file name %q is too long: %d bytes maximum", path, BootFileSize)
	case !strings.HasPrefix(path, "/"):
		return xerrors.NewTaggedf[RejectedMutationTag]("boot file %q must have a fully qualified pathname", path)
	}

	return nil
}

// SetBootFile stores the boot file path.
//
// The existence of the file in the volume header is not checked.
func (s *Session) SetBootFile(path string) (BootFileStatus, error) {
	if !s.labeled {
		return BootFileUnchanged, xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	if err := CheckBootFile(path); err != nil {
		return BootFileUnchanged, err
	}

	if path == s.label.BootFileName() {
		return BootFileUnchanged, nil
	}

	s.label.BootFile = [BootFileSize]byte{}
	copy(s.label.BootFile[:], path)

	s.printf("Boot file is changed to %q. It is not checked for existence, SGI's default is %q and %q for backup.\n",
		path, DefaultBootFile, DefaultBootFile+".save")
	s.logger.Info("boot file changed", zap.String("boot_file", path))

	return BootFileChanged, nil
}

// SetBootPartition stores the boot partition index as is.
func (s *Session) SetBootPartition(i int) error {
	if !s.labeled {
		return xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	s.label.BootPartition = uint16(i)

	s.logger.Info("boot partition changed", zap.Int("partition", i+1))

	return nil
}

// SetSwapPartition stores the swap partition index as is.
func (s *Session) SetSwapPartition(i int) error {
	if !s.labeled {
		return xerrors.NewTaggedf[RejectedMutationTag]("no disk label")
	}

	s.label.SwapPartition = uint16(i)

	s.logger.Info("swap partition changed", zap.Int("partition", i+1))

	return nil
}
