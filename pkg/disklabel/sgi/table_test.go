// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi/freelist"
)

func TestTable(t *testing.T) {
	t.Parallel()

	s, _ := newLabeledSession(t)
	table := s.Table()

	assert.Equal(t, sgi.NumPartitions, table.Len())
	assert.True(t, table.Valid(15))
	assert.False(t, table.Valid(16))
	assert.False(t, table.Valid(-1))

	assert.Panics(t, func() { table.Start(16) })

	table.ClearDirty()
	assert.Zero(t, table.DirtyCount())
	assert.Nil(t, table.DirtyIndices())

	table.Set(3, 320, 64, sgi.LinuxNative)
	table.SetSystemID(5, sgi.XFS)

	assert.True(t, table.Used(3))
	assert.False(t, table.Used(5))
	assert.Equal(t, sgi.XFS, table.SystemID(5))

	assert.Equal(t, []int{3, 5}, table.DirtyIndices())
	assert.Equal(t, 2, table.DirtyCount())
	assert.True(t, table.Dirty(3))
	assert.False(t, table.Dirty(4))
	assert.False(t, table.Dirty(100))

	assert.Equal(t, 3, table.CountUsed())

	segments := table.Segments()
	require.Len(t, segments, sgi.NumPartitions)

	assert.Equal(t, freelist.Segment{Index: 3, Start: 320, Length: 64}, segments[3])
	assert.Equal(t, freelist.Segment{Index: 10, Start: 0, Length: 1280, EntireDisk: true}, segments[10])

	// the table is a view of the label
	label := s.Label()
	assert.Equal(t, sgi.PartitionEntry{NumSectors: 64, StartSector: 320, ID: uint32(sgi.LinuxNative)}, label.Partitions[3])
}

func TestTableNoLabel(t *testing.T) {
	t.Parallel()

	s, _ := newSession(t)
	table := s.Table()

	assert.Equal(t, sgi.NoLabelPartitions, table.Len())
	assert.False(t, table.Valid(4))
	assert.Len(t, table.Segments(), sgi.NoLabelPartitions)

	_, ok := table.FindEntireDisk().Get()
	assert.False(t, ok)
}

func TestSystemID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SGI volume", sgi.EntireDisk.String())
	assert.Equal(t, "Linux native", sgi.LinuxNative.String())
	assert.Equal(t, "Unknown (0x42)", sgi.SystemID(0x42).String())

	_, ok := sgi.SystemID(0x42).Name()
	assert.False(t, ok)

	assert.True(t, sgi.Raw.IsSwap())
	assert.True(t, sgi.LinuxSwap.IsSwap())
	assert.False(t, sgi.XFS.IsSwap())

	types := sgi.SystemTypes()
	require.Len(t, types, 15)
	assert.Equal(t, sgi.VolumeHeader, types[0].ID)

	// callers get a copy
	types[0].Name = "changed"
	assert.Equal(t, "SGI volhdr", sgi.SystemTypes()[0].Name)
}

func TestParseSystemID(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		in       string
		expected sgi.SystemID
	}{
		{"0x83", sgi.LinuxNative},
		{"131", sgi.LinuxNative},
		{"6", sgi.EntireDisk},
		{"xfs", sgi.XFS},
		{"SGI volume", sgi.EntireDisk},
		{" linux swap ", sgi.LinuxSwap},
		{"0x42", sgi.SystemID(0x42)},
	} {
		t.Run(test.in, func(t *testing.T) {
			t.Parallel()

			id, err := sgi.ParseSystemID(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.expected, id)
		})
	}

	_, err := sgi.ParseSystemID("ntfs")
	require.Error(t, err)

	_, err = sgi.ParseSystemID("0x100000000")
	require.Error(t, err)
}

func TestGeometry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(64), testGeometry.CylinderSize())
	assert.Equal(t, int64(1280), testGeometry.LastBlock())
	assert.Equal(t, "4 heads, 16 sectors, 20 cylinders", testGeometry.String())

	big := sgi.Geometry{Heads: 255, Sectors: 63, Cylinders: 65535}
	assert.Equal(t, int64(255*63*65535), big.LastBlock())
}
