// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sector_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	m := sector.NewMemory(4)

	data := bytes.Repeat([]byte{0xab}, sector.Size)

	require.NoError(t, m.WriteSector(2, data))

	buf, err := m.ReadSector(2)
	require.NoError(t, err)
	assert.Equal(t, data, buf)

	buf, err = m.ReadSector(1)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, sector.Size), buf)

	_, err = m.ReadSector(4)
	require.ErrorIs(t, err, sector.ErrOutOfRange)

	require.ErrorIs(t, m.WriteSector(-1, data), sector.ErrOutOfRange)
	require.Error(t, m.WriteSector(0, data[:10]))

	assert.Len(t, m.Bytes(), 4*sector.Size)
	assert.Equal(t, data, m.Bytes()[2*sector.Size:3*sector.Size])
}

func TestMemoryFailWrites(t *testing.T) {
	t.Parallel()

	m := sector.NewMemory(2)
	boom := errors.New("boom")

	m.FailWrites(1, boom)

	data := bytes.Repeat([]byte{1}, sector.Size)

	require.ErrorIs(t, m.WriteSector(1, data), boom)
	require.NoError(t, m.WriteSector(0, data))

	m.FailWrites(1, nil)

	require.NoError(t, m.WriteSector(1, data))
}

func TestFile(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "disk.img"))
	require.NoError(t, err)

	t.Cleanup(func() { f.Close() }) //nolint:errcheck

	require.NoError(t, f.Truncate(8*sector.Size))

	dev := sector.NewFile(f)

	data := bytes.Repeat([]byte{0x5a}, sector.Size)

	require.NoError(t, dev.WriteSector(7, data))

	buf, err := dev.ReadSector(7)
	require.NoError(t, err)
	assert.Equal(t, data, buf)

	_, err = dev.ReadSector(8)
	require.Error(t, err)

	require.Error(t, dev.WriteSector(0, data[:1]))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "disk.img")

	require.NoError(t, os.WriteFile(path, make([]byte, 4*sector.Size), 0o600))

	dev, err := sector.Open(t.Context(), path)
	require.NoError(t, err)

	assert.Equal(t, path, dev.Path())
	assert.EqualValues(t, sector.Size, dev.LogicalSectorSize())

	data := bytes.Repeat([]byte{0x42}, sector.Size)

	require.NoError(t, dev.WriteSector(1, data))
	require.NoError(t, dev.Sync())
	require.NoError(t, dev.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, contents[sector.Size:2*sector.Size])

	ro, err := sector.Open(t.Context(), path, sector.WithReadOnly(true))
	require.NoError(t, err)

	buf, err := ro.ReadSector(1)
	require.NoError(t, err)
	assert.Equal(t, data, buf)

	require.Error(t, ro.WriteSector(1, data))
	require.NoError(t, ro.Close())
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := sector.Open(t.Context(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
