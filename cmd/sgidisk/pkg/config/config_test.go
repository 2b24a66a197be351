// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/go-pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/sgidisk/cmd/sgidisk/pkg/config"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
)

const fullConfig = `device: /dev/sdb
geometry:
  heads: 16
  sectors: 63
  cylinders: 1024
debug: true
logLevel: info
lockTimeout: 30s
bootFile: /unix.save
info: true
legacyPartitions:
  - start: 5040
    sectors: 100800
    type: xfs
  - start: 105840
    sectors: 20160
    type: 0x82
`

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(fullConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/sdb", cfg.Device)
	assert.Equal(t, sgi.Geometry{Heads: 16, Sectors: 63, Cylinders: 1024}, cfg.SGIGeometry())
	assert.True(t, cfg.DebugEnabled())
	assert.True(t, cfg.InfoEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.LockTimeoutOrDefault())
	assert.Equal(t, "/unix.save", cfg.BootFile)

	assert.Equal(t, []sgi.LegacyPartition{
		{Start: 5040, Sectors: 100800, SystemID: sgi.XFS},
		{Start: 105840, Sectors: 20160, SystemID: sgi.LinuxSwap},
	}, cfg.Legacy())
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, sgi.Geometry{}, cfg.SGIGeometry())
	assert.False(t, cfg.DebugEnabled())
	assert.False(t, cfg.InfoEnabled())
	assert.Equal(t, config.DefaultLockTimeout, cfg.LockTimeoutOrDefault())
	assert.Empty(t, cfg.Legacy())

	// device is the only mandatory field
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device is required")
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name   string
		config string
	}{
		{
			name:   "unknown field",
			config: "device: /dev/sda\nsize: 10\n",
		},
		{
			name:   "unknown type",
			config: "legacyPartitions:\n  - start: 1\n    sectors: 1\n    type: ntfs\n",
		},
		{
			name:   "type mapping",
			config: "legacyPartitions:\n  - type: {id: 1}\n",
		},
		{
			name:   "bad duration",
			config: "lockTimeout: soon\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(test.config))
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Geometry.Heads = pointer.To[uint32](0)
	cfg.Geometry.Cylinders = pointer.To[uint32](70000)
	cfg.BootFile = "unix"
	cfg.LegacyPartitions = make([]config.LegacyPartition, 5)
	cfg.LockTimeout = pointer.To(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error

	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 6)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sgidisk.yaml")

	require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/sdb", cfg.Device)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBytes(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(fullConfig))
	require.NoError(t, err)

	data, err := cfg.Bytes()
	require.NoError(t, err)

	assert.Contains(t, string(data), "type: \"0x82\"")

	again, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
