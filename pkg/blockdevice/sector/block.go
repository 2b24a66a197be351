// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sector

import (
	"context"
	"fmt"
	"time"

	"github.com/siderolabs/go-blockdevice/v2/block"
)

// Options configures Open.
type Options struct {
	ReadOnly    bool
	LockTimeout time.Duration
}

// Option sets an Open option.
type Option func(*Options)

// WithReadOnly opens the device without write access and takes a shared lock.
func WithReadOnly(readOnly bool) Option {
	return func(o *Options) {
		o.ReadOnly = readOnly
	}
}

// WithLockTimeout sets how long Open waits for the device lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.LockTimeout = timeout
	}
}

// NewDefaultOptions initializes Options with defaults.
func NewDefaultOptions(setters ...Option) *Options {
	opts := &Options{
		LockTimeout: 10 * time.Second,
	}

	for _, setter := range setters {
		setter(opts)
	}

	return opts
}

// BlockDevice is a locked disk or image file.
type BlockDevice struct {
	*File

	dev        *block.Device
	path       string
	sectorSize uint64
}

// Open opens and locks the disk or image at path.
//
// Writers take an exclusive lock, readers a shared one.
func Open(ctx context.Context, path string, setters ...Option) (*BlockDevice, error) {
	opts := NewDefaultOptions(setters...)

	var blockOpts []block.Option

	if !opts.ReadOnly {
		blockOpts = append(blockOpts, block.OpenForWrite())
	}

	dev, err := block.NewFromPath(path, blockOpts...)
	if err != nil {
		return nil, fmt.Errorf("error opening block device %q: %w", path, err)
	}

	if err = dev.RetryLockWithTimeout(ctx, !opts.ReadOnly, opts.LockTimeout); err != nil {
		dev.Close() //nolint:errcheck

		return nil, fmt.Errorf("error locking block device %q: %w", path, err)
	}

	sectorSize, err := LogicalSectorSize(dev.File())
	if err != nil {
		dev.Unlock() //nolint:errcheck
		dev.Close()  //nolint:errcheck

		return nil, fmt.Errorf("error getting sector size of %q: %w", path, err)
	}

	return &BlockDevice{
		File:       NewFile(dev.File()),
		dev:        dev,
		path:       path,
		sectorSize: sectorSize,
	}, nil
}

// Path returns the path the device was opened with.
func (d *BlockDevice) Path() string {
	return d.path
}

// LogicalSectorSize returns the sector size the kernel reports for the device.
//
// The label is always addressed in 512-byte sectors.
func (d *BlockDevice) LogicalSectorSize() uint64 {
	return d.sectorSize
}

// Sync flushes writes to the device.
func (d *BlockDevice) Sync() error {
	return d.dev.File().Sync()
}

// Close unlocks and closes the device.
func (d *BlockDevice) Close() error {
	if err := d.dev.Unlock(); err != nil {
		d.dev.Close() //nolint:errcheck

		return fmt.Errorf("error unlocking block device %q: %w", d.path, err)
	}

	return d.dev.Close()
}
