// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sector provides 512-byte sector access to disks and images.
package sector

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Size is the size of a sector.
const Size = 512

// ErrOutOfRange is returned for sectors beyond the end of the device.
var ErrOutOfRange = errors.New("sector out of range")

// Device reads and writes whole sectors.
type Device interface {
	ReadSector(lba int64) ([]byte, error)
	WriteSector(lba int64, data []byte) error
}

// ReadWriterAt is the random access interface File is built on.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// File adapts a random access file to Device.
type File struct {
	rw ReadWriterAt
}

// NewFile wraps rw.
func NewFile(rw ReadWriterAt) *File {
	return &File{rw: rw}
}

// ReadSector implements Device.
func (f *File) ReadSector(lba int64) ([]byte, error) {
	if lba < 0 {
		return nil, fmt.Errorf("error reading sector %d: %w", lba, ErrOutOfRange)
	}

	buf := make([]byte, Size)

	n, err := f.rw.ReadAt(buf, lba*Size)
	if err != nil && !(errors.Is(err, io.EOF) && n == Size) {
		return nil, fmt.Errorf("error reading sector %d: %w", lba, err)
	}

	return buf, nil
}

// WriteSector implements Device.
func (f *File) WriteSector(lba int64, data []byte) error {
	if lba < 0 {
		return fmt.Errorf("error writing sector %d: %w", lba, ErrOutOfRange)
	}

	if len(data) != Size {
		return fmt.Errorf("error writing sector %d: got %d bytes, expecting %d", lba, len(data), Size)
	}

	if _, err := f.rw.WriteAt(data, lba*Size); err != nil {
		return fmt.Errorf("error writing sector %d: %w", lba, err)
	}

	return nil
}

// Memory is an in-memory Device of a fixed number of sectors.
type Memory struct {
	mu   sync.Mutex
	data []byte

	failWrites map[int64]error
}

// NewMemory returns a zeroed device of n sectors.
func NewMemory(n int) *Memory {
	return &Memory{
		data: make([]byte, n*Size),
	}
}

// ReadSector implements Device.
func (m *Memory) ReadSector(lba int64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(lba); err != nil {
		return nil, err
	}

	buf := make([]byte, Size)
	copy(buf, m.data[lba*Size:])

	return buf, nil
}

// WriteSector implements Device.
func (m *Memory) WriteSector(lba int64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(lba); err != nil {
		return err
	}

	if len(data) != Size {
		return fmt.Errorf("error writing sector %d: got %d bytes, expecting %d", lba, len(data), Size)
	}

	if err, ok := m.failWrites[lba]; ok {
		return fmt.Errorf("error writing sector %d: %w", lba, err)
	}

	copy(m.data[lba*Size:], data)

	return nil
}

// FailWrites makes writes to sector lba fail with err until err is nil.
func (m *Memory) FailWrites(lba int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failWrites, lba)

		return
	}

	if m.failWrites == nil {
		m.failWrites = map[int64]error{}
	}

	m.failWrites[lba] = err
}

// Bytes returns a copy of the device contents.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]byte(nil), m.data...)
}

func (m *Memory) check(lba int64) error {
	if lba < 0 || (lba+1)*Size > int64(len(m.data)) {
		return fmt.Errorf("sector %d of %d: %w", lba, len(m.data)/Size, ErrOutOfRange)
	}

	return nil
}
