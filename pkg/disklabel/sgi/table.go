// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"math/bits"

	"github.com/siderolabs/gen/optional"

	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi/freelist"
)

// Table gives indexed access to the partition entries of a label.
//
// Accessors panic on indices outside [0, Len()), like slice indexing does.
type Table struct {
	entries *[NumPartitions]PartitionEntry
	n       int
	dirty   uint32
}

func newTable(label *Label, n int) *Table {
	return &Table{
		entries: &label.Partitions,
		n:       n,
	}
}

// Len returns the number of entries: 16 with a label, 4 without.
func (t *Table) Len() int {
	return t.n
}

// Valid reports whether i is an index of the table.
func (t *Table) Valid(i int) bool {
	return i >= 0 && i < t.n
}

func (t *Table) entry(i int) *PartitionEntry {
	if !t.Valid(i) {
		panic("sgi: partition index out of range")
	}

	return &t.entries[i]
}

// Start returns the first sector of entry i.
func (t *Table) Start(i int) uint32 {
	return t.entry(i).StartSector
}

// Length returns the number of sectors of entry i.
func (t *Table) Length(i int) uint32 {
	return t.entry(i).NumSectors
}

// SystemID returns the type of entry i.
func (t *Table) SystemID(i int) SystemID {
	return SystemID(t.entry(i).ID)
}

// Used reports whether entry i has a nonzero length.
func (t *Table) Used(i int) bool {
	return t.Length(i) != 0
}

// Set replaces entry i and marks it dirty.
func (t *Table) Set(i int, start, length uint32, id SystemID) {
	e := t.entry(i)

	e.StartSector = start
	e.NumSectors = length
	e.ID = uint32(id)

	t.markDirty(i)
}

// SetSystemID changes the type of entry i and marks it dirty.
func (t *Table) SetSystemID(i int, id SystemID) {
	t.entry(i).ID = uint32(id)

	t.markDirty(i)
}

func (t *Table) markDirty(i int) {
	t.dirty |= 1 << uint(i)
}

// Dirty reports whether entry i changed since the table was loaded or written.
func (t *Table) Dirty(i int) bool {
	return t.Valid(i) && t.dirty&(1<<uint(i)) != 0
}

// DirtyCount returns the number of changed entries.
func (t *Table) DirtyCount() int {
	return bits.OnesCount32(t.dirty)
}

// DirtyIndices returns the changed entries in ascending order.
func (t *Table) DirtyIndices() []int {
	var indices []int

	for i := range t.n {
		if t.Dirty(i) {
			indices = append(indices, i)
		}
	}

	return indices
}

// tableState is a copy of the entries and the dirty bitmap.
type tableState struct {
	entries [NumPartitions]PartitionEntry
	dirty   uint32
}

func (t *Table) save() tableState {
	return tableState{
		entries: *t.entries,
		dirty:   t.dirty,
	}
}

func (t *Table) restore(state tableState) {
	*t.entries = state.entries
	t.dirty = state.dirty
}

// ClearDirty forgets all changes.
func (t *Table) ClearDirty() {
	t.dirty = 0
}

// CountUsed returns the number of entries with a nonzero length.
func (t *Table) CountUsed() int {
	n := 0

	for i := range t.n {
		if t.Used(i) {
			n++
		}
	}

	return n
}

// FindEntireDisk returns the first entry tagged as the entire disk.
func (t *Table) FindEntireDisk() optional.Optional[int] {
	for i := range t.n {
		if t.SystemID(i) == EntireDisk {
			return optional.Some(i)
		}
	}

	return optional.None[int]()
}

// Segments returns all entries in the form consumed by the free space scan.
func (t *Table) Segments() []freelist.Segment {
	segments := make([]freelist.Segment, 0, t.n)

	for i := range t.n {
		segments = append(segments, freelist.Segment{
			Index:      i,
			Start:      int64(t.Start(i)),
			Length:     int64(t.Length(i)),
			EntireDisk: t.SystemID(i) == EntireDisk,
		})
	}

	return segments
}
