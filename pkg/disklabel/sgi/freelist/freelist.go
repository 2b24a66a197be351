// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package freelist tracks vacant sector ranges between partition entries.
package freelist

import (
	"cmp"
	"errors"
	"slices"
)

// ErrFull is returned when an extent is appended to a list at capacity.
var ErrFull = errors.New("free list is full")

// Extent is a run of vacant sectors [First, Last).
type Extent struct {
	First int64
	Last  int64
}

// Len returns the number of sectors in the extent.
func (e Extent) Len() int64 {
	return e.Last - e.First
}

// List is an ordered collection of free extents with a fixed capacity.
//
// N partition entries can leave at most N+1 holes, so a list sized to the
// partition count plus one never overflows while scanning a table.
type List struct {
	extents []Extent
}

// New returns an empty list which holds up to capacity extents.
func New(capacity int) *List {
	return &List{
		extents: make([]Extent, 0, capacity),
	}
}

// Append adds an extent at the end of the list.
func (l *List) Append(e Extent) error {
	if len(l.extents) == cap(l.extents) {
		return ErrFull
	}

	l.extents = append(l.extents, e)

	return nil
}

// Clear drops all extents keeping the capacity.
func (l *List) Clear() {
	l.extents = l.extents[:0]
}

// Len returns the number of extents in the list.
func (l *List) Len() int {
	return len(l.extents)
}

// Cap returns the capacity of the list.
func (l *List) Cap() int {
	return cap(l.extents)
}

// Extents returns a copy of the extents in insertion order.
func (l *List) Extents() []Extent {
	return slices.Clone(l.extents)
}

// Total returns the number of vacant sectors in the list.
func (l *List) Total() int64 {
	var total int64

	for _, e := range l.extents {
		total += e.Len()
	}

	return total
}

// Contains returns the upper bound of the first extent holding block.
//
// The bound itself is accepted as well (first <= block <= last), so a block sitting
// right at the end of one extent matches that extent even though it is not vacant.
// Callers must reject the resulting empty range.
func (l *List) Contains(block int64) (int64, bool) {
	for _, e := range l.extents {
		if e.First <= block && block <= e.Last {
			return e.Last, true
		}
	}

	return 0, false
}

// Segment is a used partition entry as seen by the scan.
type Segment struct {
	Index      int
	Start      int64
	Length     int64
	EntireDisk bool
}

// End returns the first sector after the segment.
func (s Segment) End() int64 {
	return s.Start + s.Length
}

// Overlap describes two entries claiming the same sectors.
type Overlap struct {
	Previous int
	Index    int
	Sectors  int64
}

// Result is the outcome of a scan.
type Result struct {
	// Gap is 0 when the disk is packed, negative on overlaps and positive with the
	// number of vacant sectors otherwise.
	Gap int64

	// LastBlock is the end of the disk the scan used.
	LastBlock int64

	// Sorted holds the used entries in scan order.
	Sorted []Segment

	Overlaps []Overlap
	Free     *List
}

// Compare orders segments by start ascending, larger segments first on equal starts
// and entire-disk entries first on equal extents.
func Compare(a, b Segment) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}

	if c := cmp.Compare(b.Length, a.Length); c != 0 {
		return c
	}

	switch {
	case a.EntireDisk && !b.EntireDisk:
		return -1
	case b.EntireDisk && !a.EntireDisk:
		return 1
	default:
		return 0
	}
}

// Compute scans the segments and collects vacant and overlapping ranges.
//
// Entries without length are ignored. Entire-disk entries do not take part in the
// walk, but when one sorts first its length replaces lastBlock.
func Compute(segments []Segment, lastBlock int64) *Result {
	res := &Result{
		LastBlock: lastBlock,
		Free:      New(len(segments) + 1),
	}

	for _, s := range segments {
		if s.Length != 0 {
			res.Sorted = append(res.Sorted, s)
		}
	}

	slices.SortStableFunc(res.Sorted, Compare)

	if len(res.Sorted) == 0 {
		res.Gap = lastBlock

		if lastBlock > 0 {
			res.Free.Append(Extent{First: 0, Last: lastBlock}) //nolint:errcheck
		}

		return res
	}

	if res.Sorted[0].EntireDisk {
		res.LastBlock = res.Sorted[0].Length
	}

	var (
		free int64
		prev = res.Sorted[0].Index
	)

	for _, s := range res.Sorted {
		if s.EntireDisk {
			continue
		}

		if s.Start < free {
			overlap := free - s.Start

			res.Overlaps = append(res.Overlaps, Overlap{Previous: prev, Index: s.Index, Sectors: overlap})

			if res.Gap >= 0 {
				res.Gap = -overlap
			} else {
				res.Gap -= overlap
			}
		}

		if s.Start > free {
			res.add(Extent{First: free, Last: s.Start})
		}

		free = s.End()
		prev = s.Index
	}

	if free < res.LastBlock {
		res.add(Extent{First: free, Last: res.LastBlock})
	}

	return res
}

func (res *Result) add(e Extent) {
	if res.Gap >= 0 {
		res.Gap += e.Len()
	}

	// capacity is len(segments)+1, one hole per segment plus the tail
	res.Free.Append(e) //nolint:errcheck
}

// Packed reports whether the scan found neither holes nor overlaps.
func (res *Result) Packed() bool {
	return res.Gap == 0
}
