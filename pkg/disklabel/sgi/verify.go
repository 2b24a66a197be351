// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/siderolabs/gen/xerrors"

	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi/freelist"
)

// Diagnostic IDs.
const (
	DiagnosticMultipleEntireDisk = "entire-disk-multiple"
	DiagnosticNoPartitions       = "no-partitions"
	DiagnosticEntireDiskMissing  = "entire-disk-missing"
	DiagnosticEntireDiskIndex    = "entire-disk-index"
	DiagnosticEntireDiskStart    = "entire-disk-start"
	DiagnosticEntireDiskLength   = "entire-disk-length"
	DiagnosticCylinderStart      = "cylinder-start"
	DiagnosticCylinderEnd        = "cylinder-end"
	DiagnosticOverlap            = "overlap"
	DiagnosticGap                = "gap"
	DiagnosticBootMissing        = "boot-missing"
	DiagnosticSwapMissing        = "swap-missing"
	DiagnosticSwapType           = "swap-type"
	DiagnosticBootFile           = "boot-file"
)

// Diagnostic is a single verification finding.
type Diagnostic struct {
	// ID identifies the check which produced the finding.
	ID string

	Message string
}

func (d Diagnostic) String() string {
	return d.Message
}

// Report is the outcome of Verify.
type Report struct {
	// Gap is 0 for a packed disk, negative when partitions overlap and the number of
	// vacant sectors otherwise.
	Gap int64

	Diagnostics []Diagnostic

	FreeSpace *freelist.Result
}

// Overlap reports whether some partitions overlap.
func (r *Report) Overlap() bool {
	return r.Gap < 0
}

// Has reports whether a finding with the given ID was produced.
func (r *Report) Has(id string) bool {
	for _, d := range r.Diagnostics {
		if d.ID == id {
			return true
		}
	}

	return false
}

// Err returns all findings as ValidationWarningTag errors, or nil.
func (r *Report) Err() error {
	var result *multierror.Error

	for _, d := range r.Diagnostics {
		result = multierror.Append(result, xerrors.NewTaggedf[ValidationWarningTag]("[%s] %s", d.ID, d.Message))
	}

	return result.ErrorOrNil()
}

func (r *Report) add(id, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{ID: id, Message: fmt.Sprintf(format, args...)})
}

// Verify checks the label for consistency without changing it.
//
// With verbose set, every finding is also sent to the diagnostics sink. A session in
// no-label mode is not checked.
//
//nolint:gocyclo,cyclop
func (s *Session) Verify(verbose bool) *Report {
	lastBlock := s.geometry.LastBlock()
	res := freelist.Compute(s.table.Segments(), lastBlock)

	r := &Report{
		Gap:       res.Gap,
		FreeSpace: res,
	}

	if !s.labeled {
		return r
	}

	if verbose {
		defer func() {
			for _, d := range r.Diagnostics {
				s.printf("%s\n", d.Message)
			}
		}()
	}

	entire := 0

	for _, seg := range res.Sorted {
		if !seg.EntireDisk {
			continue
		}

		// only the second entry is reported, a third one goes unnoticed
		entire++
		if entire == 2 {
			r.add(DiagnosticMultipleEntireDisk, "More than one entire disk entry present.")
		}
	}

	if len(res.Sorted) == 0 {
		r.add(DiagnosticNoPartitions, "No partitions defined.")

		return r
	}

	first := res.Sorted[0]

	if first.EntireDisk {
		if first.Index != EntireDiskIndex {
			r.add(DiagnosticEntireDiskIndex, "IRIX likes when partition %d covers the entire disk.", EntireDiskIndex+1)
		}

		if first.Start != 0 {
			r.add(DiagnosticEntireDiskStart, "The entire disk partition should start at block 0, not at diskblock %d.", first.Start)
		}

		if first.Length != lastBlock {
			r.add(DiagnosticEntireDiskLength, "The entire disk partition is only %d diskblock large, but the disk is %d diskblocks long.",
				first.Length, lastBlock)
		}
	} else {
		r.add(DiagnosticEntireDiskMissing, "One partition (#%d) should cover the entire disk.", EntireDiskIndex+1)
	}

	if s.opts.Debug {
		s.checkCylinders(r, res)
	}

	for _, o := range res.Overlaps {
		r.add(DiagnosticOverlap, "Partitions %d and %d overlap by %d sectors.", o.Previous+1, o.Index+1, o.Sectors)
	}

	if first.EntireDisk && first.Start == 0 && entire == len(res.Sorted) {
		// nothing but the volume entry, which covers the disk by itself
		r.Gap = 0
	} else {
		for _, e := range res.Free.Extents() {
			r.add(DiagnosticGap, "Unused gap of %8d sectors - sectors %8d-%d", e.Len(), e.First, e.Last-1)
		}
	}

	if boot := s.BootPartition(); !s.table.Valid(boot) || !s.table.Used(boot) {
		r.add(DiagnosticBootMissing, "The boot partition does not exist.")
	}

	if swap := s.SwapPartition(); !s.table.Valid(swap) || !s.table.Used(swap) {
		r.add(DiagnosticSwapMissing, "The swap partition does not exist.")
	} else if !s.table.SystemID(swap).IsSwap() {
		r.add(DiagnosticSwapType, "The swap partition has no swap type.")
	}

	if s.BootFile() != DefaultBootFile {
		r.add(DiagnosticBootFile, "You have chosen an unusual boot file name.")
	}

	return r
}

func (s *Session) checkCylinders(r *Report, res *freelist.Result) {
	cylinder := s.geometry.CylinderSize()
	if cylinder == 0 {
		return
	}

	for _, seg := range res.Sorted[1:] {
		if seg.Start%cylinder != 0 {
			r.add(DiagnosticCylinderStart, "Partition %d does not start on cylinder boundary.", seg.Index+1)
		}

		if seg.Length%cylinder != 0 {
			r.add(DiagnosticCylinderEnd, "Partition %d does not end on cylinder boundary.", seg.Index+1)
		}
	}
}
