// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

// Error tags, check them with xerrors.TagIs.
type (
	// InvalidLabelTag marks a sector without the label magic.
	InvalidLabelTag struct{}

	// ChecksumMismatchTag marks a label which was recognized but doesn't checksum to zero.
	ChecksumMismatchTag struct{}

	// ValidationWarningTag marks a finding of the label verification.
	ValidationWarningTag struct{}

	// RejectedMutationTag marks a change refused because its preconditions are not met.
	RejectedMutationTag struct{}

	// ConfirmationRequiredTag marks a change which has to be confirmed by the caller.
	ConfirmationRequiredTag struct{}

	// IOErrorTag marks storage failures.
	IOErrorTag struct{}

	// InternalChecksumFailureTag marks an encoded label which doesn't checksum to zero.
	//
	// This is a bug in the encoder, never a user error.
	InternalChecksumFailureTag struct{}
)
