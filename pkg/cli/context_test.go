// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/sgidisk/pkg/cli"
)

func TestWithContext(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	err := cli.WithContext(t.Context(), func(ctx context.Context) error {
		require.NoError(t, ctx.Err())

		return boom
	})
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = cli.WithContext(ctx, func(ctx context.Context) error {
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWarning(t *testing.T) { //nolint:paralleltest
	color.NoColor = true

	var buf bytes.Buffer

	cli.Warning(&buf, "partition %d overlaps", 3)
	cli.Error(&buf, "failed")
	cli.Printer(&buf)("Note: %s.\n", "partitions overlap on the disk")

	assert.Equal(t, "WARNING: partition 3 overlaps\nERROR: failed\nNote: partitions overlap on the disk.\n", buf.String())
}
