// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"

	"github.com/siderolabs/sgidisk/pkg/cli"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", cli.FormatError(errors.New("boom")))

	single := multierror.Append(nil, errors.New("The swap partition does not exist."))
	assert.Equal(t, "1 error occurred:\n The swap partition does not exist.", cli.FormatError(single))

	double := multierror.Append(nil, errors.New("a"), errors.New("b"))
	assert.Equal(t, "2 errors occurred:\n a\n b", cli.FormatError(fmt.Errorf("wrapped: %w", double)))
}
