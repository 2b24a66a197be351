// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gertd/go-pluralize"
	"github.com/hashicorp/go-multierror"
)

// FormatError renders aggregated errors one per line with a counted header.
func FormatError(err error) string {
	var merr *multierror.Error

	if !errors.As(err, &merr) || len(merr.Errors) == 0 {
		return err.Error()
	}

	lines := make([]string, 0, len(merr.Errors))

	for _, e := range merr.Errors {
		lines = append(lines, fmt.Sprintf(" %s", e.Error()))
	}

	count := pluralize.NewClient().Pluralize("error", len(lines), true)

	return fmt.Sprintf("%s occurred:\n%s", count, strings.Join(lines, "\n"))
}
