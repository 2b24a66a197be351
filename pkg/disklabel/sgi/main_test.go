// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testGeometry is a small disk: 64 sectors per cylinder, 1280 sectors in total.
var testGeometry = sgi.Geometry{Heads: 4, Sectors: 16, Cylinders: 20}

type output struct {
	mu    sync.Mutex
	lines []string
}

func (o *output) Printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return strings.Join(o.lines, "")
}

func newSession(t *testing.T, setters ...sgi.Option) (*sgi.Session, *output) {
	t.Helper()

	out := &output{}

	setters = append([]sgi.Option{
		sgi.WithLogger(zaptest.NewLogger(t)),
		sgi.WithPrintf(out.Printf),
	}, setters...)

	return sgi.New(testGeometry, setters...), out
}

func newLabeledSession(t *testing.T, setters ...sgi.Option) (*sgi.Session, *output) {
	t.Helper()

	s, out := newSession(t, setters...)

	if err := s.Create(); err != nil {
		t.Fatalf("failed to create label: %s", err)
	}

	return s, out
}
