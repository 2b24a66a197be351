// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cli contains helpers shared by the command line tools.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

// WithContext wraps function call to provide a context cancellable with ^C.
//
// The device lock wait is the only blocking step of the tools, so ^C aborts it.
func WithContext(ctx context.Context, f func(context.Context) error) error {
	wrappedCtx, wrappedCtxCancel := context.WithCancel(ctx)
	defer wrappedCtxCancel()

	// listen for ^C and SIGTERM and abort context
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(sigCh)

	exited := make(chan struct{})
	defer close(exited)

	go func() {
		select {
		case <-sigCh:
			wrappedCtxCancel()

			fmt.Fprintln(os.Stderr, "Signal received, aborting...")
		case <-wrappedCtx.Done():
		case <-exited:
		}
	}()

	return f(wrappedCtx)
}

var (
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

// Warning prints a yellow warning line.
func Warning(w io.Writer, format string, args ...any) {
	warningColor.Fprintf(w, "WARNING: "+format+"\n", args...) //nolint:errcheck
}

// Error prints a red error line.
func Error(w io.Writer, format string, args ...any) {
	errorColor.Fprintf(w, "ERROR: "+format+"\n", args...) //nolint:errcheck
}

// Printer returns a printf-like sink writing yellow text to w.
func Printer(w io.Writer) func(string, ...any) {
	return func(format string, args ...any) {
		warningColor.Fprintf(w, format, args...) //nolint:errcheck
	}
}
