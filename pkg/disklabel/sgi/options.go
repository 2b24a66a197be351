// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sgi

import (
	"go.uber.org/zap"
)

// Options is the functional options struct.
type Options struct {
	Logger *zap.Logger
	Printf func(string, ...any)
	Debug  bool
}

// Option is the functional option func.
type Option func(*Options)

// WithLogger sets the logger for structured events.
func WithLogger(logger *zap.Logger) Option {
	return func(args *Options) {
		args.Logger = logger
	}
}

// WithPrintf sets the sink for human readable diagnostics.
func WithPrintf(printf func(string, ...any)) Option {
	return func(args *Options) {
		args.Printf = printf
	}
}

// WithDebug enables the cylinder alignment checks.
func WithDebug(o bool) Option {
	return func(args *Options) {
		args.Debug = o
	}
}

// NewDefaultOptions initializes a Options struct with default values.
func NewDefaultOptions(setters ...Option) *Options {
	opts := &Options{
		Logger: zap.NewNop(),
		Printf: func(string, ...any) {},
	}

	for _, setter := range setters {
		setter(opts)
	}

	return opts
}
