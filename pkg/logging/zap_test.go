// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/siderolabs/sgidisk/pkg/logging"
)

func TestWriter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	w := logging.NewWriter(logger, zapcore.InfoLevel)

	n, err := w.Write([]byte("  hello \n"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	// below the level, the line is dropped
	n, err = logging.NewWriter(logger, zapcore.DebugLevel).Write([]byte("debug"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	entries := logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
}

func TestPrintf(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	printf := logging.Printf(zap.New(core), zapcore.WarnLevel)

	printf("The entire disk partition should start at block 0,\nnot at diskblock %d.\n\n", 64)

	entries := logs.TakeAll()
	require.Len(t, entries, 2)

	assert.Equal(t, "The entire disk partition should start at block 0,", entries[0].Message)
	assert.Equal(t, "not at diskblock 64.", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestZapLogger(t *testing.T) {
	t.Parallel()

	var info, debug bytes.Buffer

	logger := logging.ZapLogger(
		logging.NewLogDestination(&info, zapcore.InfoLevel, logging.WithoutTimestamp()),
		logging.NewLogDestination(&debug, zapcore.DebugLevel, logging.WithoutTimestamp(), logging.WithoutLogLevels()),
	).With(logging.Component("sgi"))

	logger.Debug("scanning")
	logger.Info("label written", zap.Int("partitions", 3))

	assert.Equal(t, "INFO label written {\"component\": \"sgi\", \"partitions\": 3}\n", info.String())
	assert.Equal(t,
		"scanning {\"component\": \"sgi\"}\n"+
			"label written {\"component\": \"sgi\", \"partitions\": 3}\n",
		debug.String())

	assert.Panics(t, func() { logging.ZapLogger() })
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := logging.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	_, err = logging.ParseLevel("chatty")
	require.Error(t, err)
}
