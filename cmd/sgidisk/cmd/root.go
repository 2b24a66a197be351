// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the sgidisk commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/siderolabs/gen/xerrors"
	"github.com/siderolabs/go-pointer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/sgidisk/cmd/sgidisk/pkg/config"
	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
	"github.com/siderolabs/sgidisk/pkg/cli"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
	"github.com/siderolabs/sgidisk/pkg/logging"
)

// skipDevice marks commands which don't open the device.
const skipDevice = "sgidisk/no-device"

type rootOptions struct {
	configPath string

	device    string
	heads     uint32
	sectors   uint32
	cylinders uint32
	debug     bool
	logLevel  string
	quiet     bool

	cfg    *config.Config
	logger *zap.Logger
}

// Execute runs the root command and exits on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		cli.Error(os.Stderr, "%s", cli.FormatError(err))
		os.Exit(1)
	}
}

// NewRootCommand builds the sgidisk command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "sgidisk",
		Short:         "Inspect and edit SGI/IRIX volume header disk labels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logger != nil {
				opts.logger.Sync() //nolint:errcheck
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to the YAML configuration file")
	flags.StringVarP(&opts.device, "device", "d", "", "disk or image holding the label")
	flags.Uint32Var(&opts.heads, "heads", 0, "number of heads (tracks per cylinder)")
	flags.Uint32Var(&opts.sectors, "sectors", 0, "number of sectors per track")
	flags.Uint32Var(&opts.cylinders, "cylinders", 0, "number of cylinders")
	flags.BoolVar(&opts.debug, "debug", false, "enable the cylinder alignment checks")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "send label notes to the log instead of the terminal")

	rootCmd.AddCommand(
		newPrintCommand(opts),
		newVerifyCommand(opts),
		newTypesCommand(),
		newConfigCommand(opts),
		newCreateCommand(opts),
		newAddCommand(opts),
		newDeleteCommand(opts),
		newTypeCommand(opts),
		newBootFileCommand(opts),
		newBootCommand(opts),
		newSwapCommand(opts),
		newClearCommand(opts),
	)

	return rootCmd
}

//nolint:gocyclo
func (o *rootOptions) init(cmd *cobra.Command) error {
	var err error

	if o.configPath != "" {
		if o.cfg, err = config.Load(o.configPath); err != nil {
			return err
		}
	} else {
		o.cfg = config.Default()
	}

	flags := cmd.Flags()

	if flags.Changed("device") {
		o.cfg.Device = o.device
	}

	if flags.Changed("heads") {
		o.cfg.Geometry.Heads = pointer.To(o.heads)
	}

	if flags.Changed("sectors") {
		o.cfg.Geometry.Sectors = pointer.To(o.sectors)
	}

	if flags.Changed("cylinders") {
		o.cfg.Geometry.Cylinders = pointer.To(o.cylinders)
	}

	if flags.Changed("debug") {
		o.cfg.Debug = pointer.To(o.debug)
	}

	if flags.Changed("log-level") {
		o.cfg.LogLevel = o.logLevel
	}

	level, err := logging.ParseLevel(o.cfg.LogLevel)
	if err != nil {
		return err
	}

	o.logger = logging.ZapLogger(
		logging.NewLogDestination(cmd.ErrOrStderr(), level, logging.WithoutTimestamp(), logging.WithColoredLevels()),
	).With(logging.Component("sgidisk"))

	if _, ok := cmd.Annotations[skipDevice]; ok {
		return nil
	}

	return o.cfg.Validate()
}

func (o *rootOptions) sessionOptions(cmd *cobra.Command) []sgi.Option {
	printf := cli.Printer(cmd.ErrOrStderr())

	if o.quiet {
		printf = logging.Printf(o.logger, zapcore.InfoLevel)
	}

	return []sgi.Option{
		sgi.WithLogger(o.logger.With(logging.Component("sgi"))),
		sgi.WithPrintf(printf),
		sgi.WithDebug(o.cfg.DebugEnabled()),
	}
}

type accessMode int

const (
	readOnly accessMode = iota
	// writeLabel writes the label back after the session callback succeeds.
	writeLabel
	// writeRaw opens the device for writing, the callback writes on its own.
	writeRaw
)

// withSession opens the device, loads the label and runs f.
//
//nolint:gocyclo
func (o *rootOptions) withSession(cmd *cobra.Command, mode accessMode, f func(*sector.BlockDevice, *sgi.Session) error) error {
	return cli.WithContext(cmd.Context(), func(ctx context.Context) error {
		dev, err := sector.Open(ctx, o.cfg.Device,
			sector.WithReadOnly(mode == readOnly),
			sector.WithLockTimeout(o.cfg.LockTimeoutOrDefault()),
		)
		if err != nil {
			return err
		}

		defer dev.Close() //nolint:errcheck

		if size := dev.LogicalSectorSize(); size != sector.Size {
			return fmt.Errorf("device %q has %d-byte sectors, only %d-byte sectors are supported", dev.Path(), size, sector.Size)
		}

		s, err := sgi.Open(dev, o.cfg.SGIGeometry(), o.sessionOptions(cmd)...)

		switch {
		case err == nil:
		case xerrors.TagIs[sgi.InvalidLabelTag](err):
			o.logger.Debug("no SGI label found", zap.String("device", dev.Path()), zap.Error(err))
		case xerrors.TagIs[sgi.ChecksumMismatchTag](err):
			cli.Warning(cmd.ErrOrStderr(), "%s", err)
		default:
			return err
		}

		if err = f(dev, s); err != nil {
			return err
		}

		if mode != writeLabel {
			return nil
		}

		if report := s.Verify(false); report.Overlap() {
			cli.Warning(cmd.ErrOrStderr(), "partitions overlap on the disk")
		}

		if err = s.Write(dev); err != nil {
			return err
		}

		return dev.Sync()
	})
}

var errNoLabel = errors.New("no SGI disk label, use the create command to build one")

func requireLabel(s *sgi.Session) error {
	if !s.Labeled() {
		return errNoLabel
	}

	return nil
}

// parsePartition converts a 1-based partition number into an index.
func parsePartition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > sgi.NumPartitions {
		return 0, fmt.Errorf("invalid partition number %q, expecting 1-%d", arg, sgi.NumPartitions)
	}

	return n - 1, nil
}
