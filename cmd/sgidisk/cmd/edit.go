// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"errors"
	"fmt"

	"github.com/siderolabs/gen/xerrors"
	"github.com/spf13/cobra"

	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
)

func newCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		info  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a new label",
		Long: `Build a new label with the entire disk entry in partition 11 and a five cylinder
volume header in partition 9. Legacy partitions from the configuration file are kept
in the first slots.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				if s.Labeled() && !force {
					return errors.New("the device already has an SGI label, use --force to replace it")
				}

				if err := s.Create(opts.cfg.Legacy()...); err != nil {
					return err
				}

				if opts.cfg.BootFile != "" {
					if _, err := s.SetBootFile(opts.cfg.BootFile); err != nil {
						return err
					}
				}

				if info || opts.cfg.InfoEnabled() {
					return s.CreateInfo()
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&info, "info", false, "write the info block to sector 2")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing label")

	return cmd
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var (
		typeName   string
		first, end uint32
	)

	cmd := &cobra.Command{
		Use:   "add N",
		Short: "Add partition N",
		Long: `Add partition N covering sectors [first, end).

The first sector defaults to the start of the first free extent and the end defaults
to the end of the free extent holding the first sector.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePartition(args[0])
			if err != nil {
				return err
			}

			id, err := sgi.ParseSystemID(typeName)
			if err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				if err := requireLabel(s); err != nil {
					return err
				}

				free := s.FreeSpace().Free
				start, stop := first, end

				if !cmd.Flags().Changed("first") {
					if extents := free.Extents(); len(extents) > 0 {
						start = uint32(extents[0].First)
					}
				}

				if !cmd.Flags().Changed("end") {
					if bound, ok := free.Contains(int64(start)); ok {
						stop = uint32(bound)
					}
				}

				return s.AddPartition(i, id, start, stop)
			})
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "Linux native", "partition type, a number or a name")
	cmd.Flags().Uint32Var(&first, "first", 0, "first sector")
	cmd.Flags().Uint32Var(&end, "end", 0, "sector after the last one")

	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete N",
		Short: "Delete partition N",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePartition(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				return s.DeletePartition(i)
			})
		},
	}
}

func newTypeCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "type N TYPE",
		Short: "Change the type of partition N",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePartition(args[0])
			if err != nil {
				return err
			}

			id, err := sgi.ParseSystemID(args[1])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				err := s.ChangeSystemID(i, id, yes)
				if xerrors.TagIs[sgi.ConfirmationRequiredTag](err) {
					return fmt.Errorf("%w, pass --yes to change it anyway", err)
				}

				return err
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm changing the type of a partition starting at sector 0")

	return cmd
}

func newBootFileCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootfile PATH",
		Short: "Set the boot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sgi.CheckBootFile(args[0]); err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				status, err := s.SetBootFile(args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Boot file %s.\n", status)

				return nil
			})
		},
	}
}

func newBootCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "boot N",
		Short: "Make partition N the boot partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePartition(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				return s.SetBootPartition(i)
			})
		},
	}
}

func newSwapCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "swap N",
		Short: "Make partition N the swap partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parsePartition(args[0])
			if err != nil {
				return err
			}

			return opts.withSession(cmd, writeLabel, func(_ *sector.BlockDevice, s *sgi.Session) error {
				return s.SetSwapPartition(i)
			})
		},
	}
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe the label sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clearing the label destroys the partition table, pass --yes to confirm")
			}

			return opts.withSession(cmd, writeRaw, func(dev *sector.BlockDevice, s *sgi.Session) error {
				if err := requireLabel(s); err != nil {
					return err
				}

				if err := dev.WriteSector(0, make([]byte, sector.Size)); err != nil {
					return err
				}

				s.Clear()

				fmt.Fprintf(cmd.OutOrStdout(), "Label of %s cleared, %d partitions remain visible without it.\n", dev.Path(), s.Table().Len())

				return dev.Sync()
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm wiping the label")

	return cmd
}
