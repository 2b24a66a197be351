// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/siderolabs/sgidisk/pkg/blockdevice/sector"
	"github.com/siderolabs/sgidisk/pkg/cli"
	"github.com/siderolabs/sgidisk/pkg/disklabel/sgi"
)

func newPrintCommand(opts *rootOptions) *cobra.Command {
	var extra bool

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the partition table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, readOnly, func(dev *sector.BlockDevice, s *sgi.Session) error {
				if err := requireLabel(s); err != nil {
					return err
				}

				return renderLabel(cmd.OutOrStdout(), dev.Path(), s, extra)
			})
		},
	}

	cmd.Flags().BoolVar(&extra, "extra", false, "print the drive parameters as well")

	return cmd
}

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the label for consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, readOnly, func(_ *sector.BlockDevice, s *sgi.Session) error {
				if err := requireLabel(s); err != nil {
					return err
				}

				report := s.Verify(false)
				w := cmd.OutOrStdout()

				for _, d := range report.Diagnostics {
					fmt.Fprintln(w, d.Message)
				}

				switch {
				case report.Overlap():
					cli.Warning(cmd.ErrOrStderr(), "partitions overlap by %d sectors in total", -report.Gap)
				case report.Gap > 0:
					fmt.Fprintf(w, "%d unallocated sectors (%s)\n", report.Gap, humanize.IBytes(uint64(report.Gap)*sgi.SectorSize))
				default:
					fmt.Fprintln(w, "The disk is fully allocated.")
				}

				if strict {
					return report.Err()
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail if any finding is reported")

	return cmd
}

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "types",
		Short:       "List the known partition types",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipDevice: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines := []string{"ID | NAME"}

			for _, t := range sgi.SystemTypes() {
				lines = append(lines, fmt.Sprintf("%#x | %s", uint32(t.ID), t.Name))
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), columnize.SimpleFormat(lines))

			return err
		},
	}
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Print the effective configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipDevice: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := opts.cfg.Bytes()
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}
}

func renderLabel(w io.Writer, path string, s *sgi.Session, extra bool) error {
	label := s.Label()
	g := s.Geometry()

	if extra {
		dp := label.Device

		fmt.Fprintf(w, "Disk %s (SGI disk label): %d heads, %d sectors\n", path, g.Heads, g.Sectors)
		fmt.Fprintf(w, "%d cylinders, %d physical cylinders\n", g.Cylinders, dp.PhysicalCylinders)
		fmt.Fprintf(w, "%d extra sects/cyl, interleave %d:1\n", dp.SpareCylinders, dp.Interleave)
		fmt.Fprintf(w, "flags %#x, %d retries on error, %d bytes/sector\n", dp.Flags, dp.RetriesOnError, dp.BytesPerSector)
	} else {
		fmt.Fprintf(w, "Disk %s (SGI disk label): %s\n", path, g)
	}

	fmt.Fprintf(w, "Units = sectors of %d bytes, %s byte order\n\n", sgi.SectorSize, strings.ToLower(strings.TrimSuffix(s.ByteOrder().String(), "Endian")))

	table := s.Table()
	lines := []string{"PT | INFO | START | END | SECTORS | SIZE | ID | SYSTEM"}

	for i := range table.Len() {
		if !table.Used(i) {
			continue
		}

		var info []string

		if i == s.BootPartition() {
			info = append(info, "boot")
		}

		if i == s.SwapPartition() {
			info = append(info, "swap")
		}

		if len(info) == 0 {
			info = append(info, "-")
		}

		start, length := table.Start(i), table.Length(i)

		lines = append(lines, fmt.Sprintf("%d | %s | %d | %d | %d | %s | %#x | %s",
			i+1,
			strings.Join(info, ","),
			start,
			uint64(start)+uint64(length)-1,
			length,
			humanize.IBytes(uint64(length)*sgi.SectorSize),
			uint32(table.SystemID(i)),
			table.SystemID(i),
		))
	}

	fmt.Fprintln(w, columnize.SimpleFormat(lines))
	fmt.Fprintf(w, "\nBootfile: %s\n", s.BootFile())

	if volumes := s.Volumes(); len(volumes) > 0 {
		lines = []string{"NO | NAME | SECTOR | SIZE"}

		for _, v := range volumes {
			lines = append(lines, fmt.Sprintf("%d | %s | %d | %s", v.Index, v.FileName(), v.Start, humanize.IBytes(uint64(v.Size))))
		}

		fmt.Fprintf(w, "\nVolume directory:\n%s\n", columnize.SimpleFormat(lines))
	}

	if extra {
		fmt.Fprintf(w, "\nChecksum: %#08x", label.Checksum)

		if !s.ChecksumValid() {
			fmt.Fprint(w, " (mismatch)")
		}

		fmt.Fprintln(w)
	}

	return nil
}
