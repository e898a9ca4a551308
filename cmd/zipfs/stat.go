package main

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/meigma/zipfs"
)

func newStatCmd(opts *options) *cobra.Command {
	var from []string
	cmd := &cobra.Command{
		Use:   "stat <name>",
		Short: "Show where an entry's payload lives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.registry(cmd, from)
			if err != nil {
				return err
			}

			name := args[0]
			src, e, ok := r.Resolve(name)
			if !ok {
				return &fs.PathError{Op: "stat", Path: name, Err: zipfs.ErrEntryNotFound}
			}
			w, err := r.Window(name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:         %s\n", name)
			fmt.Fprintf(out, "archive:      %s\n", src.Path)
			fmt.Fprintf(out, "header:       %d\n", e.LocalHeaderOffset)
			fmt.Fprintf(out, "offset:       %d\n", w.Offset)
			fmt.Fprintf(out, "method:       %s\n", w.Method)
			fmt.Fprintf(out, "compressed:   %d\n", w.CompressedLength)
			fmt.Fprintf(out, "uncompressed: %d\n", w.UncompressedLength)
			fmt.Fprintf(out, "crc32:        %08x\n", w.CRC32)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&from, "from", nil, "archives or directories to search, in order")
	_ = cmd.MarkFlagRequired("from") //nolint:errcheck // flag is defined above
	return cmd
}
