package main

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <archive|dir>...",
		Short: "List the entries of archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.registry(cmd, args)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, src := range r.Sources() {
				names := make([]string, 0, src.Len())
				for name := range src.Entries {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					e := src.Entries[name]
					fmt.Fprintf(tw, "%s\t%d\t%08x\t%s\n", src.Path, e.UncompressedLength, e.CRC32, name)
				}
			}
			return tw.Flush()
		},
	}
}
