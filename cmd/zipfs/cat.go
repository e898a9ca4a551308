package main

import (
	"github.com/spf13/cobra"

	"github.com/meigma/zipfs/internal/file"
)

func newCatCmd(opts *options) *cobra.Command {
	var from []string
	cmd := &cobra.Command{
		Use:   "cat <name>...",
		Short: "Write verified entry content to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.registry(cmd, from)
			if err != nil {
				return err
			}

			buf := make([]byte, 64<<10)
			for _, name := range args {
				f, err := r.Open(name)
				if err != nil {
					return err
				}
				_, err = file.CopyWithContext(cmd.Context(), cmd.OutOrStdout(), f, buf)
				closeErr := f.Close()
				if err != nil {
					return err
				}
				if closeErr != nil {
					return closeErr
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&from, "from", nil, "archives or directories to search, in order")
	_ = cmd.MarkFlagRequired("from") //nolint:errcheck // flag is defined above
	return cmd
}
