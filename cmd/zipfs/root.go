package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meigma/zipfs"
	"github.com/meigma/zipfs/cache/disk"
	"github.com/meigma/zipfs/fsys"
)

// options holds the flags shared by every subcommand.
type options struct {
	cache        bool
	mmap         bool
	verbose      bool
	contentCache string
	extensions   []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "zipfs",
		Short: "Read files straight out of ZIP archives",
		Long: `zipfs indexes the central directory of each archive and serves entries
by name without extracting anything. Archives are searched in the order
they are given; directories contribute their archives in lexical order.`,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.cache, "cache", false, "read and write sidecar indexes next to archives")
	pf.BoolVar(&opts.mmap, "mmap", false, "read archives through memory mappings")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.contentCache, "content-cache", "", "directory for a disk cache of decoded content")
	pf.StringSliceVar(&opts.extensions, "ext", []string{".zip"}, "archive extensions recognized in directories")

	cmd.AddCommand(newLsCmd(opts), newCatCmd(opts), newStatCmd(opts))
	return cmd
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// registry builds a registry from the flags and loads every source in
// order.
func (o *options) registry(cmd *cobra.Command, sources []string) (*zipfs.Registry, error) {
	ropts := []zipfs.Option{
		zipfs.WithLogger(o.logger(cmd.ErrOrStderr())),
		zipfs.WithDirectoryCache(o.cache),
		zipfs.WithArchiveExtensions(o.extensions...),
	}
	if o.mmap {
		ropts = append(ropts, zipfs.WithMmap())
	}
	if o.contentCache != "" {
		c, err := disk.New(o.contentCache)
		if err != nil {
			return nil, fmt.Errorf("content cache: %w", err)
		}
		ropts = append(ropts, zipfs.WithContentCache(c))
	}

	r := zipfs.New(ropts...)
	host := fsys.NewBilly(nil)
	for _, src := range sources {
		info, err := host.Stat(src)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			err = r.LoadDirectory(src)
		} else {
			_, err = r.LoadArchive(src, o.cache)
		}
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}
