// Command zipfs inspects ZIP archives through a zipfs registry.
//
// Usage:
//
//	zipfs ls [--cache] <archive|dir>...
//	zipfs cat <name> --from <archive|dir>...
//	zipfs stat <name> --from <archive|dir>...
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "zipfs:", err)
		os.Exit(1)
	}
}
