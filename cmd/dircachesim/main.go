// Command dircachesim replays a namespace trace through a path-lookup LRU
// cache and prints "lookups hits writes".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IvanBrykalov/dircache/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dircachesim:", err)
		stop()
		os.Exit(1)
	}
}
