// entryadmin creates SPIRE registration entries over a mutually authenticated
// channel, using the caller's own SPIFFE identity from the Workload API.
//
// Usage:
//
//	entryadmin create-entry --spiffe-id spiffe://example.org/workload --selector unix:uid:1001
//	entryadmin --help
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sufield/entryadmin/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
