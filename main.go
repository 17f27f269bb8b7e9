// Package main is the entry point of rpdl.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpdl/rpdl/cmd"
	"github.com/rpdl/rpdl/config"
	"github.com/rpdl/rpdl/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
