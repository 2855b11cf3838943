// Package main starts the ledger daemon: query API plus notification
// dispatcher.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	ledgerdcmd "github.com/louisbranch/estateledger/internal/cmd/ledgerd"
	"github.com/louisbranch/estateledger/internal/platform/config"
)

func main() {
	cfg, err := ledgerdcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf(config.ExitConfig, "ledgerd", "parse flags: %v", err)
	}
	log.SetPrefix("[LEDGERD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgerdcmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf(config.ExitFailure, "ledgerd", "failed to serve: %v", err)
	}
}
