// Package main starts the ledger Fabric chaincode.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	chaincodecmd "github.com/louisbranch/estateledger/internal/cmd/chaincode"
	"github.com/louisbranch/estateledger/internal/platform/config"
)

func main() {
	cfg, err := chaincodecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf(config.ExitConfig, "chaincode", "parse flags: %v", err)
	}
	log.SetPrefix("[LEDGER-CHAINCODE] ")

	if err := chaincodecmd.Run(context.Background(), cfg); err != nil {
		config.Exitf(config.ExitFailure, "chaincode", "chaincode stopped: %v", err)
	}
}
