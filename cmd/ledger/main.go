// Package main runs the ledger command-line client.
package main

import (
	"os"

	ledgercmd "github.com/louisbranch/estateledger/internal/cmd/ledger"
)

func main() {
	os.Exit(ledgercmd.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
