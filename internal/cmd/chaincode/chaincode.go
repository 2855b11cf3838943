// Package chaincode parses chaincode process configuration and starts the
// Fabric contract, either peer-launched or as an external service.
package chaincode

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	entrypoint "github.com/louisbranch/estateledger/internal/platform/cmd"
	ledgerchaincode "github.com/louisbranch/estateledger/internal/services/ledger/chaincode"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
)

// Config holds chaincode process configuration.
type Config struct {
	// ServerAddress runs the chaincode as an external service when set.
	ServerAddress string `env:"CHAINCODE_SERVER_ADDRESS"`
	CCID          string `env:"CHAINCODE_ID"`
	// SignJournal requires a journal signing keyring from the environment.
	SignJournal bool `env:"LEDGER_CHAINCODE_SIGN_JOURNAL" envDefault:"false"`
	// IssuerMSPs may deposit. Identities with the ledger.issuer=true
	// attribute may deposit from any MSP.
	IssuerMSPs []string `env:"LEDGER_CHAINCODE_ISSUER_MSPS" envSeparator:","`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.ServerAddress, "server-address", cfg.ServerAddress, "Listen address for chaincode-as-a-service")
	fs.StringVar(&cfg.CCID, "ccid", cfg.CCID, "Chaincode package id for chaincode-as-a-service")
	fs.BoolVar(&cfg.SignJournal, "sign-journal", cfg.SignJournal, "Sign journal events with the LEDGER_EVENT_HMAC_KEY keyring")
	issuers := fs.String("issuer-msps", strings.Join(cfg.IssuerMSPs, ","), "Comma-separated MSP ids allowed to deposit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.IssuerMSPs = splitList(*issuers)
	if strings.TrimSpace(cfg.ServerAddress) != "" && strings.TrimSpace(cfg.CCID) == "" {
		return Config{}, fmt.Errorf("chaincode id is required with a server address")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewChaincode builds the contract chaincode for cfg.
func NewChaincode(cfg Config) (*contractapi.ContractChaincode, error) {
	var keyring *integrity.Keyring
	if cfg.SignJournal {
		var err error
		if keyring, err = integrity.KeyringFromEnv(); err != nil {
			return nil, fmt.Errorf("load event keyring: %w", err)
		}
	}
	contract := ledgerchaincode.NewLedgerContract(keyring, ledgerchaincode.WithIssuerMSPs(cfg.IssuerMSPs...))
	cc, err := contractapi.NewChaincode(contract)
	if err != nil {
		return nil, fmt.Errorf("create chaincode: %w", err)
	}
	cc.Info.Title = contract.Info.Title
	cc.Info.Version = contract.Info.Version
	return cc, nil
}

// Run starts the chaincode and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	cc, err := NewChaincode(cfg)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceChaincode, func(context.Context) error {
		if strings.TrimSpace(cfg.ServerAddress) == "" {
			return cc.Start()
		}
		server := &shim.ChaincodeServer{
			CCID:     cfg.CCID,
			Address:  cfg.ServerAddress,
			CC:       cc,
			TLSProps: shim.TLSProperties{Disabled: true},
		}
		log.Printf("chaincode service listening at %s", cfg.ServerAddress)
		return server.Start()
	})
}
