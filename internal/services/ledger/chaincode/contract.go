// Package chaincode exposes the ledger as a Hyperledger Fabric contract.
//
// Each invocation builds a service over the transaction's world state. The
// caller address is derived from the submitting client identity, the clock is
// the transaction timestamp, and record ids are derived from the transaction
// id, so every endorsing peer computes the same write set.
package chaincode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/platform/id"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/service"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/worldstate"
)

// IssuerAttribute is the certificate attribute that lets an identity mint
// deposits regardless of its MSP.
const IssuerAttribute = "ledger.issuer"

// LedgerContract is the Fabric contract for the listing registry and the
// tipping ledger.
type LedgerContract struct {
	contractapi.Contract

	keyring    *integrity.Keyring
	issuerMSPs map[string]struct{}
}

// Option configures a LedgerContract.
type Option func(*LedgerContract)

// WithIssuerMSPs lets every identity of the named MSPs deposit.
func WithIssuerMSPs(mspIDs ...string) Option {
	return func(c *LedgerContract) {
		for _, mspID := range mspIDs {
			if mspID = strings.TrimSpace(mspID); mspID != "" {
				c.issuerMSPs[mspID] = struct{}{}
			}
		}
	}
}

// NewLedgerContract returns the contract. A nil keyring leaves journal
// events unsigned. Without issuer MSPs only identities carrying
// IssuerAttribute=true may deposit.
func NewLedgerContract(keyring *integrity.Keyring, opts ...Option) *LedgerContract {
	c := &LedgerContract{keyring: keyring, issuerMSPs: make(map[string]struct{})}
	for _, opt := range opts {
		opt(c)
	}
	c.Name = "ledger"
	c.Info.Title = "EstateLedger"
	c.Info.Version = "1.0.0"
	return c
}

// invocation bundles the per-transaction service and caller.
type invocation struct {
	svc    *service.Service
	caller account.Address
}

func (c *LedgerContract) begin(ctx contractapi.TransactionContextInterface) (invocation, error) {
	stub := ctx.GetStub()
	if stub == nil {
		return invocation{}, fmt.Errorf("transaction stub is not available")
	}
	ts, err := stub.GetTxTimestamp()
	if err != nil {
		return invocation{}, fmt.Errorf("get tx timestamp: %w", err)
	}
	now := ts.AsTime().UTC()
	clock := func() time.Time { return now }

	txID := stub.GetTxID()
	var n int
	newID := func() (string, error) {
		n++
		return id.Derive(txID, strconv.Itoa(n)), nil
	}

	caller, err := callerAddress(ctx)
	if err != nil {
		return invocation{}, err
	}
	store := worldstate.New(stub, worldstate.WithKeyring(c.keyring), worldstate.WithClock(clock))
	return invocation{
		svc:    service.New(store, service.WithClock(clock), service.WithIDGenerator(newID)),
		caller: caller,
	}, nil
}

// callerAddress maps the submitting client identity to its ledger address.
func callerAddress(ctx contractapi.TransactionContextInterface) (account.Address, error) {
	identity := ctx.GetClientIdentity()
	if identity == nil {
		return "", apperrors.New(apperrors.CodeUnauthorized, "client identity is not available")
	}
	mspID, err := identity.GetMSPID()
	if err != nil {
		return "", fmt.Errorf("get client msp id: %w", err)
	}
	clientID, err := identity.GetID()
	if err != nil {
		return "", fmt.Errorf("get client id: %w", err)
	}
	return account.Derive([]byte(mspID + "/" + clientID)), nil
}

// authorizeIssuer admits identities of an issuer MSP or carrying
// IssuerAttribute=true.
func (c *LedgerContract) authorizeIssuer(ctx contractapi.TransactionContextInterface) error {
	identity := ctx.GetClientIdentity()
	if identity == nil {
		return apperrors.New(apperrors.CodeUnauthorized, "client identity is not available")
	}
	mspID, err := identity.GetMSPID()
	if err != nil {
		return fmt.Errorf("get client msp id: %w", err)
	}
	if _, ok := c.issuerMSPs[mspID]; ok {
		return nil
	}
	if err := identity.AssertAttributeValue(IssuerAttribute, "true"); err == nil {
		return nil
	}
	return apperrors.New(apperrors.CodeUnauthorized, "caller may not issue deposits")
}

// parseAddress parses an address argument.
func parseAddress(raw string) (account.Address, error) {
	addr, err := account.ParseAddress(raw)
	if err != nil {
		return "", clientError(err)
	}
	return addr, nil
}

// clientError prefixes coded errors with their code so Fabric clients can
// branch on it.
func clientError(err error) error {
	if err == nil {
		return nil
	}
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		return err
	}
	return fmt.Errorf("%s: %w", code, err)
}

func background() context.Context {
	return context.Background()
}

// WhoAmI returns the caller's ledger address.
func (c *LedgerContract) WhoAmI(ctx contractapi.TransactionContextInterface) (string, error) {
	caller, err := callerAddress(ctx)
	if err != nil {
		return "", clientError(err)
	}
	return caller.String(), nil
}

// Deposit credits the caller's wallet. Only issuers may deposit.
func (c *LedgerContract) Deposit(ctx contractapi.TransactionContextInterface, amount uint64) (uint64, error) {
	if err := c.authorizeIssuer(ctx); err != nil {
		return 0, clientError(err)
	}
	inv, err := c.begin(ctx)
	if err != nil {
		return 0, clientError(err)
	}
	balance, err := inv.svc.Deposit(background(), inv.caller, amount)
	return balance, clientError(err)
}

// GetBalance returns the wallet balance of address.
func (c *LedgerContract) GetBalance(ctx contractapi.TransactionContextInterface, address string) (uint64, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return 0, clientError(err)
	}
	addr, err := parseAddress(address)
	if err != nil {
		return 0, err
	}
	balance, err := inv.svc.Balance(background(), addr)
	return balance, clientError(err)
}
