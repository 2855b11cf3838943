// Package storage defines persistence contracts for ledger state.
//
// A Store runs each operation inside InTx. Everything written through the
// Tx handle (records, wallet movements, journal events) commits together or
// not at all.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInsufficientFunds indicates a wallet cannot cover a collection.
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
	// ErrInvalidPageToken indicates a page token the store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// PropertyPage stores one page of properties.
type PropertyPage struct {
	Properties    []listing.Property
	NextPageToken string
}

// DonationPage stores one page of donations, newest first.
type DonationPage struct {
	Donations     []tipping.Donation
	NextPageToken string
}

// Reader exposes read-only queries.
type Reader interface {
	GetProperty(ctx context.Context, id string) (listing.Property, error)
	ListPropertiesByOwner(ctx context.Context, owner account.Address, pageSize int, pageToken string) (PropertyPage, error)
	GetPlatform(ctx context.Context, id string) (tipping.Platform, error)
	GetCreator(ctx context.Context, creator account.Address) (tipping.CreatorProfile, error)
	GetDonation(ctx context.Context, id string) (tipping.Donation, error)
	ListDonationsByCreator(ctx context.Context, creator account.Address, pageSize int, pageToken string) (DonationPage, error)
	Balance(ctx context.Context, addr account.Address) (uint64, error)
}

// Tx is the write handle for one atomic operation.
type Tx interface {
	Reader

	CreateProperty(ctx context.Context, p listing.Property) error
	UpdateProperty(ctx context.Context, p listing.Property) error
	CreatePlatform(ctx context.Context, p tipping.Platform) error
	UpdatePlatform(ctx context.Context, p tipping.Platform) error
	CreateCreator(ctx context.Context, profile tipping.CreatorProfile) error
	UpdateCreator(ctx context.Context, profile tipping.CreatorProfile) error
	CreateDonation(ctx context.Context, d tipping.Donation) error

	// Collect debits a wallet, failing with ErrInsufficientFunds when short.
	Collect(ctx context.Context, from account.Address, amount uint64) error
	// Pay credits a wallet.
	Pay(ctx context.Context, to account.Address, amount uint64) error

	// AppendEvents sequences, hashes, signs, and stores events in order.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// Store is a transactional ledger store.
type Store interface {
	Reader
	// InTx runs fn in one transaction, committing only when fn returns nil.
	InTx(ctx context.Context, fn func(Tx) error) error
}
