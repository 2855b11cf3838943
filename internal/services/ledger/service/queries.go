package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// Platform returns one platform by id.
func (s *Service) Platform(ctx context.Context, platformID string) (tipping.Platform, error) {
	if err := s.ready(); err != nil {
		return tipping.Platform{}, err
	}
	platform, err := s.store.GetPlatform(ctx, platformID)
	if err != nil {
		return tipping.Platform{}, storageError(err, apperrors.CodeNotFound, "platform")
	}
	return platform, nil
}

// Creator returns the profile registered at creator.
func (s *Service) Creator(ctx context.Context, creator account.Address) (tipping.CreatorProfile, error) {
	if err := s.ready(); err != nil {
		return tipping.CreatorProfile{}, err
	}
	profile, err := s.store.GetCreator(ctx, creator)
	if err != nil {
		return tipping.CreatorProfile{}, storageError(err, apperrors.CodeProfileNotFound, "creator profile")
	}
	return profile, nil
}

// Donation returns one donation by id.
func (s *Service) Donation(ctx context.Context, donationID string) (tipping.Donation, error) {
	if err := s.ready(); err != nil {
		return tipping.Donation{}, err
	}
	donation, err := s.store.GetDonation(ctx, donationID)
	if err != nil {
		return tipping.Donation{}, storageError(err, apperrors.CodeNotFound, "donation")
	}
	return donation, nil
}

// DonationsByCreator pages through donations to creator, newest first.
func (s *Service) DonationsByCreator(ctx context.Context, creator account.Address, pageSize int, pageToken string) (storage.DonationPage, error) {
	if err := s.ready(); err != nil {
		return storage.DonationPage{}, err
	}
	if !creator.Valid() {
		return storage.DonationPage{}, account.ErrInvalidAddress
	}
	page, err := s.store.ListDonationsByCreator(ctx, creator, clampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.DonationPage{}, storageError(err, apperrors.CodeNotFound, "list donations")
	}
	return page, nil
}

// Balance returns the wallet balance held at addr.
func (s *Service) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !addr.Valid() {
		return 0, account.ErrInvalidAddress
	}
	return s.store.Balance(ctx, addr)
}

// Deposit credits amount to the wallet at addr from outside the ledger and
// returns the new balance. Callers decide who may mint; the deposit itself is
// journaled against the wallet.
func (s *Service) Deposit(ctx context.Context, addr account.Address, amount uint64) (balance uint64, err error) {
	ctx, span := s.startSpan(ctx, "deposit", attribute.String("ledger.account", addr.String()))
	defer func() { endSpan(span, "deposit", err) }()
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !addr.Valid() {
		return 0, account.ErrInvalidAddress
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.Pay(ctx, addr, amount); err != nil {
			return storageError(err, apperrors.CodeNotFound, "wallet")
		}
		current, err := tx.Balance(ctx, addr)
		if err != nil {
			return err
		}
		evt := event.New(event.TypeWalletDeposited, addr.String(), event.EntityWallet, addr.String(), s.nowUTC(), event.WalletDepositedPayload{
			Account: addr.String(),
			Amount:  amount,
			Balance: current,
		})
		if _, err := tx.AppendEvents(ctx, []event.Event{evt}); err != nil {
			return err
		}
		balance = current
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
