package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// Balance returns the wallet balance of addr; unknown wallets hold zero.
func (q queries) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var balance int64
	err := q.q.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE address = ?`, addr.String()).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get wallet balance: %w", err)
	}
	return fromAmount(balance), nil
}

// Collect debits amount from the wallet at from.
func (t *txStore) Collect(ctx context.Context, from account.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return storage.ErrInsufficientFunds
	}
	return t.setBalance(ctx, from, balance-amount)
}

// Pay credits amount to the wallet at to.
func (t *txStore) Pay(ctx context.Context, to account.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	next := balance + amount
	if next < balance {
		return apperrors.WithMetadata(apperrors.CodeArithmeticOverflow, "wallet balance overflow", map[string]string{"Field": "balance"})
	}
	return t.setBalance(ctx, to, next)
}

func (t *txStore) setBalance(ctx context.Context, addr account.Address, balance uint64) error {
	value, err := toAmount("balance", balance)
	if err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(
		ctx,
		`INSERT INTO wallets (address, balance, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at`,
		addr.String(),
		value,
		toMillis(t.store.now()),
	); err != nil {
		return fmt.Errorf("set wallet balance: %w", err)
	}
	return nil
}
