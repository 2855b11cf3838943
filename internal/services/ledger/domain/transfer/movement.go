// Package transfer describes value movements produced by ledger transitions.
//
// A transition never moves value itself. It returns movements, and the
// hosting store applies them inside the same transaction as the record
// writes so both commit or neither does.
package transfer

import "github.com/louisbranch/estateledger/internal/services/ledger/domain/account"

// Kind distinguishes debits from credits.
type Kind string

const (
	// KindCollect takes value from the account (the caller's payment).
	KindCollect Kind = "collect"
	// KindPay sends value to the account.
	KindPay Kind = "pay"
)

// Movement is one debit or credit against an account wallet.
type Movement struct {
	Kind    Kind
	Account account.Address
	Amount  uint64
}

// Collect builds a debit from the given account.
func Collect(from account.Address, amount uint64) Movement {
	return Movement{Kind: KindCollect, Account: from, Amount: amount}
}

// Pay builds a credit to the given account.
func Pay(to account.Address, amount uint64) Movement {
	return Movement{Kind: KindPay, Account: to, Amount: amount}
}

// Net reports the signed effect of movements on one account. Callers use it
// in tests and audits; stores apply movements one by one.
func Net(movements []Movement, addr account.Address) (credit, debit uint64) {
	for _, m := range movements {
		if m.Account != addr {
			continue
		}
		switch m.Kind {
		case KindCollect:
			debit += m.Amount
		case KindPay:
			credit += m.Amount
		}
	}
	return credit, debit
}
