// Package tipping implements the creator tipping ledger: the platform fee
// sink, creator profiles, fee-split donations, and withdrawals.
//
// Every operation is a pure transition. It takes records by value and
// returns the updated copies together with value movements and events, so a
// rejected call leaves the caller's records untouched.
package tipping
