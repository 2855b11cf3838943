// Package account defines ledger addresses.
package account

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
)

// HexDigits is the canonical number of hex digits in an address.
const HexDigits = 64

// Address identifies an owner, buyer, creator, donor, or admin.
//
// Canonical form is "0x" followed by 64 lower-case hex digits.
type Address string

// ErrInvalidAddress is returned for malformed addresses.
var ErrInvalidAddress = apperrors.New(apperrors.CodeInvalidAddress, "invalid address")

// ParseAddress validates raw and returns its canonical form. Shorter hex
// strings are left-padded with zeros, so "0x1" and "0x0...01" are equal.
func ParseAddress(raw string) (Address, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(value, "0x") {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidAddress, "address must start with 0x", map[string]string{"Address": raw})
	}
	digits := value[2:]
	if digits == "" || len(digits) > HexDigits {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidAddress, "address must have 1 to 64 hex digits", map[string]string{"Address": raw})
	}
	for _, r := range digits {
		if !isHexDigit(r) {
			return "", apperrors.WithMetadata(apperrors.CodeInvalidAddress, "address contains a non-hex digit", map[string]string{"Address": raw})
		}
	}
	return Address("0x" + strings.Repeat("0", HexDigits-len(digits)) + digits), nil
}

// MustParse is ParseAddress for constants and tests.
func MustParse(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// Derive maps an opaque identity (for example an X.509 client id) to a stable
// address.
func Derive(identity []byte) Address {
	sum := sha256.Sum256(identity)
	return Address("0x" + hex.EncodeToString(sum[:]))
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ""
}

// Valid reports whether the address is already canonical.
func (a Address) Valid() bool {
	parsed, err := ParseAddress(string(a))
	return err == nil && parsed == a
}

func (a Address) String() string {
	return string(a)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}
