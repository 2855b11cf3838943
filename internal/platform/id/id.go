// Package id generates record identifiers.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a random UUIDv4 encoded as 26 lower-case base32 characters.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// Derive returns a deterministic identifier for a namespace and seed, used
// where every replica must agree on the same id (for example a transaction id
// and an output index).
func Derive(namespace, seed string) string {
	value := uuid.NewSHA1(uuid.NameSpaceOID, []byte(namespace+":"+seed))
	return strings.ToLower(encoding.EncodeToString(value[:]))
}
