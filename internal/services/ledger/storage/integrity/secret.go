package integrity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// DefaultSecretBytes is the journal signing secret size.
const DefaultSecretBytes = 32

// NewSecret returns n random bytes hex-encoded for LEDGER_EVENT_HMAC_KEY. A nil
// reader uses crypto/rand.
func NewSecret(reader io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("secret size must be greater than zero")
	}
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
