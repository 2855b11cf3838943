package integrity

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const defaultKeyID = "v1"

// keyringEnv mirrors the journal signing variables.
type keyringEnv struct {
	// Keys is a comma-separated list of id=secret pairs.
	Keys  string `env:"LEDGER_EVENT_HMAC_KEYS"`
	Key   string `env:"LEDGER_EVENT_HMAC_KEY"`
	KeyID string `env:"LEDGER_EVENT_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the HMAC keyring configuration from environment variables.
func KeyringFromEnv() (*Keyring, error) {
	var cfg keyringEnv
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse keyring env: %w", err)
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		keyID = defaultKeyID
	}

	keySpec := strings.TrimSpace(cfg.Keys)
	if keySpec == "" {
		raw := strings.TrimSpace(cfg.Key)
		if raw == "" {
			return nil, fmt.Errorf("LEDGER_EVENT_HMAC_KEY is required")
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		value = strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid LEDGER_EVENT_HMAC_KEYS entry")
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
