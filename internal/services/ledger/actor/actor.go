// Package actor issues and verifies EdDSA tokens that bind a caller address
// to a ledger session.
package actor

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
)

// DefaultTTL bounds token lifetime when none is configured.
const DefaultTTL = time.Hour

// actorEnv holds raw env values before post-parse validation.
type actorEnv struct {
	Issuer     string        `env:"LEDGER_ACTOR_ISSUER" envDefault:"estateledger"`
	Audience   string        `env:"LEDGER_ACTOR_AUDIENCE" envDefault:"ledger"`
	PublicKey  string        `env:"LEDGER_ACTOR_PUBLIC_KEY"`
	PrivateKey string        `env:"LEDGER_ACTOR_PRIVATE_KEY"`
	TTL        time.Duration `env:"LEDGER_ACTOR_TOKEN_TTL" envDefault:"1h"`
}

// Config defines how actor tokens are issued and verified. PrivateKey is only
// needed to issue.
type Config struct {
	Issuer     string
	Audience   string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
	TTL        time.Duration
	Now        func() time.Time
}

// Enabled reports whether token verification is configured.
func (c Config) Enabled() bool {
	return len(c.PublicKey) == ed25519.PublicKeySize
}

// Claims captures validated actor token claims.
type Claims struct {
	Address   account.Address
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	JWTID     string
}

// actorClaims is the internal claims type used for JWT parsing.
type actorClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

// LoadConfigFromEnv reads actor token configuration. A missing public key
// leaves verification disabled; a private key alone implies its public half.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw actorEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse actor env: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	cfg := Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		TTL:      raw.TTL,
		Now:      now,
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	if privateKey := strings.TrimSpace(raw.PrivateKey); privateKey != "" {
		keyBytes, err := decodeBase64(privateKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode actor private key: %w", err)
		}
		switch len(keyBytes) {
		case ed25519.SeedSize:
			cfg.PrivateKey = ed25519.NewKeyFromSeed(keyBytes)
		case ed25519.PrivateKeySize:
			cfg.PrivateKey = ed25519.PrivateKey(keyBytes)
		default:
			return Config{}, fmt.Errorf("actor private key must be %d or %d bytes", ed25519.SeedSize, ed25519.PrivateKeySize)
		}
		cfg.PublicKey = cfg.PrivateKey.Public().(ed25519.PublicKey)
	}
	if publicKey := strings.TrimSpace(raw.PublicKey); publicKey != "" {
		keyBytes, err := decodeBase64(publicKey)
		if err != nil {
			return Config{}, fmt.Errorf("decode actor public key: %w", err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return Config{}, fmt.Errorf("actor public key must be %d bytes", ed25519.PublicKeySize)
		}
		if cfg.PublicKey != nil && !cfg.PublicKey.Equal(ed25519.PublicKey(keyBytes)) {
			return Config{}, errors.New("LEDGER_ACTOR_PUBLIC_KEY does not match LEDGER_ACTOR_PRIVATE_KEY")
		}
		cfg.PublicKey = ed25519.PublicKey(keyBytes)
	}
	if cfg.Enabled() && (cfg.Issuer == "" || cfg.Audience == "") {
		return Config{}, errors.New("LEDGER_ACTOR_ISSUER and LEDGER_ACTOR_AUDIENCE are required")
	}
	return cfg, nil
}

// GenerateKey returns a fresh key pair encoded for LEDGER_ACTOR_PUBLIC_KEY and
// LEDGER_ACTOR_PRIVATE_KEY.
func GenerateKey() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate actor key: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(pub), base64.RawStdEncoding.EncodeToString(priv.Seed()), nil
}

// Issue signs a token binding addr. jti must be unique per token.
func Issue(cfg Config, addr account.Address, jti string) (string, error) {
	if len(cfg.PrivateKey) != ed25519.PrivateKeySize {
		return "", errors.New("actor token signer is not configured")
	}
	if !addr.Valid() {
		return "", account.ErrInvalidAddress
	}
	if strings.TrimSpace(jti) == "" {
		return "", errors.New("actor token id is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	now := cfg.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, actorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   addr.String(),
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Address: addr.String(),
	})
	signed, err := token.SignedString(cfg.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("sign actor token: %w", err)
	}
	return signed, nil
}

// Verify checks an actor token and returns its claims. Every rejection is an
// UNAUTHORIZED error.
func Verify(token string, cfg Config) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthorized, "actor token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if !cfg.Enabled() || cfg.Issuer == "" || cfg.Audience == "" {
		return Claims{}, errors.New("actor token verifier is not configured")
	}

	var parsed actorClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.PublicKey, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return Claims{}, unauthorized("actor token issuer mismatch", "issuer")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, unauthorized("actor token audience mismatch", "audience")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, unauthorized("actor token exp is required", "exp")
	}
	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, unauthorized("actor token is expired", "exp")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return Claims{}, unauthorized("actor token not active yet", "nbf")
	}
	addr, err := account.ParseAddress(parsed.Address)
	if err != nil || parsed.Subject != addr.String() {
		return Claims{}, unauthorized("actor token address is invalid", "address")
	}

	claims := Claims{
		Address:   addr,
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

func unauthorized(message, field string) error {
	return apperrors.WithMetadata(apperrors.CodeUnauthorized, message, map[string]string{"Field": field})
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeUnauthorized, "actor token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeUnauthorized, "actor token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthorized, "actor token is invalid", err)
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
