package actor

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
)

var (
	tokenNow  = time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)
	tokenAddr = account.MustParse("0xabc")
)

func testConfig(t *testing.T) Config {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return Config{
		Issuer:     "estateledger",
		Audience:   "ledger",
		PublicKey:  pub,
		PrivateKey: priv,
		TTL:        time.Hour,
		Now:        func() time.Time { return tokenNow },
	}
}

func clearActorEnv(t *testing.T) {
	for _, key := range []string{"LEDGER_ACTOR_ISSUER", "LEDGER_ACTOR_AUDIENCE", "LEDGER_ACTOR_PUBLIC_KEY", "LEDGER_ACTOR_PRIVATE_KEY", "LEDGER_ACTOR_TOKEN_TTL"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestLoadConfigFromEnvDisabledWithoutKeys(t *testing.T) {
	clearActorEnv(t)
	t.Setenv("LEDGER_ACTOR_ISSUER", "estateledger")
	t.Setenv("LEDGER_ACTOR_AUDIENCE", "ledger")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Enabled() {
		t.Fatal("expected verification disabled")
	}
}

func TestLoadConfigFromEnvDerivesPublicKey(t *testing.T) {
	clearActorEnv(t)
	pub, priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("LEDGER_ACTOR_ISSUER", "estateledger")
	t.Setenv("LEDGER_ACTOR_AUDIENCE", "ledger")
	t.Setenv("LEDGER_ACTOR_PRIVATE_KEY", priv)
	t.Setenv("LEDGER_ACTOR_TOKEN_TTL", "15m")

	cfg, err := LoadConfigFromEnv(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if base64.RawStdEncoding.EncodeToString(cfg.PublicKey) != pub {
		t.Fatal("expected public key derived from private seed")
	}
	if cfg.TTL != 15*time.Minute {
		t.Fatalf("ttl = %s, want 15m", cfg.TTL)
	}

	otherPub, _, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	t.Setenv("LEDGER_ACTOR_PUBLIC_KEY", otherPub)
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected mismatched key pair error")
	}
}

func TestLoadConfigFromEnvRejectsShortKey(t *testing.T) {
	clearActorEnv(t)
	t.Setenv("LEDGER_ACTOR_ISSUER", "estateledger")
	t.Setenv("LEDGER_ACTOR_AUDIENCE", "ledger")
	t.Setenv("LEDGER_ACTOR_PUBLIC_KEY", base64.RawStdEncoding.EncodeToString([]byte("short")))
	if _, err := LoadConfigFromEnv(nil); err == nil {
		t.Fatal("expected key size error")
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	token, err := Issue(cfg, tokenAddr, "jti-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := Verify(token, cfg)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Address != tokenAddr || claims.JWTID != "jti-1" || claims.Issuer != "estateledger" {
		t.Fatalf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Equal(tokenNow.Add(time.Hour)) {
		t.Fatalf("expires at = %s", claims.ExpiresAt)
	}
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	token, err := Issue(cfg, tokenAddr, "jti-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := testConfig(t)
	expired := cfg
	expired.Now = func() time.Time { return tokenNow.Add(2 * time.Hour) }
	wrongAudience := cfg
	wrongAudience.Audience = "elsewhere"
	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone"

	tests := []struct {
		name  string
		token string
		cfg   Config
	}{
		{name: "empty", token: " ", cfg: cfg},
		{name: "foreign key", token: token, cfg: Config{Issuer: cfg.Issuer, Audience: cfg.Audience, PublicKey: other.PublicKey, Now: cfg.Now}},
		{name: "expired", token: token, cfg: expired},
		{name: "audience", token: token, cfg: wrongAudience},
		{name: "issuer", token: token, cfg: wrongIssuer},
		{name: "garbage", token: "not.a.token", cfg: cfg},
		{name: "hmac", token: signHS256(t), cfg: cfg},
	}
	for _, tc := range tests {
		_, err := Verify(tc.token, tc.cfg)
		if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("%s: err = %v, want UNAUTHORIZED", tc.name, err)
		}
	}
}

func TestVerifyRequiresConfiguredKey(t *testing.T) {
	t.Parallel()

	_, err := Verify("a.b.c", Config{Issuer: "i", Audience: "a"})
	if err == nil || apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestIssueValidation(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	if _, err := Issue(Config{}, tokenAddr, "jti"); err == nil {
		t.Fatal("expected signer error")
	}
	if _, err := Issue(cfg, account.Address("bogus"), "jti"); !apperrors.HasCode(err, apperrors.CodeInvalidAddress) {
		t.Fatalf("err = %v, want INVALID_ADDRESS", err)
	}
	if _, err := Issue(cfg, tokenAddr, ""); err == nil {
		t.Fatal("expected jti error")
	}
}

func signHS256(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "estateledger",
			Subject:   tokenAddr.String(),
			Audience:  jwt.ClaimStrings{"ledger"},
			ExpiresAt: jwt.NewNumericDate(tokenNow.Add(time.Hour)),
		},
		Address: tokenAddr.String(),
	})
	signed, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("unexpected token %q", signed)
	}
	return signed
}
