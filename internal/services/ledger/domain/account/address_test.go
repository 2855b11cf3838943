package account

import (
	"strings"
	"testing"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
)

func TestParseAddressCanonicalizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "0x1", want: "0x" + strings.Repeat("0", 63) + "1"},
		{raw: " 0XABCDEF ", want: "0x" + strings.Repeat("0", 58) + "abcdef"},
		{raw: "0x" + strings.Repeat("f", 64), want: "0x" + strings.Repeat("f", 64)},
	}
	for _, tc := range tests {
		got, err := ParseAddress(tc.raw)
		if err != nil {
			t.Fatalf("ParseAddress(%q): %v", tc.raw, err)
		}
		if string(got) != tc.want {
			t.Fatalf("ParseAddress(%q) = %q, want %q", tc.raw, got, tc.want)
		}
		if !got.Valid() {
			t.Fatalf("ParseAddress(%q) result is not valid", tc.raw)
		}
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "0x", "1234", "0xzz", "0x" + strings.Repeat("a", 65)} {
		_, err := ParseAddress(raw)
		if !apperrors.HasCode(err, apperrors.CodeInvalidAddress) {
			t.Fatalf("ParseAddress(%q) error = %v, want %s", raw, err, apperrors.CodeInvalidAddress)
		}
	}
}

func TestDeriveIsStable(t *testing.T) {
	t.Parallel()

	first := Derive([]byte("x509::CN=alice"))
	second := Derive([]byte("x509::CN=alice"))
	if first != second {
		t.Fatalf("derive not stable: %q vs %q", first, second)
	}
	if !first.Valid() {
		t.Fatalf("derived address %q is not canonical", first)
	}
	if first == Derive([]byte("x509::CN=bob")) {
		t.Fatal("expected distinct identities to derive distinct addresses")
	}
}

func TestAddressValidRejectsNonCanonical(t *testing.T) {
	t.Parallel()

	if Address("0x1").Valid() {
		t.Fatal("expected short form to be non-canonical")
	}
	var zero Address
	if !zero.IsZero() || zero.Valid() {
		t.Fatal("expected zero address to be invalid")
	}
}
