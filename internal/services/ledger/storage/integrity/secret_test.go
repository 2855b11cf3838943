package integrity

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewSecretRejectsInvalidSize(t *testing.T) {
	if _, err := NewSecret(bytes.NewReader(nil), 0); err == nil {
		t.Fatal("expected error for non-positive size")
	}
}

func TestNewSecretEncodesHex(t *testing.T) {
	got, err := NewSecret(bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04}), 4)
	if err != nil {
		t.Fatalf("new secret: %v", err)
	}
	if got != "01020304" {
		t.Fatalf("secret = %q, want 01020304", got)
	}
}

func TestNewSecretDefaultReader(t *testing.T) {
	got, err := NewSecret(nil, DefaultSecretBytes)
	if err != nil {
		t.Fatalf("new secret: %v", err)
	}
	if len(got) != 2*DefaultSecretBytes {
		t.Fatalf("secret length = %d", len(got))
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read error") }

func TestNewSecretReadError(t *testing.T) {
	if _, err := NewSecret(errReader{}, 4); err == nil {
		t.Fatal("expected read error")
	}
}
