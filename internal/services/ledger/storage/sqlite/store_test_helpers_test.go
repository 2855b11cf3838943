package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
)

var (
	testNow   = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)
	ownerA    = account.MustParse("0xa1")
	ownerB    = account.MustParse("0xb2")
	creatorC  = account.MustParse("0xc3")
	adminAddr = account.MustParse("0xad")
)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path, testKeyring(t), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func mustTx(t *testing.T, store *Store, fn func(storage.Tx) error) {
	t.Helper()
	if err := store.InTx(context.Background(), fn); err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func sampleProperty(id string, owner account.Address) listing.Property {
	return listing.Property{
		ID:              id,
		Owner:           owner,
		Latitude:        "-8.65",
		Longitude:       "115.21",
		Name:            "Villa " + id,
		Address:         "Jl. Sunset Road, Bali",
		Contact:         "owner@example.com",
		Type:            listing.PropertyApartment,
		Status:          listing.StatusForRent,
		Price:           1_000_000_000,
		BuildingArea:    120,
		LandArea:        200,
		Certificate:     listing.CertificateOther,
		CertificateNote: "Girik",
		Images:          []string{"ipfs://1", "ipfs://2"},
		Document:        "ipfs://doc",
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

func samplePlatform() tipping.Platform {
	return tipping.Platform{
		ID:         "plat-1",
		Admin:      adminAddr,
		FeeRateBps: 200,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
}

func sampleCreator() tipping.CreatorProfile {
	return tipping.CreatorProfile{
		Creator:     creatorC,
		DisplayName: "Sari",
		Bio:         "Music",
		SocialLinks: []string{"https://x.com/sari", "https://yt.com/sari"},
		IsActive:    true,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}
