package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/sqlite"
)

var (
	fixedNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	admin    = account.MustParse("0xad")
	creator  = account.MustParse("0xc0ffee")
	donor    = account.MustParse("0xd0")
	seller   = account.MustParse("0x5e11")
	buyer    = account.MustParse("0xb0b")
)

func sequentialIDs() func() (string, error) {
	var (
		mu   sync.Mutex
		next int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("id-%03d", next), nil
	}
}

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("service-test")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	clock := func() time.Time { return fixedNow }
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"), ring, sqlite.WithClock(clock))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, WithClock(clock), WithIDGenerator(sequentialIDs())), store
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := apperrors.GetCode(err); got != want {
		t.Fatalf("code = %s, want %s (err=%v)", got, want, err)
	}
}

func eventCount(t *testing.T, store *sqlite.Store) int {
	t.Helper()
	events, err := store.ListEvents(context.Background(), 0, 1000)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return len(events)
}

// tippingFixture initializes a platform and an active creator.
func tippingFixture(t *testing.T, svc *Service) tipping.Platform {
	t.Helper()
	ctx := context.Background()
	platform, err := svc.InitPlatform(ctx, admin)
	if err != nil {
		t.Fatalf("init platform: %v", err)
	}
	if _, err := svc.RegisterCreator(ctx, creator, tipping.ProfileFields{
		DisplayName: "Sari",
		Bio:         "Keroncong covers",
		SocialLinks: []string{"https://x.com/sari"},
	}); err != nil {
		t.Fatalf("register creator: %v", err)
	}
	if _, err := svc.Deposit(ctx, donor, 100_000_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return platform
}

func TestNilServiceReportsMissingStore(t *testing.T) {
	t.Parallel()

	var svc *Service
	if _, err := svc.Platform(context.Background(), "p"); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("err = %v, want %v", err, ErrStoreNotConfigured)
	}
	if _, err := New(nil).InitPlatform(context.Background(), admin); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("err = %v, want %v", err, ErrStoreNotConfigured)
	}
}

func TestDonationSplitsFee(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)
	if platform.FeeRateBps != 200 {
		t.Fatalf("fee rate = %d, want 200", platform.FeeRateBps)
	}

	outcome, err := svc.Donate(ctx, donor, DonationRequest{
		PlatformID: platform.ID,
		Creator:    creator,
		Amount:     1_000_000,
		Message:    "terima kasih",
	})
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if outcome.Fee != 20_000 || outcome.Donation.Amount != 980_000 {
		t.Fatalf("fee=%d net=%d, want 20000/980000", outcome.Fee, outcome.Donation.Amount)
	}

	profile, err := svc.Creator(ctx, creator)
	if err != nil {
		t.Fatalf("creator: %v", err)
	}
	if profile.Treasury != 980_000 || profile.TotalReceived != 980_000 || profile.DonationCount != 1 {
		t.Fatalf("profile = %+v", profile)
	}
	if !profile.LastDonationAt.Equal(fixedNow) {
		t.Fatalf("last donation at = %s, want %s", profile.LastDonationAt, fixedNow)
	}
	stored, err := svc.Platform(ctx, platform.ID)
	if err != nil {
		t.Fatalf("platform: %v", err)
	}
	if stored.Treasury != 20_000 || stored.TotalDonationCount != 1 || stored.TotalDonatedAmount != 1_000_000 {
		t.Fatalf("platform = %+v", stored)
	}
	if balance, _ := svc.Balance(ctx, donor); balance != 99_000_000 {
		t.Fatalf("donor balance = %d, want 99000000", balance)
	}

	donation, err := svc.Donation(ctx, outcome.Donation.ID)
	if err != nil {
		t.Fatalf("donation: %v", err)
	}
	if donation.Amount != 980_000 || donation.Message != "terima kasih" || donation.Donor != donor {
		t.Fatalf("donation = %+v", donation)
	}
	if err := store.VerifyJournal(ctx); err != nil {
		t.Fatalf("verify journal: %v", err)
	}
}

func TestDonationCountersAccumulate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)

	for _, amount := range []uint64{1_000_000, 10_000_000} {
		if _, err := svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: amount}); err != nil {
			t.Fatalf("donate %d: %v", amount, err)
		}
	}
	profile, err := svc.Creator(ctx, creator)
	if err != nil {
		t.Fatalf("creator: %v", err)
	}
	if profile.TotalReceived != 10_780_000 || profile.DonationCount != 2 {
		t.Fatalf("total_received=%d count=%d, want 10780000/2", profile.TotalReceived, profile.DonationCount)
	}
	stored, _ := svc.Platform(ctx, platform.ID)
	if stored.TotalDonatedAmount != 11_000_000 || stored.Treasury != 220_000 {
		t.Fatalf("platform = %+v", stored)
	}

	page, err := svc.DonationsByCreator(ctx, creator, 0, "")
	if err != nil {
		t.Fatalf("donations: %v", err)
	}
	if len(page.Donations) != 2 || page.Donations[0].Amount != 9_800_000 {
		t.Fatalf("feed = %+v", page.Donations)
	}
}

func TestDonationWithMediaVariants(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)
	req := DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 2_000_000, Message: "listen"}

	voice, err := svc.DonateWithVoice(ctx, donor, req, "ipfs://voice")
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	video, err := svc.DonateWithVideo(ctx, donor, req, "ipfs://video")
	if err != nil {
		t.Fatalf("video: %v", err)
	}

	got, err := svc.Donation(ctx, voice.Donation.ID)
	if err != nil {
		t.Fatalf("get voice: %v", err)
	}
	if url, ok := got.Media.Voice(); !ok || url != "ipfs://voice" {
		t.Fatalf("voice media = %q, %v", url, ok)
	}
	if _, ok := got.Media.Video(); ok {
		t.Fatal("voice donation reports a video")
	}
	got, err = svc.Donation(ctx, video.Donation.ID)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if url, ok := got.Media.Video(); !ok || url != "ipfs://video" {
		t.Fatalf("video media = %q, %v", url, ok)
	}

	_, err = svc.DonateWithVoice(ctx, donor, req, strings.Repeat("a", tipping.MaxMediaURLLength+1))
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestDonationPreconditionsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)

	beforePlatform, _ := svc.Platform(ctx, platform.ID)
	beforeProfile, _ := svc.Creator(ctx, creator)
	beforeBalance, _ := svc.Balance(ctx, donor)
	beforeEvents := eventCount(t, store)

	tests := []struct {
		name string
		req  DonationRequest
		want apperrors.Code
	}{
		{
			name: "below minimum",
			req:  DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: tipping.MinDonation - 1},
			want: apperrors.CodeInsufficientAmount,
		},
		{
			name: "message too long",
			req:  DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: tipping.MinDonation, Message: strings.Repeat("é", tipping.MaxMessageLength+1)},
			want: apperrors.CodeMessageTooLong,
		},
		{
			name: "unknown creator",
			req:  DonationRequest{PlatformID: platform.ID, Creator: account.MustParse("0x404"), Amount: tipping.MinDonation},
			want: apperrors.CodeProfileNotFound,
		},
		{
			name: "unknown platform",
			req:  DonationRequest{PlatformID: "missing", Creator: creator, Amount: tipping.MinDonation},
			want: apperrors.CodeNotFound,
		},
		{
			name: "donor cannot pay",
			req:  DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 500_000_000},
			want: apperrors.CodeInsufficientFunds,
		},
	}
	for _, tc := range tests {
		_, err := svc.Donate(ctx, donor, tc.req)
		if got := apperrors.GetCode(err); got != tc.want {
			t.Fatalf("%s: code = %s, want %s (err=%v)", tc.name, got, tc.want, err)
		}
	}

	afterPlatform, _ := svc.Platform(ctx, platform.ID)
	afterProfile, _ := svc.Creator(ctx, creator)
	afterBalance, _ := svc.Balance(ctx, donor)
	if !reflect.DeepEqual(beforePlatform, afterPlatform) {
		t.Fatalf("platform changed: %+v -> %+v", beforePlatform, afterPlatform)
	}
	if !reflect.DeepEqual(beforeProfile, afterProfile) {
		t.Fatalf("profile changed: %+v -> %+v", beforeProfile, afterProfile)
	}
	if beforeBalance != afterBalance {
		t.Fatalf("donor balance changed: %d -> %d", beforeBalance, afterBalance)
	}
	if got := eventCount(t, store); got != beforeEvents {
		t.Fatalf("events = %d, want %d", got, beforeEvents)
	}
}

func TestDonateToInactiveCreator(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)

	profile, err := svc.ToggleActive(ctx, creator, creator)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if profile.IsActive {
		t.Fatal("expected inactive profile")
	}

	_, err = svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 1_000_000})
	assertCode(t, err, apperrors.CodeCreatorInactive)
	if balance, _ := svc.Balance(ctx, donor); balance != 100_000_000 {
		t.Fatalf("donor balance = %d, want unchanged", balance)
	}

	// The amount floor is checked before the active flag.
	_, err = svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 1})
	assertCode(t, err, apperrors.CodeInsufficientAmount)

	if _, err := svc.ToggleActive(ctx, creator, creator); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if _, err := svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 1_000_000}); err != nil {
		t.Fatalf("donate after reactivation: %v", err)
	}
}

func TestRegisterCreatorTwice(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tippingFixture(t, svc)

	_, err := svc.RegisterCreator(ctx, creator, tipping.ProfileFields{DisplayName: "Imposter"})
	assertCode(t, err, apperrors.CodeCreatorAlreadyRegistered)
	profile, err := svc.Creator(ctx, creator)
	if err != nil {
		t.Fatalf("creator: %v", err)
	}
	if profile.DisplayName != "Sari" {
		t.Fatalf("display name = %q, want Sari", profile.DisplayName)
	}
}

func TestCreatorOperationsRequireOwner(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	tippingFixture(t, svc)
	stranger := account.MustParse("0x57")

	_, err := svc.UpdateProfile(ctx, stranger, creator, tipping.ProfilePatch{DisplayName: tipping.Replace("Hacked")})
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.ToggleActive(ctx, stranger, creator)
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Withdraw(ctx, stranger, creator, 0)
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.WithdrawAll(ctx, stranger, creator)
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.UpdateProfile(ctx, creator, account.MustParse("0x404"), tipping.ProfilePatch{})
	assertCode(t, err, apperrors.CodeProfileNotFound)

	profile, err := svc.UpdateProfile(ctx, creator, creator, tipping.ProfilePatch{
		Bio:         tipping.Replace("Gamelan"),
		SocialLinks: tipping.Replace([]string{}),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if profile.DisplayName != "Sari" || profile.Bio != "Gamelan" || len(profile.SocialLinks) != 0 {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestCreatorWithdrawals(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)
	if _, err := svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 1_000_000}); err != nil {
		t.Fatalf("donate: %v", err)
	}

	_, err := svc.Withdraw(ctx, creator, creator, 980_001)
	assertCode(t, err, apperrors.CodeInsufficientAmount)

	profile, err := svc.Withdraw(ctx, creator, creator, 480_000)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if profile.Treasury != 500_000 {
		t.Fatalf("treasury = %d, want 500000", profile.Treasury)
	}
	if balance, _ := svc.Balance(ctx, creator); balance != 480_000 {
		t.Fatalf("creator wallet = %d, want 480000", balance)
	}

	profile, err = svc.WithdrawAll(ctx, creator, creator)
	if err != nil {
		t.Fatalf("withdraw all: %v", err)
	}
	if profile.Treasury != 0 || profile.TotalReceived != 980_000 {
		t.Fatalf("profile = %+v", profile)
	}
	if balance, _ := svc.Balance(ctx, creator); balance != 980_000 {
		t.Fatalf("creator wallet = %d, want 980000", balance)
	}

	events := eventCount(t, store)
	if _, err := svc.WithdrawAll(ctx, creator, creator); err != nil {
		t.Fatalf("withdraw all on empty treasury: %v", err)
	}
	if got := eventCount(t, store); got != events {
		t.Fatalf("empty withdraw appended events: %d -> %d", events, got)
	}
}

func TestPlatformAdministration(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	platform := tippingFixture(t, svc)

	_, err := svc.SetFeeRate(ctx, donor, platform.ID, 500)
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.SetFeeRate(ctx, admin, platform.ID, uint64(tipping.MaxFeeRateBps)+1)
	assertCode(t, err, apperrors.CodeInvalidInput)

	updated, err := svc.SetFeeRate(ctx, admin, platform.ID, 1000)
	if err != nil {
		t.Fatalf("set fee rate: %v", err)
	}
	if updated.FeeRateBps != 1000 {
		t.Fatalf("fee rate = %d, want 1000", updated.FeeRateBps)
	}
	outcome, err := svc.Donate(ctx, donor, DonationRequest{PlatformID: platform.ID, Creator: creator, Amount: 1_000_001})
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if outcome.Fee != 100_000 || outcome.Donation.Amount != 900_001 {
		t.Fatalf("fee=%d net=%d", outcome.Fee, outcome.Donation.Amount)
	}

	_, err = svc.WithdrawPlatformEarnings(ctx, creator, platform.ID, 1)
	assertCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.WithdrawPlatformEarnings(ctx, admin, platform.ID, 100_001)
	assertCode(t, err, apperrors.CodeInsufficientAmount)

	updated, err = svc.WithdrawPlatformEarnings(ctx, admin, platform.ID, 100_000)
	if err != nil {
		t.Fatalf("withdraw earnings: %v", err)
	}
	if updated.Treasury != 0 {
		t.Fatalf("treasury = %d, want 0", updated.Treasury)
	}
	if balance, _ := svc.Balance(ctx, admin); balance != 100_000 {
		t.Fatalf("admin wallet = %d, want 100000", balance)
	}
}

func TestIndependentPlatforms(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	first := tippingFixture(t, svc)
	second, err := svc.InitPlatform(ctx, donor)
	if err != nil {
		t.Fatalf("init second platform: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct platform ids")
	}
	if _, err := svc.SetFeeRate(ctx, donor, second.ID, 0); err != nil {
		t.Fatalf("set fee rate: %v", err)
	}
	outcome, err := svc.Donate(ctx, donor, DonationRequest{PlatformID: second.ID, Creator: creator, Amount: 1_000_000})
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if outcome.Fee != 0 || outcome.Donation.Amount != 1_000_000 {
		t.Fatalf("fee=%d net=%d", outcome.Fee, outcome.Donation.Amount)
	}
	stored, _ := svc.Platform(ctx, first.ID)
	if stored.TotalDonationCount != 0 {
		t.Fatalf("first platform counted a donation: %+v", stored)
	}
}

func sampleListing(images int) listing.RegisterInput {
	in := listing.RegisterInput{
		Latitude:        "-6.2",
		Longitude:       "106.8",
		Name:            "Rumah Menteng",
		Address:         "Jl. Teuku Umar 1",
		Contact:         "+62 812 0000",
		TypeCode:        0,
		StatusCode:      0,
		Price:           1_000_000_000,
		BuildingArea:    300,
		LandArea:        500,
		CertificateCode: 0,
		Document:        "ipfs://deed",
	}
	for i := 0; i < images; i++ {
		in.Images = append(in.Images, fmt.Sprintf("ipfs://img-%d", i))
	}
	return in
}

func TestRegisterPropertyRejectsTooManyImages(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.RegisterProperty(ctx, seller, sampleListing(listing.MaxImages+1))
	assertCode(t, err, apperrors.CodeTooManyImages)
	page, err := svc.PropertiesByOwner(ctx, seller, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Properties) != 0 {
		t.Fatalf("properties = %+v, want none", page.Properties)
	}
	if got := eventCount(t, store); got != 0 {
		t.Fatalf("events = %d, want 0", got)
	}

	in := sampleListing(1)
	in.TypeCode = 9
	_, err = svc.RegisterProperty(ctx, seller, in)
	assertCode(t, err, apperrors.CodeInvalidPropertyType)
}

func TestBuyProperty(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	property, err := svc.RegisterProperty(ctx, seller, sampleListing(listing.MaxImages))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Deposit(ctx, buyer, 2_000_000_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err = svc.BuyProperty(ctx, buyer, property.ID, 500_000_000)
	assertCode(t, err, apperrors.CodeInsufficientPayment)
	stored, _ := svc.Property(ctx, property.ID)
	if stored.Owner != seller {
		t.Fatalf("owner = %s, want %s", stored.Owner, seller)
	}

	sold, err := svc.BuyProperty(ctx, buyer, property.ID, 1_200_000_000)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if sold.Owner != buyer || sold.Price != 1_000_000_000 {
		t.Fatalf("sold = %+v", sold)
	}
	if balance, _ := svc.Balance(ctx, seller); balance != 1_200_000_000 {
		t.Fatalf("seller wallet = %d, want full overpayment", balance)
	}
	if balance, _ := svc.Balance(ctx, buyer); balance != 800_000_000 {
		t.Fatalf("buyer wallet = %d, want 800000000", balance)
	}

	// Resale needs at least the original price and a funded buyer.
	_, err = svc.BuyProperty(ctx, seller, property.ID, 1_200_000_000)
	if err != nil {
		t.Fatalf("resale: %v", err)
	}
	broke := account.MustParse("0xdead")
	_, err = svc.BuyProperty(ctx, broke, property.ID, 1_000_000_000)
	assertCode(t, err, apperrors.CodeInsufficientFunds)
	stored, _ = svc.Property(ctx, property.ID)
	if stored.Owner != seller {
		t.Fatalf("owner = %s after failed resale, want %s", stored.Owner, seller)
	}

	_, err = svc.BuyProperty(ctx, buyer, "missing", 1)
	assertCode(t, err, apperrors.CodeNotFound)
	if err := store.VerifyJournal(ctx); err != nil {
		t.Fatalf("verify journal: %v", err)
	}
}

func TestRejectsMalformedCaller(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.RegisterProperty(context.Background(), account.Address("nope"), sampleListing(0))
	assertCode(t, err, apperrors.CodeInvalidAddress)
	_, err = svc.Deposit(context.Background(), account.Address(""), 1)
	assertCode(t, err, apperrors.CodeInvalidAddress)
}

func TestDepositIsJournaled(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Deposit(ctx, donor, 500); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	balance, err := svc.Deposit(ctx, donor, 250)
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if balance != 750 {
		t.Fatalf("balance = %d, want 750", balance)
	}

	events, err := store.ListEvents(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	last := events[1]
	if last.Type != event.TypeWalletDeposited || last.EntityType != event.EntityWallet || last.EntityID != donor.String() {
		t.Fatalf("deposit event = %+v", last)
	}
	payload, err := event.Decode[event.WalletDepositedPayload](last)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Amount != 250 || payload.Balance != 750 || payload.Account != donor.String() {
		t.Fatalf("payload = %+v", payload)
	}
	if err := store.VerifyJournal(ctx); err != nil {
		t.Fatalf("verify journal: %v", err)
	}
}

// failingFeedStore fails every donation feed read with err.
type failingFeedStore struct {
	storage.Store
	err error
}

func (f failingFeedStore) ListDonationsByCreator(context.Context, account.Address, int, string) (storage.DonationPage, error) {
	return storage.DonationPage{}, f.err
}

func TestDonationsByCreatorErrorCodes(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.DonationsByCreator(ctx, creator, 10, "not-a-seq")
	assertCode(t, err, apperrors.CodeInvalidInput)

	outage := New(failingFeedStore{err: errors.New("disk I/O error")})
	_, err = outage.DonationsByCreator(ctx, creator, 10, "")
	if err == nil {
		t.Fatal("expected storage failure")
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
		t.Fatalf("code = %s, want %s (err=%v)", code, apperrors.CodeUnknown, err)
	}
	if !strings.Contains(err.Error(), "disk I/O error") {
		t.Fatalf("err = %v, want wrapped storage failure", err)
	}

	outage = New(failingFeedStore{err: fmt.Errorf("list donations: %w", storage.ErrInvalidPageToken)})
	_, err = outage.DonationsByCreator(ctx, creator, 10, "x")
	assertCode(t, err, apperrors.CodeInvalidInput)
}
