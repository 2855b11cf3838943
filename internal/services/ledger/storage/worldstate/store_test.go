package worldstate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
)

var (
	testNow  = time.Date(2026, time.July, 3, 11, 0, 0, 0, time.UTC)
	ownerA   = account.MustParse("0xa1")
	ownerB   = account.MustParse("0xb2")
	creatorC = account.MustParse("0xc3")
)

func newMockStub(t *testing.T) *shimtest.MockStub {
	t.Helper()
	stub := shimtest.NewMockStub("ledger", nil)
	stub.MockTransactionStart("tx-1")
	t.Cleanup(func() { stub.MockTransactionEnd("tx-1") })
	return stub
}

func newTestStore(t *testing.T, stub *shimtest.MockStub) *Store {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("worldstate-test")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return New(stub, WithKeyring(ring), WithClock(func() time.Time { return testNow }))
}

func mustTx(t *testing.T, store *Store, fn func(storage.Tx) error) {
	t.Helper()
	if err := store.InTx(context.Background(), fn); err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func sampleProperty(id string, owner account.Address) listing.Property {
	return listing.Property{
		ID:          id,
		Owner:       owner,
		Name:        "Rumah " + id,
		Type:        listing.PropertyHouse,
		Status:      listing.StatusForSale,
		Price:       5_000_000,
		Certificate: listing.CertificateSHGB,
		Images:      []string{"ipfs://front"},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func TestPropertyRoundTripAndDuplicate(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	want := sampleProperty("p-1", ownerA)
	mustTx(t, store, func(tx storage.Tx) error { return tx.CreateProperty(ctx, want) })

	got, err := store.GetProperty(ctx, "p-1")
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if got.Owner != ownerA || got.Certificate != listing.CertificateSHGB || !got.CreatedAt.Equal(testNow) {
		t.Fatalf("property = %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "ipfs://front" {
		t.Fatalf("images = %v", got.Images)
	}

	err = store.InTx(ctx, func(tx storage.Tx) error { return tx.CreateProperty(ctx, want) })
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate err = %v, want ErrAlreadyExists", err)
	}
	if _, err := store.GetProperty(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePropertyMovesOwnerIndex(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	mustTx(t, store, func(tx storage.Tx) error {
		for _, id := range []string{"p-1", "p-2", "p-3"} {
			if err := tx.CreateProperty(ctx, sampleProperty(id, ownerA)); err != nil {
				return err
			}
		}
		return nil
	})

	later := testNow.Add(time.Hour)
	mustTx(t, store, func(tx storage.Tx) error {
		p, err := tx.GetProperty(ctx, "p-2")
		if err != nil {
			return err
		}
		p.Owner = ownerB
		p.UpdatedAt = later
		return tx.UpdateProperty(ctx, p)
	})

	pageA, err := store.ListPropertiesByOwner(ctx, ownerA, 10, "")
	if err != nil {
		t.Fatalf("list owner A: %v", err)
	}
	if len(pageA.Properties) != 2 || pageA.Properties[0].ID != "p-1" || pageA.Properties[1].ID != "p-3" {
		t.Fatalf("owner A page = %+v", pageA.Properties)
	}
	pageB, err := store.ListPropertiesByOwner(ctx, ownerB, 10, "")
	if err != nil {
		t.Fatalf("list owner B: %v", err)
	}
	if len(pageB.Properties) != 1 || !pageB.Properties[0].UpdatedAt.Equal(later) {
		t.Fatalf("owner B page = %+v", pageB.Properties)
	}
}

func TestListPropertiesByOwnerPaging(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	mustTx(t, store, func(tx storage.Tx) error {
		for _, id := range []string{"p-1", "p-2", "p-3"} {
			if err := tx.CreateProperty(ctx, sampleProperty(id, ownerA)); err != nil {
				return err
			}
		}
		return nil
	})

	first, err := store.ListPropertiesByOwner(ctx, ownerA, 2, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Properties) != 2 || first.NextPageToken != "p-2" {
		t.Fatalf("first page = %+v token=%q", first.Properties, first.NextPageToken)
	}
	second, err := store.ListPropertiesByOwner(ctx, ownerA, 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Properties) != 1 || second.Properties[0].ID != "p-3" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v token=%q", second.Properties, second.NextPageToken)
	}
}

func TestFailedTransactionWritesNothing(t *testing.T) {
	t.Parallel()

	stub := newMockStub(t)
	store := newTestStore(t, stub)
	ctx := context.Background()
	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateProperty(ctx, sampleProperty("p-1", ownerA)); err != nil {
			return err
		}
		if err := tx.Pay(ctx, ownerA, 10); err != nil {
			return err
		}
		if _, err := tx.GetProperty(ctx, "p-1"); err != nil {
			t.Fatalf("read own write: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if len(stub.State) != 0 {
		t.Fatalf("state has %d keys after failed tx", len(stub.State))
	}
}

func TestWalletCollectAndPay(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	mustTx(t, store, func(tx storage.Tx) error { return tx.Pay(ctx, ownerA, 100) })

	err := store.InTx(ctx, func(tx storage.Tx) error { return tx.Collect(ctx, ownerA, 101) })
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	mustTx(t, store, func(tx storage.Tx) error {
		if err := tx.Collect(ctx, ownerA, 60); err != nil {
			return err
		}
		return tx.Pay(ctx, ownerB, 60)
	})
	if balance, _ := store.Balance(ctx, ownerA); balance != 40 {
		t.Fatalf("owner A balance = %d, want 40", balance)
	}
	if balance, _ := store.Balance(ctx, ownerB); balance != 60 {
		t.Fatalf("owner B balance = %d, want 60", balance)
	}
}

func TestCreatorAndPlatformRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	profile := tipping.CreatorProfile{
		Creator:     creatorC,
		DisplayName: "Budi",
		IsActive:    true,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
	platform := tipping.Platform{ID: "plat-1", Admin: ownerA, FeeRateBps: 200, CreatedAt: testNow, UpdatedAt: testNow}
	mustTx(t, store, func(tx storage.Tx) error {
		if err := tx.CreatePlatform(ctx, platform); err != nil {
			return err
		}
		return tx.CreateCreator(ctx, profile)
	})

	err := store.InTx(ctx, func(tx storage.Tx) error { return tx.CreateCreator(ctx, profile) })
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate creator err = %v", err)
	}
	err = store.InTx(ctx, func(tx storage.Tx) error {
		missing := profile
		missing.Creator = ownerB
		return tx.UpdateCreator(ctx, missing)
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing creator err = %v", err)
	}

	got, err := store.GetCreator(ctx, creatorC)
	if err != nil {
		t.Fatalf("get creator: %v", err)
	}
	if got.DisplayName != "Budi" || !got.IsActive || got.SocialLinks != nil || !got.LastDonationAt.IsZero() {
		t.Fatalf("creator = %+v", got)
	}
	gotPlatform, err := store.GetPlatform(ctx, "plat-1")
	if err != nil {
		t.Fatalf("get platform: %v", err)
	}
	if gotPlatform.Admin != ownerA || gotPlatform.FeeRateBps != 200 {
		t.Fatalf("platform = %+v", gotPlatform)
	}
}

func TestDonationsNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newMockStub(t))
	ctx := context.Background()
	voice := tipping.Voice("ipfs://voice")
	mustTx(t, store, func(tx storage.Tx) error {
		for i, id := range []string{"d-1", "d-2", "d-3"} {
			d := tipping.Donation{
				ID:         id,
				PlatformID: "plat-1",
				Donor:      ownerA,
				Creator:    creatorC,
				Amount:     uint64(i+1) * 1_000,
				Timestamp:  testNow.Add(time.Duration(i) * time.Minute),
			}
			if id == "d-2" {
				d.Media = voice
			}
			if err := tx.CreateDonation(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})

	first, err := store.ListDonationsByCreator(ctx, creatorC, 2, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Donations) != 2 || first.Donations[0].ID != "d-3" || first.Donations[1].ID != "d-2" {
		t.Fatalf("first page = %+v", first.Donations)
	}
	if url, ok := first.Donations[1].Media.Voice(); !ok || url != "ipfs://voice" {
		t.Fatalf("media = %+v", first.Donations[1].Media)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token")
	}
	second, err := store.ListDonationsByCreator(ctx, creatorC, 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Donations) != 1 || second.Donations[0].ID != "d-1" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v token=%q", second.Donations, second.NextPageToken)
	}
	if _, err := store.ListDonationsByCreator(ctx, creatorC, 2, "nope"); err == nil {
		t.Fatal("expected invalid token error")
	}
}

func appendTestEvents(t *testing.T, store *Store, events ...event.Event) []event.Event {
	t.Helper()
	var stored []event.Event
	mustTx(t, store, func(tx storage.Tx) error {
		var err error
		stored, err = tx.AppendEvents(context.Background(), events)
		return err
	})
	return stored
}

func TestJournalChainsPerEntityAndPublishesNotifications(t *testing.T) {
	t.Parallel()

	stub := newMockStub(t)
	store := newTestStore(t, stub)
	ctx := context.Background()

	first := appendTestEvents(t, store,
		event.New(event.TypeCreatorProfileUpdated, creatorC.String(), event.EntityCreator, creatorC.String(), testNow, event.CreatorProfileUpdatedPayload{}),
	)
	second := appendTestEvents(t, store,
		event.New(event.TypeCreatorProfileUpdated, creatorC.String(), event.EntityCreator, creatorC.String(), testNow, event.CreatorProfileUpdatedPayload{}),
		event.New(event.TypeDonationReceived, ownerA.String(), event.EntityDonation, "d-1", testNow, event.DonationReceivedPayload{DonationID: "d-1"}),
	)
	if first[0].Seq != 1 || second[0].Seq != 2 {
		t.Fatalf("creator seqs = %d, %d", first[0].Seq, second[0].Seq)
	}
	if second[0].PrevHash != first[0].ChainHash || second[0].Signature == "" {
		t.Fatalf("second creator event not chained: %+v", second[0])
	}
	if second[1].Seq != 1 || second[1].PrevHash != "" {
		t.Fatalf("donation event should start its own chain: %+v", second[1])
	}
	if err := store.VerifyJournal(ctx); err != nil {
		t.Fatalf("verify journal: %v", err)
	}

	select {
	case published := <-stub.ChaincodeEventsChannel:
		if published.EventName != NotificationEvent {
			t.Fatalf("event name = %q", published.EventName)
		}
		var payload []map[string]any
		if err := json.Unmarshal(published.Payload, &payload); err != nil {
			t.Fatalf("decode notifications: %v", err)
		}
		if len(payload) != 1 || payload[0]["type"] != string(event.TypeDonationReceived) {
			t.Fatalf("notifications = %v", payload)
		}
	default:
		t.Fatal("expected a notification chaincode event")
	}
	select {
	case extra := <-stub.ChaincodeEventsChannel:
		t.Fatalf("unexpected extra chaincode event %q", extra.EventName)
	default:
	}

	events, err := store.ListEntityEvents(ctx, event.EntityCreator, creatorC.String(), 1, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Seq != 2 {
		t.Fatalf("creator events after 1 = %+v", events)
	}
}

// recordingStub records every key written through it.
type recordingStub struct {
	*shimtest.MockStub
	written map[string]bool
}

func (r *recordingStub) PutState(key string, value []byte) error {
	r.written[key] = true
	return r.MockStub.PutState(key, value)
}

func (r *recordingStub) DelState(key string) error {
	r.written[key] = true
	return r.MockStub.DelState(key)
}

func TestDisjointRegistrationsWriteDisjointKeys(t *testing.T) {
	t.Parallel()

	mock := newMockStub(t)
	register := func(creator account.Address) map[string]bool {
		t.Helper()
		stub := &recordingStub{MockStub: mock, written: make(map[string]bool)}
		store := New(stub, WithClock(func() time.Time { return testNow }))
		profile, evt, err := tipping.RegisterCreator(creator, tipping.ProfileFields{DisplayName: "Creator"}, testNow)
		if err != nil {
			t.Fatalf("register creator: %v", err)
		}
		mustTx(t, store, func(tx storage.Tx) error {
			if err := tx.CreateCreator(context.Background(), profile); err != nil {
				return err
			}
			_, err := tx.AppendEvents(context.Background(), []event.Event{evt})
			return err
		})
		return stub.written
	}

	alice := register(ownerA)
	bob := register(ownerB)
	if len(alice) == 0 || len(bob) == 0 {
		t.Fatalf("expected writes, got alice=%d bob=%d", len(alice), len(bob))
	}
	for key := range alice {
		if bob[key] {
			t.Fatalf("both registrations wrote %q", key)
		}
	}

	store := New(mock)
	for _, creator := range []account.Address{ownerA, ownerB} {
		events, err := store.ListEntityEvents(context.Background(), event.EntityCreator, creator.String(), 0, 10)
		if err != nil {
			t.Fatalf("list %s events: %v", creator, err)
		}
		if len(events) != 1 || events[0].Seq != 1 || events[0].PrevHash != "" {
			t.Fatalf("%s events = %+v", creator, events)
		}
	}
	if err := store.VerifyJournal(context.Background()); err != nil {
		t.Fatalf("verify journal: %v", err)
	}
}

func TestVerifyJournalDetectsTampering(t *testing.T) {
	t.Parallel()

	stub := newMockStub(t)
	store := newTestStore(t, stub)
	appendTestEvents(t, store,
		event.New(event.TypeCreatorRegistered, creatorC.String(), event.EntityCreator, creatorC.String(), testNow, event.CreatorRegisteredPayload{Creator: creatorC.String()}),
	)

	key, err := stub.CreateCompositeKey(keyJournal, []string{event.EntityCreator, creatorC.String(), "00000000000000000001"})
	if err != nil {
		t.Fatalf("journal key: %v", err)
	}
	var rec eventRecord
	if err := json.Unmarshal(stub.State[key], &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	rec.ActorID = ownerB.String()
	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("encode record: %v", err)
	}
	if err := stub.PutState(key, raw); err != nil {
		t.Fatalf("put tampered record: %v", err)
	}

	err = store.VerifyJournal(context.Background())
	if err == nil || !strings.Contains(err.Error(), "event hash mismatch seq=1") {
		t.Fatalf("verify err = %v", err)
	}
}
