package chaincode

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
)

var fixedNow = time.Date(2026, time.August, 17, 10, 0, 0, 0, time.UTC)

type fakeIdentity struct {
	mspID string
	id    string
	attrs map[string]string
}

var _ cid.ClientIdentity = fakeIdentity{}

func (f fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f fakeIdentity) GetMSPID() (string, error) { return f.mspID, nil }
func (f fakeIdentity) GetAttributeValue(name string) (string, bool, error) {
	value, ok := f.attrs[name]
	return value, ok, nil
}
func (f fakeIdentity) AssertAttributeValue(name, want string) error {
	value, ok := f.attrs[name]
	if !ok {
		return fmt.Errorf("attribute %s not found", name)
	}
	if value != want {
		return fmt.Errorf("attribute %s = %q, want %q", name, value, want)
	}
	return nil
}
func (f fakeIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

var (
	alice = fakeIdentity{mspID: "Org1MSP", id: "x509::CN=alice"}
	bob   = fakeIdentity{mspID: "Org1MSP", id: "x509::CN=bob"}
	carol = fakeIdentity{mspID: "Org2MSP", id: "x509::CN=carol"}
	dave  = fakeIdentity{mspID: "Org2MSP", id: "x509::CN=dave", attrs: map[string]string{IssuerAttribute: "true"}}
)

func addressOf(identity fakeIdentity) string {
	return account.Derive([]byte(identity.mspID + "/" + identity.id)).String()
}

// ledgerHarness runs each call in its own mock transaction.
type ledgerHarness struct {
	t        *testing.T
	stub     *shimtest.MockStub
	contract *LedgerContract
	txCount  int
}

// newHarness lets both test organizations issue deposits.
func newHarness(t *testing.T) *ledgerHarness {
	t.Helper()
	return newHarnessWith(t, WithIssuerMSPs(alice.mspID, carol.mspID))
}

func newHarnessWith(t *testing.T, opts ...Option) *ledgerHarness {
	t.Helper()
	return &ledgerHarness{
		t:        t,
		stub:     shimtest.NewMockStub("ledger", nil),
		contract: NewLedgerContract(nil, opts...),
	}
}

// as starts a new transaction submitted by identity.
func (h *ledgerHarness) as(identity cid.ClientIdentity) contractapi.TransactionContextInterface {
	h.t.Helper()
	if h.txCount > 0 {
		h.stub.MockTransactionEnd(h.stub.TxID)
	}
	h.txCount++
	h.stub.MockTransactionStart(fmt.Sprintf("tx-%03d", h.txCount))
	h.stub.TxTimestamp = timestamppb.New(fixedNow.Add(time.Duration(h.txCount) * time.Second))
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(h.stub)
	ctx.SetClientIdentity(identity)
	return ctx
}

func TestContractMetadataBuilds(t *testing.T) {
	t.Parallel()

	cc, err := contractapi.NewChaincode(NewLedgerContract(nil))
	if err != nil {
		t.Fatalf("new chaincode: %v", err)
	}
	if cc.Info.Title == "" {
		t.Fatal("expected chaincode info")
	}
}

func TestWhoAmIDerivesAddressFromIdentity(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got, err := h.contract.WhoAmI(h.as(alice))
	if err != nil {
		t.Fatalf("who am i: %v", err)
	}
	if got != addressOf(alice) {
		t.Fatalf("address = %s, want %s", got, addressOf(alice))
	}
	other, _ := h.contract.WhoAmI(h.as(carol))
	if other == got {
		t.Fatal("distinct identities share an address")
	}
}

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.contract.InitPlatform(h.as(nil))
	if err == nil || !strings.HasPrefix(err.Error(), "UNAUTHORIZED:") {
		t.Fatalf("err = %v, want UNAUTHORIZED prefix", err)
	}
}

func TestDepositRequiresIssuer(t *testing.T) {
	t.Parallel()

	h := newHarnessWith(t, WithIssuerMSPs(alice.mspID))
	_, err := h.contract.Deposit(h.as(carol), 1<<62)
	if err == nil || !strings.HasPrefix(err.Error(), "UNAUTHORIZED:") {
		t.Fatalf("err = %v, want UNAUTHORIZED prefix", err)
	}
	balance, err := h.contract.GetBalance(h.as(carol), addressOf(carol))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("carol balance = %d after rejected deposit, want 0", balance)
	}

	if got, err := h.contract.Deposit(h.as(alice), 700); err != nil || got != 700 {
		t.Fatalf("issuer msp deposit = %d, %v", got, err)
	}
	if got, err := h.contract.Deposit(h.as(dave), 300); err != nil || got != 300 {
		t.Fatalf("issuer attribute deposit = %d, %v", got, err)
	}

	strict := newHarnessWith(t)
	if _, err := strict.contract.Deposit(strict.as(alice), 1); err == nil || !strings.HasPrefix(err.Error(), "UNAUTHORIZED:") {
		t.Fatalf("err = %v, want UNAUTHORIZED without issuer msps", err)
	}
}

func TestDonationFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	platform, err := h.contract.InitPlatform(h.as(alice))
	if err != nil {
		t.Fatalf("init platform: %v", err)
	}
	if platform.FeeRateBps != 200 || platform.Admin != addressOf(alice) || platform.ID == "" {
		t.Fatalf("platform = %+v", platform)
	}
	if _, err := h.contract.RegisterCreator(h.as(bob), `{"display_name":"Bayu","social_links":["https://x.com/bayu"]}`); err != nil {
		t.Fatalf("register creator: %v", err)
	}
	if _, err := h.contract.Deposit(h.as(carol), 5_000_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	receipt, err := h.contract.DonateWithVoice(h.as(carol), platform.ID, addressOf(bob), 1_000_000, "semangat", true, "ipfs://voice")
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if receipt.Fee != 20_000 || receipt.Donation.Amount != 980_000 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if receipt.Donation.Donor != "" || receipt.Donation.MediaKind != "voice" {
		t.Fatalf("donation view = %+v", receipt.Donation)
	}

	creator, err := h.contract.GetCreatorInfo(h.as(carol), addressOf(bob))
	if err != nil {
		t.Fatalf("creator info: %v", err)
	}
	if creator.Treasury != 980_000 || creator.DonationCount != 1 || creator.LastDonationAt == "" {
		t.Fatalf("creator = %+v", creator)
	}
	feed, err := h.contract.ListDonations(h.as(carol), addressOf(bob), 10, "")
	if err != nil {
		t.Fatalf("list donations: %v", err)
	}
	if len(feed.Donations) != 1 || feed.Donations[0].ID != receipt.Donation.ID {
		t.Fatalf("feed = %+v", feed)
	}

	if _, err := h.contract.WithdrawAll(h.as(bob)); err != nil {
		t.Fatalf("withdraw all: %v", err)
	}
	balance, err := h.contract.GetBalance(h.as(bob), addressOf(bob))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 980_000 {
		t.Fatalf("creator balance = %d, want 980000", balance)
	}

	if _, err := h.contract.WithdrawPlatformEarnings(h.as(alice), platform.ID, 20_000); err != nil {
		t.Fatalf("withdraw platform earnings: %v", err)
	}
	stats, err := h.contract.GetPlatformStats(h.as(alice), platform.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Treasury != 0 || stats.TotalDonationCount != 1 || stats.TotalDonatedAmount != 1_000_000 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRejectedDonationReportsCodeAndKeepsState(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	platform, err := h.contract.InitPlatform(h.as(alice))
	if err != nil {
		t.Fatalf("init platform: %v", err)
	}
	if _, err := h.contract.RegisterCreator(h.as(bob), `{"display_name":"Bayu"}`); err != nil {
		t.Fatalf("register creator: %v", err)
	}
	if _, err := h.contract.Deposit(h.as(carol), 5_000_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	_, err = h.contract.Donate(h.as(carol), platform.ID, addressOf(bob), 999_999, "", false)
	if err == nil || !strings.HasPrefix(err.Error(), "INSUFFICIENT_AMOUNT:") {
		t.Fatalf("err = %v, want INSUFFICIENT_AMOUNT prefix", err)
	}
	_, err = h.contract.SetFeeRate(h.as(carol), platform.ID, 100)
	if err == nil || !strings.HasPrefix(err.Error(), "UNAUTHORIZED:") {
		t.Fatalf("err = %v, want UNAUTHORIZED prefix", err)
	}

	stats, err := h.contract.GetPlatformStats(h.as(carol), platform.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalDonationCount != 0 || stats.FeeRateBps != 200 {
		t.Fatalf("stats = %+v", stats)
	}
	balance, _ := h.contract.GetBalance(h.as(carol), addressOf(carol))
	if balance != 5_000_000 {
		t.Fatalf("donor balance = %d, want 5000000", balance)
	}
}

func TestUpdateProfileKeepsAbsentFields(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.contract.RegisterCreator(h.as(bob), `{"display_name":"Bayu","bio":"Gamelan"}`); err != nil {
		t.Fatalf("register creator: %v", err)
	}
	updated, err := h.contract.UpdateProfile(h.as(bob), `{"bio":"","avatar_url":"ipfs://avatar"}`)
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.DisplayName != "Bayu" || updated.Bio != "" || updated.AvatarURL != "ipfs://avatar" {
		t.Fatalf("profile = %+v", updated)
	}

	toggled, err := h.contract.ToggleActive(h.as(bob))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("expected inactive after toggle")
	}

	_, err = h.contract.UpdateProfile(h.as(carol), `{"bio":"x"}`)
	if err == nil || !strings.HasPrefix(err.Error(), "PROFILE_NOT_FOUND:") {
		t.Fatalf("err = %v, want PROFILE_NOT_FOUND prefix", err)
	}
	_, err = h.contract.UpdateProfile(h.as(bob), `{"bio":`)
	if err == nil || !strings.HasPrefix(err.Error(), "INVALID_INPUT:") {
		t.Fatalf("err = %v, want INVALID_INPUT prefix", err)
	}
}

func TestPropertyRegisterAndBuy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	input, err := json.Marshal(PropertyInput{
		Name:         "Rumah Ubud",
		Latitude:     "-8.50",
		Longitude:    "115.26",
		Address:      "Jl. Raya Ubud",
		Contact:      "+62 811",
		PropertyType: 0,
		Status:       0,
		Price:        3_000_000,
		Certificate:  0,
		Images:       []string{"ipfs://a"},
	})
	if err != nil {
		t.Fatalf("encode input: %v", err)
	}
	registered, err := h.contract.RegisterProperty(h.as(alice), string(input))
	if err != nil {
		t.Fatalf("register property: %v", err)
	}
	if registered.Owner != addressOf(alice) || registered.Type != "House" || registered.Status != "ForSale" {
		t.Fatalf("registered = %+v", registered)
	}

	if _, err := h.contract.Deposit(h.as(bob), 3_000_000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	_, err = h.contract.BuyProperty(h.as(bob), registered.ID, 2_999_999)
	if err == nil || !strings.HasPrefix(err.Error(), "INSUFFICIENT_PAYMENT:") {
		t.Fatalf("err = %v, want INSUFFICIENT_PAYMENT prefix", err)
	}
	bought, err := h.contract.BuyProperty(h.as(bob), registered.ID, 3_000_000)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if bought.Owner != addressOf(bob) {
		t.Fatalf("owner = %s, want %s", bought.Owner, addressOf(bob))
	}

	owned, err := h.contract.ListPropertiesByOwner(h.as(bob), addressOf(bob), 10, "")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(owned) != 1 || owned[0].ID != registered.ID {
		t.Fatalf("owned = %+v", owned)
	}
	previous, err := h.contract.ListPropertiesByOwner(h.as(bob), addressOf(alice), 10, "")
	if err != nil {
		t.Fatalf("list previous owner: %v", err)
	}
	if len(previous) != 0 {
		t.Fatalf("previous owner still lists %+v", previous)
	}
	if balance, _ := h.contract.GetBalance(h.as(alice), addressOf(alice)); balance != 3_000_000 {
		t.Fatalf("seller balance = %d, want 3000000", balance)
	}

	images, err := h.contract.GetPropertyImages(h.as(bob), registered.ID)
	if err != nil || len(images) != 1 {
		t.Fatalf("images = %v err=%v", images, err)
	}
	details, err := h.contract.GetPropertyDetails(h.as(bob), registered.ID)
	if err != nil || details.Certificate != "SHM" {
		t.Fatalf("details = %+v err=%v", details, err)
	}
	if _, err := h.contract.GetPropertyInfo(h.as(bob), "missing"); err == nil || !strings.HasPrefix(err.Error(), "NOT_FOUND:") {
		t.Fatalf("err = %v, want NOT_FOUND prefix", err)
	}
}

func TestRecordIDsFollowTransactionID(t *testing.T) {
	t.Parallel()

	first := newHarness(t)
	second := newHarness(t)
	a, err := first.contract.InitPlatform(first.as(alice))
	if err != nil {
		t.Fatalf("init first: %v", err)
	}
	b, err := second.contract.InitPlatform(second.as(alice))
	if err != nil {
		t.Fatalf("init second: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("platform ids differ across replicas: %s vs %s", a.ID, b.ID)
	}
}
