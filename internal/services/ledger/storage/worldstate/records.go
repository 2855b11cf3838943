package worldstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// Timestamps are stored as Unix milliseconds so every endorsing peer
// produces byte-identical state.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

type propertyRecord struct {
	ID              string   `json:"id"`
	Owner           string   `json:"owner"`
	Latitude        string   `json:"latitude"`
	Longitude       string   `json:"longitude"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Contact         string   `json:"contact"`
	Type            int      `json:"property_type"`
	Status          int      `json:"status"`
	Price           uint64   `json:"price"`
	BuildingArea    uint64   `json:"building_area"`
	LandArea        uint64   `json:"land_area"`
	Certificate     int      `json:"certificate"`
	CertificateNote string   `json:"certificate_note"`
	Images          []string `json:"images"`
	Document        string   `json:"document"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

func newPropertyRecord(p listing.Property) propertyRecord {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return propertyRecord{
		ID:              p.ID,
		Owner:           p.Owner.String(),
		Latitude:        p.Latitude,
		Longitude:       p.Longitude,
		Name:            p.Name,
		Address:         p.Address,
		Contact:         p.Contact,
		Type:            int(p.Type),
		Status:          int(p.Status),
		Price:           p.Price,
		BuildingArea:    p.BuildingArea,
		LandArea:        p.LandArea,
		Certificate:     int(p.Certificate),
		CertificateNote: p.CertificateNote,
		Images:          images,
		Document:        p.Document,
		CreatedAt:       toMillis(p.CreatedAt),
		UpdatedAt:       toMillis(p.UpdatedAt),
	}
}

func (r propertyRecord) property() (listing.Property, error) {
	p := listing.Property{
		ID:              r.ID,
		Owner:           account.Address(r.Owner),
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Name:            r.Name,
		Address:         r.Address,
		Contact:         r.Contact,
		Price:           r.Price,
		BuildingArea:    r.BuildingArea,
		LandArea:        r.LandArea,
		CertificateNote: r.CertificateNote,
		Images:          r.Images,
		Document:        r.Document,
		CreatedAt:       fromMillis(r.CreatedAt),
		UpdatedAt:       fromMillis(r.UpdatedAt),
	}
	var err error
	if p.Type, err = listing.ParsePropertyType(r.Type); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", r.ID, err)
	}
	if p.Status, err = listing.ParsePropertyStatus(r.Status); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", r.ID, err)
	}
	if p.Certificate, err = listing.ParseCertificate(r.Certificate); err != nil {
		return listing.Property{}, fmt.Errorf("stored property %s: %w", r.ID, err)
	}
	return p, nil
}

type platformRecord struct {
	ID                 string `json:"id"`
	Admin              string `json:"admin"`
	FeeRateBps         uint16 `json:"fee_rate_bps"`
	Treasury           uint64 `json:"treasury"`
	TotalDonationCount uint64 `json:"total_donation_count"`
	TotalDonatedAmount uint64 `json:"total_donated_amount"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}

func newPlatformRecord(p tipping.Platform) platformRecord {
	return platformRecord{
		ID:                 p.ID,
		Admin:              p.Admin.String(),
		FeeRateBps:         p.FeeRateBps,
		Treasury:           p.Treasury,
		TotalDonationCount: p.TotalDonationCount,
		TotalDonatedAmount: p.TotalDonatedAmount,
		CreatedAt:          toMillis(p.CreatedAt),
		UpdatedAt:          toMillis(p.UpdatedAt),
	}
}

func (r platformRecord) platform() tipping.Platform {
	return tipping.Platform{
		ID:                 r.ID,
		Admin:              account.Address(r.Admin),
		FeeRateBps:         r.FeeRateBps,
		Treasury:           r.Treasury,
		TotalDonationCount: r.TotalDonationCount,
		TotalDonatedAmount: r.TotalDonatedAmount,
		CreatedAt:          fromMillis(r.CreatedAt),
		UpdatedAt:          fromMillis(r.UpdatedAt),
	}
}

type creatorRecord struct {
	Creator        string   `json:"creator"`
	DisplayName    string   `json:"display_name"`
	Bio            string   `json:"bio"`
	AvatarURL      string   `json:"avatar_url"`
	SocialLinks    []string `json:"social_links"`
	TotalReceived  uint64   `json:"total_received"`
	DonationCount  uint64   `json:"donation_count"`
	IsActive       bool     `json:"is_active"`
	Treasury       uint64   `json:"treasury"`
	CreatedAt      int64    `json:"created_at"`
	LastDonationAt int64    `json:"last_donation_at"`
	UpdatedAt      int64    `json:"updated_at"`
}

func newCreatorRecord(profile tipping.CreatorProfile) creatorRecord {
	return creatorRecord{
		Creator:        profile.Creator.String(),
		DisplayName:    profile.DisplayName,
		Bio:            profile.Bio,
		AvatarURL:      profile.AvatarURL,
		SocialLinks:    profile.SocialLinks,
		TotalReceived:  profile.TotalReceived,
		DonationCount:  profile.DonationCount,
		IsActive:       profile.IsActive,
		Treasury:       profile.Treasury,
		CreatedAt:      toMillis(profile.CreatedAt),
		LastDonationAt: toMillis(profile.LastDonationAt),
		UpdatedAt:      toMillis(profile.UpdatedAt),
	}
}

func (r creatorRecord) profile() tipping.CreatorProfile {
	links := r.SocialLinks
	if len(links) == 0 {
		links = nil
	}
	return tipping.CreatorProfile{
		Creator:        account.Address(r.Creator),
		DisplayName:    r.DisplayName,
		Bio:            r.Bio,
		AvatarURL:      r.AvatarURL,
		SocialLinks:    links,
		TotalReceived:  r.TotalReceived,
		DonationCount:  r.DonationCount,
		IsActive:       r.IsActive,
		Treasury:       r.Treasury,
		CreatedAt:      fromMillis(r.CreatedAt),
		LastDonationAt: fromMillis(r.LastDonationAt),
		UpdatedAt:      fromMillis(r.UpdatedAt),
	}
}

type donationRecord struct {
	Seq        uint64 `json:"seq"`
	ID         string `json:"id"`
	PlatformID string `json:"platform_id"`
	Donor      string `json:"donor"`
	Creator    string `json:"creator"`
	Amount     uint64 `json:"amount"`
	Message    string `json:"message"`
	Anonymous  bool   `json:"anonymous"`
	MediaKind  string `json:"media_kind"`
	MediaURL   string `json:"media_url"`
	CreatedAt  int64  `json:"created_at"`
}

func (r donationRecord) donation() (tipping.Donation, error) {
	media, err := tipping.ParseMedia(r.MediaKind, r.MediaURL)
	if err != nil {
		return tipping.Donation{}, fmt.Errorf("stored donation %s: %w", r.ID, err)
	}
	return tipping.Donation{
		ID:         r.ID,
		PlatformID: r.PlatformID,
		Donor:      account.Address(r.Donor),
		Creator:    account.Address(r.Creator),
		Amount:     r.Amount,
		Message:    r.Message,
		Anonymous:  r.Anonymous,
		Timestamp:  fromMillis(r.CreatedAt),
		Media:      media,
	}, nil
}

type counterRecord struct {
	Value uint64 `json:"value"`
}

type walletRecord struct {
	Balance   uint64 `json:"balance"`
	UpdatedAt int64  `json:"updated_at"`
}

// GetProperty returns one property by id.
func (r reader) GetProperty(ctx context.Context, id string) (listing.Property, error) {
	if err := ctx.Err(); err != nil {
		return listing.Property{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return listing.Property{}, fmt.Errorf("property id is required")
	}
	key, err := r.key(keyProperty, id)
	if err != nil {
		return listing.Property{}, err
	}
	var rec propertyRecord
	if err := r.load(key, &rec); err != nil {
		return listing.Property{}, err
	}
	return rec.property()
}

// ListPropertiesByOwner returns one page of properties held by owner,
// ordered by id. The page token is the last id of the previous page.
func (r reader) ListPropertiesByOwner(ctx context.Context, owner account.Address, pageSize int, pageToken string) (storage.PropertyPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.PropertyPage{}, err
	}
	if pageSize <= 0 {
		return storage.PropertyPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	iter, err := r.stub.GetStateByPartialCompositeKey(keyOwnerProperty, []string{owner.String()})
	if err != nil {
		return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
	}
	defer iter.Close()

	page := storage.PropertyPage{Properties: make([]listing.Property, 0, pageSize)}
	for iter.HasNext() {
		entry, err := iter.Next()
		if err != nil {
			return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
		}
		id := string(entry.Value)
		if id <= pageToken {
			continue
		}
		if len(page.Properties) == pageSize {
			page.NextPageToken = page.Properties[pageSize-1].ID
			break
		}
		p, err := r.GetProperty(ctx, id)
		if err != nil {
			return storage.PropertyPage{}, fmt.Errorf("list properties: %w", err)
		}
		page.Properties = append(page.Properties, p)
	}
	return page, nil
}

// GetPlatform returns one platform by id.
func (r reader) GetPlatform(ctx context.Context, id string) (tipping.Platform, error) {
	if err := ctx.Err(); err != nil {
		return tipping.Platform{}, err
	}
	key, err := r.key(keyPlatform, strings.TrimSpace(id))
	if err != nil {
		return tipping.Platform{}, err
	}
	var rec platformRecord
	if err := r.load(key, &rec); err != nil {
		return tipping.Platform{}, err
	}
	return rec.platform(), nil
}

// GetCreator returns the profile registered at creator.
func (r reader) GetCreator(ctx context.Context, creator account.Address) (tipping.CreatorProfile, error) {
	if err := ctx.Err(); err != nil {
		return tipping.CreatorProfile{}, err
	}
	key, err := r.key(keyCreator, creator.String())
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	var rec creatorRecord
	if err := r.load(key, &rec); err != nil {
		return tipping.CreatorProfile{}, err
	}
	return rec.profile(), nil
}

// GetDonation returns one donation by id.
func (r reader) GetDonation(ctx context.Context, id string) (tipping.Donation, error) {
	if err := ctx.Err(); err != nil {
		return tipping.Donation{}, err
	}
	key, err := r.key(keyDonation, strings.TrimSpace(id))
	if err != nil {
		return tipping.Donation{}, err
	}
	var rec donationRecord
	if err := r.load(key, &rec); err != nil {
		return tipping.Donation{}, err
	}
	return rec.donation()
}

// ListDonationsByCreator returns one page of donations to creator, newest
// first. The page token is the sequence of the last donation returned.
func (r reader) ListDonationsByCreator(ctx context.Context, creator account.Address, pageSize int, pageToken string) (storage.DonationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.DonationPage{}, err
	}
	if pageSize <= 0 {
		return storage.DonationPage{}, fmt.Errorf("page size must be greater than zero")
	}
	var before uint64
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		parsed, err := strconv.ParseUint(pageToken, 10, 64)
		if err != nil || parsed == 0 {
			return storage.DonationPage{}, fmt.Errorf("%w %q", storage.ErrInvalidPageToken, pageToken)
		}
		before = parsed
	}

	iter, err := r.stub.GetStateByPartialCompositeKey(keyCreatorFeed, []string{creator.String()})
	if err != nil {
		return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
	}
	defer iter.Close()

	// Feed keys sort oldest first; collect the ids then walk backwards.
	var ids []string
	for iter.HasNext() {
		entry, err := iter.Next()
		if err != nil {
			return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
		}
		ids = append(ids, string(entry.Value))
	}

	page := storage.DonationPage{Donations: make([]tipping.Donation, 0, pageSize)}
	var lastSeq uint64
	for i := len(ids) - 1; i >= 0; i-- {
		key, err := r.key(keyDonation, ids[i])
		if err != nil {
			return storage.DonationPage{}, err
		}
		var rec donationRecord
		if err := r.load(key, &rec); err != nil {
			return storage.DonationPage{}, fmt.Errorf("list donations: %w", err)
		}
		if before != 0 && rec.Seq >= before {
			continue
		}
		if len(page.Donations) == pageSize {
			page.NextPageToken = strconv.FormatUint(lastSeq, 10)
			break
		}
		d, err := rec.donation()
		if err != nil {
			return storage.DonationPage{}, err
		}
		page.Donations = append(page.Donations, d)
		lastSeq = rec.Seq
	}
	return page, nil
}

// Balance returns the wallet balance of addr; unknown wallets hold zero.
func (r reader) Balance(ctx context.Context, addr account.Address) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	key, err := r.key(keyWallet, addr.String())
	if err != nil {
		return 0, err
	}
	var rec walletRecord
	if err := r.load(key, &rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.Balance, nil
}

// CreateProperty stores one property and its owner index entry.
func (t *txStore) CreateProperty(ctx context.Context, p listing.Property) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("property id is required")
	}
	key, err := t.key(keyProperty, p.ID)
	if err != nil {
		return err
	}
	if err := t.create(key, newPropertyRecord(p)); err != nil {
		return err
	}
	return t.indexOwner(p.Owner, p.ID)
}

// UpdateProperty rewrites the owner of one property and moves its index
// entry.
func (t *txStore) UpdateProperty(ctx context.Context, p listing.Property) error {
	current, err := t.GetProperty(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.Owner != p.Owner {
		staleKey, err := t.key(keyOwnerProperty, current.Owner.String(), p.ID)
		if err != nil {
			return err
		}
		t.del(staleKey)
	}
	current.Owner = p.Owner
	current.UpdatedAt = p.UpdatedAt
	key, err := t.key(keyProperty, p.ID)
	if err != nil {
		return err
	}
	if err := t.update(key, newPropertyRecord(current)); err != nil {
		return err
	}
	return t.indexOwner(p.Owner, p.ID)
}

// indexOwner adds the owner~property entry.
func (t *txStore) indexOwner(owner account.Address, id string) error {
	key, err := t.key(keyOwnerProperty, owner.String(), id)
	if err != nil {
		return err
	}
	t.put(key, []byte(id))
	return nil
}

// CreatePlatform stores one platform.
func (t *txStore) CreatePlatform(_ context.Context, p tipping.Platform) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("platform id is required")
	}
	key, err := t.key(keyPlatform, p.ID)
	if err != nil {
		return err
	}
	return t.create(key, newPlatformRecord(p))
}

// UpdatePlatform rewrites one platform.
func (t *txStore) UpdatePlatform(_ context.Context, p tipping.Platform) error {
	key, err := t.key(keyPlatform, p.ID)
	if err != nil {
		return err
	}
	return t.update(key, newPlatformRecord(p))
}

// CreateCreator stores one profile; a second profile at the same address
// fails with storage.ErrAlreadyExists.
func (t *txStore) CreateCreator(_ context.Context, profile tipping.CreatorProfile) error {
	key, err := t.key(keyCreator, profile.Creator.String())
	if err != nil {
		return err
	}
	return t.create(key, newCreatorRecord(profile))
}

// UpdateCreator rewrites one profile.
func (t *txStore) UpdateCreator(_ context.Context, profile tipping.CreatorProfile) error {
	key, err := t.key(keyCreator, profile.Creator.String())
	if err != nil {
		return err
	}
	return t.update(key, newCreatorRecord(profile))
}

// CreateDonation stores one immutable donation and appends it to the
// creator's feed.
func (t *txStore) CreateDonation(_ context.Context, d tipping.Donation) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("donation id is required")
	}
	seq, err := t.nextCounter("donation_seq", d.Creator.String())
	if err != nil {
		return err
	}
	rec := donationRecord{
		Seq:        seq,
		ID:         d.ID,
		PlatformID: d.PlatformID,
		Donor:      d.Donor.String(),
		Creator:    d.Creator.String(),
		Amount:     d.Amount,
		Message:    d.Message,
		Anonymous:  d.Anonymous,
		MediaKind:  string(d.Media.Kind()),
		MediaURL:   d.Media.URL(),
		CreatedAt:  toMillis(d.Timestamp),
	}
	key, err := t.key(keyDonation, d.ID)
	if err != nil {
		return err
	}
	if err := t.create(key, rec); err != nil {
		return err
	}
	feedKey, err := t.key(keyCreatorFeed, d.Creator.String(), fmt.Sprintf("%020d", seq), d.ID)
	if err != nil {
		return err
	}
	t.put(feedKey, []byte(d.ID))
	return nil
}

// nextCounter increments the named counter under the given scope.
func (t *txStore) nextCounter(name string, scope ...string) (uint64, error) {
	key, err := t.key(keyMeta, append([]string{name}, scope...)...)
	if err != nil {
		return 0, err
	}
	var rec counterRecord
	if err := t.load(key, &rec); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}
	rec.Value++
	if err := t.putJSON(key, rec); err != nil {
		return 0, err
	}
	return rec.Value, nil
}

// Collect debits amount from the wallet at from.
func (t *txStore) Collect(ctx context.Context, from account.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return storage.ErrInsufficientFunds
	}
	return t.setBalance(from, balance-amount)
}

// Pay credits amount to the wallet at to.
func (t *txStore) Pay(ctx context.Context, to account.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	next := balance + amount
	if next < balance {
		return apperrors.WithMetadata(apperrors.CodeArithmeticOverflow, "wallet balance overflow", map[string]string{"Field": "balance"})
	}
	return t.setBalance(to, next)
}

func (t *txStore) setBalance(addr account.Address, balance uint64) error {
	key, err := t.key(keyWallet, addr.String())
	if err != nil {
		return err
	}
	return t.putJSON(key, walletRecord{Balance: balance, UpdatedAt: toMillis(t.store.now())})
}
