package tipping

import (
	"strconv"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
)

// MaxSocialLinks bounds the social links on a profile.
const MaxSocialLinks = 3

// CreatorProfile is keyed by the creator address. Only the creator mutates it.
type CreatorProfile struct {
	Creator     account.Address
	DisplayName string
	Bio         string
	AvatarURL   string
	SocialLinks []string
	// TotalReceived is cumulative net income.
	TotalReceived uint64
	DonationCount uint64
	IsActive      bool
	// Treasury is the withdrawable balance. Deactivation does not freeze it.
	Treasury       uint64
	CreatedAt      time.Time
	LastDonationAt time.Time
	UpdatedAt      time.Time
}

// ProfileFields holds the display fields supplied at registration.
type ProfileFields struct {
	DisplayName string
	Bio         string
	AvatarURL   string
	SocialLinks []string
}

// ProfilePatch replaces display fields independently.
type ProfilePatch struct {
	DisplayName Field[string]
	Bio         Field[string]
	AvatarURL   Field[string]
	SocialLinks Field[[]string]
}

// CreatorInfo is the public profile tuple.
type CreatorInfo struct {
	Creator        string
	DisplayName    string
	Bio            string
	AvatarURL      string
	SocialLinks    []string
	TotalReceived  uint64
	DonationCount  uint64
	IsActive       bool
	Treasury       uint64
	CreatedAt      time.Time
	LastDonationAt time.Time
}

func (c CreatorProfile) Info() CreatorInfo {
	return CreatorInfo{
		Creator:        c.Creator.String(),
		DisplayName:    c.DisplayName,
		Bio:            c.Bio,
		AvatarURL:      c.AvatarURL,
		SocialLinks:    append([]string(nil), c.SocialLinks...),
		TotalReceived:  c.TotalReceived,
		DonationCount:  c.DonationCount,
		IsActive:       c.IsActive,
		Treasury:       c.Treasury,
		CreatedAt:      c.CreatedAt,
		LastDonationAt: c.LastDonationAt,
	}
}

// RegisterCreator creates an active profile for caller with zero balances.
// Uniqueness per address is enforced by the store.
func RegisterCreator(caller account.Address, fields ProfileFields, now time.Time) (CreatorProfile, event.Event, error) {
	if !caller.Valid() {
		return CreatorProfile{}, event.Event{}, account.ErrInvalidAddress
	}
	if err := validateSocialLinks(fields.SocialLinks); err != nil {
		return CreatorProfile{}, event.Event{}, err
	}
	now = now.UTC()
	profile := CreatorProfile{
		Creator:     caller,
		DisplayName: fields.DisplayName,
		Bio:         fields.Bio,
		AvatarURL:   fields.AvatarURL,
		SocialLinks: append([]string(nil), fields.SocialLinks...),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	evt := event.New(event.TypeCreatorRegistered, caller.String(), event.EntityCreator, caller.String(), now, event.CreatorRegisteredPayload{
		Creator:     caller.String(),
		DisplayName: profile.DisplayName,
	})
	return profile, evt, nil
}

// UpdateProfile applies patch to the display fields of profile.
func UpdateProfile(profile CreatorProfile, caller account.Address, patch ProfilePatch, now time.Time) (CreatorProfile, event.Event, error) {
	if caller != profile.Creator {
		return CreatorProfile{}, event.Event{}, ErrUnauthorized
	}
	if links, ok := patch.SocialLinks.Value(); ok {
		if err := validateSocialLinks(links); err != nil {
			return CreatorProfile{}, event.Event{}, err
		}
	}

	var fields []string
	if patch.DisplayName.IsSet() {
		fields = append(fields, "display_name")
	}
	if patch.Bio.IsSet() {
		fields = append(fields, "bio")
	}
	if patch.AvatarURL.IsSet() {
		fields = append(fields, "avatar_url")
	}
	if patch.SocialLinks.IsSet() {
		fields = append(fields, "social_links")
	}

	now = now.UTC()
	updated := profile
	updated.DisplayName = patch.DisplayName.Apply(profile.DisplayName)
	updated.Bio = patch.Bio.Apply(profile.Bio)
	updated.AvatarURL = patch.AvatarURL.Apply(profile.AvatarURL)
	updated.SocialLinks = append([]string(nil), patch.SocialLinks.Apply(profile.SocialLinks)...)
	updated.UpdatedAt = now

	evt := event.New(event.TypeCreatorProfileUpdated, caller.String(), event.EntityCreator, profile.Creator.String(), now, event.CreatorProfileUpdatedPayload{
		Creator: profile.Creator.String(),
		Fields:  fields,
	})
	return updated, evt, nil
}

// ToggleActive flips whether the creator accepts donations.
func ToggleActive(profile CreatorProfile, caller account.Address, now time.Time) (CreatorProfile, event.Event, error) {
	if caller != profile.Creator {
		return CreatorProfile{}, event.Event{}, ErrUnauthorized
	}
	now = now.UTC()
	updated := profile
	updated.SocialLinks = append([]string(nil), profile.SocialLinks...)
	updated.IsActive = !profile.IsActive
	updated.UpdatedAt = now
	evt := event.New(event.TypeCreatorStatusChanged, caller.String(), event.EntityCreator, profile.Creator.String(), now, event.CreatorStatusChangedPayload{
		Creator:   profile.Creator.String(),
		IsActive:  updated.IsActive,
		ChangedAt: now,
	})
	return updated, evt, nil
}

// Withdraw pays amount from the creator treasury to the creator. A zero
// amount is a no-op.
func Withdraw(profile CreatorProfile, caller account.Address, amount uint64, now time.Time) (CreatorProfile, []transfer.Movement, []event.Event, error) {
	if caller != profile.Creator {
		return CreatorProfile{}, nil, nil, ErrUnauthorized
	}
	if profile.Treasury < amount {
		return CreatorProfile{}, nil, nil, insufficientAmount(amount)
	}
	if amount == 0 {
		return profile, nil, nil, nil
	}
	now = now.UTC()
	updated := profile
	updated.SocialLinks = append([]string(nil), profile.SocialLinks...)
	updated.Treasury -= amount
	updated.UpdatedAt = now
	evt := event.New(event.TypeCreatorWithdrawn, caller.String(), event.EntityCreator, profile.Creator.String(), now, event.CreatorWithdrawnPayload{
		Creator:   profile.Creator.String(),
		Amount:    amount,
		Remaining: updated.Treasury,
	})
	return updated, []transfer.Movement{transfer.Pay(profile.Creator, amount)}, []event.Event{evt}, nil
}

// WithdrawAll drains the creator treasury. An empty treasury is a no-op.
func WithdrawAll(profile CreatorProfile, caller account.Address, now time.Time) (CreatorProfile, []transfer.Movement, []event.Event, error) {
	return Withdraw(profile, caller, profile.Treasury, now)
}

func validateSocialLinks(links []string) error {
	if len(links) > MaxSocialLinks {
		return invalidInput("at most "+strconv.Itoa(MaxSocialLinks)+" social links are allowed", "social_links")
	}
	return nil
}
