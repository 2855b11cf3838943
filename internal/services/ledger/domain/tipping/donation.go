package tipping

import (
	"time"
	"unicode/utf8"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
)

const (
	// MinDonation is the smallest accepted gross donation.
	MinDonation uint64 = 1_000_000
	// MaxMessageLength is measured in characters.
	MaxMessageLength = 280
	// MaxMediaURLLength is measured in bytes.
	MaxMediaURLLength = 500
)

// Donation is an immutable record of one accepted donation. Amount is net of
// the platform fee.
type Donation struct {
	ID         string
	PlatformID string
	Donor      account.Address
	Creator    account.Address
	Amount     uint64
	Message    string
	// Anonymous only affects display; Donor is always recorded.
	Anonymous bool
	Timestamp time.Time
	Media     Media
}

// DonationInfo is the public donation tuple.
type DonationInfo struct {
	ID        string
	Donor     string
	Creator   string
	Amount    uint64
	Message   string
	Anonymous bool
	Timestamp time.Time
}

func (d Donation) Info() DonationInfo {
	return DonationInfo{
		ID:        d.ID,
		Donor:     d.Donor.String(),
		Creator:   d.Creator.String(),
		Amount:    d.Amount,
		Message:   d.Message,
		Anonymous: d.Anonymous,
		Timestamp: d.Timestamp,
	}
}

// DonateInput is the donor-supplied part of a donation.
type DonateInput struct {
	Amount    uint64
	Message   string
	Anonymous bool
	Media     Media
}

// DonationOutcome carries every record a donation touches.
type DonationOutcome struct {
	Platform  Platform
	Profile   CreatorProfile
	Donation  Donation
	Fee       uint64
	Movements []transfer.Movement
	Events    []event.Event
}

// Donate splits in.Amount between the platform and the creator.
//
// Checks run in a fixed order and the first failure wins: minimum amount,
// active creator, message length, media URL length.
func Donate(platform Platform, profile CreatorProfile, donor account.Address, in DonateInput, donationID string, now time.Time) (DonationOutcome, error) {
	if !donor.Valid() {
		return DonationOutcome{}, account.ErrInvalidAddress
	}
	if in.Amount < MinDonation {
		return DonationOutcome{}, insufficientAmount(MinDonation)
	}
	if !profile.IsActive {
		return DonationOutcome{}, ErrCreatorInactive
	}
	if length := utf8.RuneCountInString(in.Message); length > MaxMessageLength {
		return DonationOutcome{}, messageTooLong(length)
	}
	if len(in.Media.URL()) > MaxMediaURLLength {
		return DonationOutcome{}, invalidInput("media url is too long", "media_url")
	}

	fee, net := SplitFee(in.Amount, platform.FeeRateBps)

	var ok bool
	updatedProfile := profile
	updatedProfile.SocialLinks = append([]string(nil), profile.SocialLinks...)
	if updatedProfile.Treasury, ok = addChecked(profile.Treasury, net); !ok {
		return DonationOutcome{}, overflow("treasury")
	}
	if updatedProfile.TotalReceived, ok = addChecked(profile.TotalReceived, net); !ok {
		return DonationOutcome{}, overflow("total_received")
	}
	if updatedProfile.DonationCount, ok = addChecked(profile.DonationCount, 1); !ok {
		return DonationOutcome{}, overflow("donation_count")
	}
	updatedPlatform := platform
	if updatedPlatform.Treasury, ok = addChecked(platform.Treasury, fee); !ok {
		return DonationOutcome{}, overflow("platform_treasury")
	}
	if updatedPlatform.TotalDonationCount, ok = addChecked(platform.TotalDonationCount, 1); !ok {
		return DonationOutcome{}, overflow("total_donation_count")
	}
	if updatedPlatform.TotalDonatedAmount, ok = addChecked(platform.TotalDonatedAmount, in.Amount); !ok {
		return DonationOutcome{}, overflow("total_donated_amount")
	}

	now = now.UTC()
	updatedProfile.LastDonationAt = now
	updatedProfile.UpdatedAt = now
	updatedPlatform.UpdatedAt = now

	donation := Donation{
		ID:         donationID,
		PlatformID: platform.ID,
		Donor:      donor,
		Creator:    profile.Creator,
		Amount:     net,
		Message:    in.Message,
		Anonymous:  in.Anonymous,
		Timestamp:  now,
		Media:      in.Media,
	}
	evt := event.New(event.TypeDonationReceived, donor.String(), event.EntityDonation, donationID, now, event.DonationReceivedPayload{
		DonationID: donationID,
		Creator:    profile.Creator.String(),
		Donor:      donor.String(),
		Amount:     net,
		Message:    in.Message,
		Anonymous:  in.Anonymous,
		Timestamp:  now,
		MediaKind:  string(in.Media.Kind()),
	})

	return DonationOutcome{
		Platform:  updatedPlatform,
		Profile:   updatedProfile,
		Donation:  donation,
		Fee:       fee,
		Movements: []transfer.Movement{transfer.Collect(donor, in.Amount)},
		Events:    []event.Event{evt},
	}, nil
}
