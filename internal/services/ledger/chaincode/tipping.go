package chaincode

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/service"
)

// InitPlatform creates a platform administered by the caller.
func (c *LedgerContract) InitPlatform(ctx contractapi.TransactionContextInterface) (*PlatformStats, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	platform, err := inv.svc.InitPlatform(background(), inv.caller)
	if err != nil {
		return nil, clientError(err)
	}
	stats := newPlatformStats(platform)
	return &stats, nil
}

// SetFeeRate changes the platform fee; only the platform admin may call it.
func (c *LedgerContract) SetFeeRate(ctx contractapi.TransactionContextInterface, platformID string, rateBps uint64) (*PlatformStats, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	platform, err := inv.svc.SetFeeRate(background(), inv.caller, platformID, rateBps)
	if err != nil {
		return nil, clientError(err)
	}
	stats := newPlatformStats(platform)
	return &stats, nil
}

// WithdrawPlatformEarnings pays amount from the platform treasury to the
// admin.
func (c *LedgerContract) WithdrawPlatformEarnings(ctx contractapi.TransactionContextInterface, platformID string, amount uint64) (*PlatformStats, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	platform, err := inv.svc.WithdrawPlatformEarnings(background(), inv.caller, platformID, amount)
	if err != nil {
		return nil, clientError(err)
	}
	stats := newPlatformStats(platform)
	return &stats, nil
}

func (c *LedgerContract) GetPlatformStats(ctx contractapi.TransactionContextInterface, platformID string) (*PlatformStats, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	platform, err := inv.svc.Platform(background(), platformID)
	if err != nil {
		return nil, clientError(err)
	}
	stats := newPlatformStats(platform)
	return &stats, nil
}

// RegisterCreator creates the caller's profile. profileJSON is a
// ProfileInput document.
func (c *LedgerContract) RegisterCreator(ctx contractapi.TransactionContextInterface, profileJSON string) (*CreatorInfo, error) {
	var in ProfileInput
	if err := decodeArg(profileJSON, &in); err != nil {
		return nil, err
	}
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	profile, err := inv.svc.RegisterCreator(background(), inv.caller, tipping.ProfileFields{
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		AvatarURL:   in.AvatarURL,
		SocialLinks: in.SocialLinks,
	})
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}

// UpdateProfile replaces the fields present in updateJSON, a ProfileUpdate
// document, on the caller's profile.
func (c *LedgerContract) UpdateProfile(ctx contractapi.TransactionContextInterface, updateJSON string) (*CreatorInfo, error) {
	var update ProfileUpdate
	if err := decodeArg(updateJSON, &update); err != nil {
		return nil, err
	}
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	profile, err := inv.svc.UpdateProfile(background(), inv.caller, inv.caller, update.patch())
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}

// ToggleActive flips whether the caller's profile accepts donations.
func (c *LedgerContract) ToggleActive(ctx contractapi.TransactionContextInterface) (*CreatorInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	profile, err := inv.svc.ToggleActive(background(), inv.caller, inv.caller)
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}

func (c *LedgerContract) GetCreatorInfo(ctx contractapi.TransactionContextInterface, creator string) (*CreatorInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	addr, err := parseAddress(creator)
	if err != nil {
		return nil, err
	}
	profile, err := inv.svc.Creator(background(), addr)
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}

func (c *LedgerContract) donate(ctx contractapi.TransactionContextInterface, platformID, creator string, amount uint64, message string, anonymous bool, media tipping.Media) (*DonationReceipt, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	addr, err := parseAddress(creator)
	if err != nil {
		return nil, err
	}
	outcome, err := inv.svc.DonateWithMedia(background(), inv.caller, service.DonationRequest{
		PlatformID: platformID,
		Creator:    addr,
		Amount:     amount,
		Message:    message,
		Anonymous:  anonymous,
	}, media)
	if err != nil {
		return nil, clientError(err)
	}
	return &DonationReceipt{Donation: newDonationInfo(outcome.Donation), Fee: outcome.Fee}, nil
}

// Donate sends amount from the caller to creator through platformID.
func (c *LedgerContract) Donate(ctx contractapi.TransactionContextInterface, platformID, creator string, amount uint64, message string, anonymous bool) (*DonationReceipt, error) {
	return c.donate(ctx, platformID, creator, amount, message, anonymous, tipping.NoMedia())
}

// DonateWithVoice is Donate with a voice note attached.
func (c *LedgerContract) DonateWithVoice(ctx contractapi.TransactionContextInterface, platformID, creator string, amount uint64, message string, anonymous bool, voiceURL string) (*DonationReceipt, error) {
	return c.donate(ctx, platformID, creator, amount, message, anonymous, tipping.Voice(voiceURL))
}

// DonateWithVideo is Donate with a video attached.
func (c *LedgerContract) DonateWithVideo(ctx contractapi.TransactionContextInterface, platformID, creator string, amount uint64, message string, anonymous bool, videoURL string) (*DonationReceipt, error) {
	return c.donate(ctx, platformID, creator, amount, message, anonymous, tipping.Video(videoURL))
}

func (c *LedgerContract) GetDonation(ctx contractapi.TransactionContextInterface, donationID string) (*DonationInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	donation, err := inv.svc.Donation(background(), donationID)
	if err != nil {
		return nil, clientError(err)
	}
	info := newDonationInfo(donation)
	return &info, nil
}

// ListDonations returns one page of donations to creator, newest first.
func (c *LedgerContract) ListDonations(ctx contractapi.TransactionContextInterface, creator string, pageSize int, pageToken string) (*DonationFeed, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	addr, err := parseAddress(creator)
	if err != nil {
		return nil, err
	}
	page, err := inv.svc.DonationsByCreator(background(), addr, pageSize, pageToken)
	if err != nil {
		return nil, clientError(err)
	}
	feed := &DonationFeed{Donations: make([]DonationInfo, 0, len(page.Donations)), NextPageToken: page.NextPageToken}
	for _, d := range page.Donations {
		feed.Donations = append(feed.Donations, newDonationInfo(d))
	}
	return feed, nil
}

// Withdraw pays amount from the caller's creator treasury to the caller.
func (c *LedgerContract) Withdraw(ctx contractapi.TransactionContextInterface, amount uint64) (*CreatorInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	profile, err := inv.svc.Withdraw(background(), inv.caller, inv.caller, amount)
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}

// WithdrawAll empties the caller's creator treasury.
func (c *LedgerContract) WithdrawAll(ctx contractapi.TransactionContextInterface) (*CreatorInfo, error) {
	inv, err := c.begin(ctx)
	if err != nil {
		return nil, clientError(err)
	}
	profile, err := inv.svc.WithdrawAll(background(), inv.caller, inv.caller)
	if err != nil {
		return nil, clientError(err)
	}
	info := newCreatorInfo(profile)
	return &info, nil
}
