package ledger

import (
	"time"

	"github.com/louisbranch/estateledger/internal/platform/money"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
)

type amountView struct {
	Units   uint64 `json:"units"`
	Display string `json:"display"`
}

func (c *cli) amountView(value uint64) amountView {
	return amountView{Units: value, Display: money.Format(value, int32(c.cfg.Decimals))}
}

func timeView(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type propertyView struct {
	ID     string     `json:"id"`
	Owner  string     `json:"owner"`
	Name   string     `json:"name"`
	Price  amountView `json:"price"`
	Type   string     `json:"type"`
	Status string     `json:"status"`
}

func (c *cli) propertyView(p listing.Property) propertyView {
	info := p.Info()
	return propertyView{
		ID:     info.ID,
		Owner:  info.Owner,
		Name:   info.Name,
		Price:  c.amountView(info.Price),
		Type:   info.Type.String(),
		Status: info.Status.String(),
	}
}

type platformView struct {
	ID                 string     `json:"id"`
	Admin              string     `json:"admin"`
	FeeRateBps         uint16     `json:"fee_rate_bps"`
	Treasury           amountView `json:"treasury"`
	TotalDonationCount uint64     `json:"total_donation_count"`
	TotalDonatedAmount amountView `json:"total_donated_amount"`
}

func (c *cli) platformView(p tipping.Platform) platformView {
	stats := p.Stats()
	return platformView{
		ID:                 p.ID,
		Admin:              stats.Admin,
		FeeRateBps:         stats.FeeRateBps,
		Treasury:           c.amountView(stats.Treasury),
		TotalDonationCount: stats.TotalDonationCount,
		TotalDonatedAmount: c.amountView(stats.TotalDonatedAmount),
	}
}

type creatorView struct {
	Creator        string     `json:"creator"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	SocialLinks    []string   `json:"social_links"`
	TotalReceived  amountView `json:"total_received"`
	DonationCount  uint64     `json:"donation_count"`
	IsActive       bool       `json:"is_active"`
	Treasury       amountView `json:"treasury"`
	CreatedAt      string     `json:"created_at"`
	LastDonationAt string     `json:"last_donation_at,omitempty"`
}

func (c *cli) creatorView(profile tipping.CreatorProfile) creatorView {
	links := profile.SocialLinks
	if links == nil {
		links = []string{}
	}
	return creatorView{
		Creator:        profile.Creator.String(),
		DisplayName:    profile.DisplayName,
		Bio:            profile.Bio,
		AvatarURL:      profile.AvatarURL,
		SocialLinks:    links,
		TotalReceived:  c.amountView(profile.TotalReceived),
		DonationCount:  profile.DonationCount,
		IsActive:       profile.IsActive,
		Treasury:       c.amountView(profile.Treasury),
		CreatedAt:      timeView(profile.CreatedAt),
		LastDonationAt: timeView(profile.LastDonationAt),
	}
}

type donationView struct {
	ID        string     `json:"id"`
	Platform  string     `json:"platform_id"`
	Donor     string     `json:"donor,omitempty"`
	Creator   string     `json:"creator"`
	Amount    amountView `json:"amount"`
	Message   string     `json:"message"`
	Anonymous bool       `json:"anonymous"`
	Timestamp string     `json:"timestamp"`
	MediaKind string     `json:"media_kind,omitempty"`
	MediaURL  string     `json:"media_url,omitempty"`
}

func (c *cli) donationView(d tipping.Donation) donationView {
	view := donationView{
		ID:        d.ID,
		Platform:  d.PlatformID,
		Donor:     d.Donor.String(),
		Creator:   d.Creator.String(),
		Amount:    c.amountView(d.Amount),
		Message:   d.Message,
		Anonymous: d.Anonymous,
		Timestamp: timeView(d.Timestamp),
		MediaKind: string(d.Media.Kind()),
		MediaURL:  d.Media.URL(),
	}
	if d.Anonymous {
		view.Donor = ""
	}
	return view
}

type eventView struct {
	Seq        uint64 `json:"seq"`
	Type       string `json:"type"`
	ActorID    string `json:"actor_id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Timestamp  string `json:"timestamp"`
	ChainHash  string `json:"chain_hash"`
	KeyID      string `json:"signature_key_id"`
}

func newEventView(evt event.Event) eventView {
	return eventView{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		ActorID:    evt.ActorID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Timestamp:  timeView(evt.Timestamp),
		ChainHash:  evt.ChainHash,
		KeyID:      evt.SignatureKeyID,
	}
}
