package chaincode

import (
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
)

// Views carry only JSON-native fields so the contract metadata stays
// describable. Timestamps are RFC 3339 strings, empty when unset.

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// PropertyInfo is the summary view of a listing.
type PropertyInfo struct {
	ID     string `json:"id"`
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Price  uint64 `json:"price"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

func newPropertyInfo(p listing.Property) PropertyInfo {
	info := p.Info()
	return PropertyInfo{
		ID:     info.ID,
		Owner:  info.Owner,
		Name:   info.Name,
		Price:  info.Price,
		Type:   info.Type.String(),
		Status: info.Status.String(),
	}
}

type PropertyLocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Address   string `json:"address"`
}

type PropertyDetails struct {
	BuildingArea    uint64 `json:"building_area"`
	LandArea        uint64 `json:"land_area"`
	Certificate     string `json:"certificate"`
	CertificateNote string `json:"certificate_note"`
	Document        string `json:"document"`
}

// PropertyInput is the JSON argument of RegisterProperty. Enum fields take
// the numeric codes of the registry.
type PropertyInput struct {
	Latitude        string   `json:"latitude"`
	Longitude       string   `json:"longitude"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Contact         string   `json:"contact"`
	PropertyType    int      `json:"property_type"`
	Status          int      `json:"status"`
	Price           uint64   `json:"price"`
	BuildingArea    uint64   `json:"building_area"`
	LandArea        uint64   `json:"land_area"`
	Certificate     int      `json:"certificate"`
	CertificateNote string   `json:"certificate_note"`
	Images          []string `json:"images"`
	Document        string   `json:"document"`
}

func (in PropertyInput) registerInput() listing.RegisterInput {
	return listing.RegisterInput{
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Name:            in.Name,
		Address:         in.Address,
		Contact:         in.Contact,
		TypeCode:        in.PropertyType,
		StatusCode:      in.Status,
		Price:           in.Price,
		BuildingArea:    in.BuildingArea,
		LandArea:        in.LandArea,
		CertificateCode: in.Certificate,
		CertificateNote: in.CertificateNote,
		Images:          in.Images,
		Document:        in.Document,
	}
}

// ProfileInput is the JSON argument of RegisterCreator.
type ProfileInput struct {
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	AvatarURL   string   `json:"avatar_url"`
	SocialLinks []string `json:"social_links"`
}

// ProfileUpdate is the JSON argument of UpdateProfile. Absent fields keep
// their current value; present fields replace it, including with an empty
// value.
type ProfileUpdate struct {
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	SocialLinks *[]string `json:"social_links"`
}

func (u ProfileUpdate) patch() tipping.ProfilePatch {
	return tipping.ProfilePatch{
		DisplayName: optional(u.DisplayName),
		Bio:         optional(u.Bio),
		AvatarURL:   optional(u.AvatarURL),
		SocialLinks: optional(u.SocialLinks),
	}
}

func optional[T any](value *T) tipping.Field[T] {
	if value == nil {
		return tipping.Keep[T]()
	}
	return tipping.Replace(*value)
}

// CreatorInfo is the public view of a creator profile.
type CreatorInfo struct {
	Creator        string   `json:"creator"`
	DisplayName    string   `json:"display_name"`
	Bio            string   `json:"bio"`
	AvatarURL      string   `json:"avatar_url"`
	SocialLinks    []string `json:"social_links"`
	TotalReceived  uint64   `json:"total_received"`
	DonationCount  uint64   `json:"donation_count"`
	IsActive       bool     `json:"is_active"`
	Treasury       uint64   `json:"treasury"`
	CreatedAt      string   `json:"created_at"`
	LastDonationAt string   `json:"last_donation_at"`
}

func newCreatorInfo(profile tipping.CreatorProfile) CreatorInfo {
	links := profile.SocialLinks
	if links == nil {
		links = []string{}
	}
	return CreatorInfo{
		Creator:        profile.Creator.String(),
		DisplayName:    profile.DisplayName,
		Bio:            profile.Bio,
		AvatarURL:      profile.AvatarURL,
		SocialLinks:    links,
		TotalReceived:  profile.TotalReceived,
		DonationCount:  profile.DonationCount,
		IsActive:       profile.IsActive,
		Treasury:       profile.Treasury,
		CreatedAt:      formatTime(profile.CreatedAt),
		LastDonationAt: formatTime(profile.LastDonationAt),
	}
}

// DonationInfo is the public view of a donation. Donor is empty for
// anonymous donations.
type DonationInfo struct {
	ID         string `json:"id"`
	PlatformID string `json:"platform_id"`
	Donor      string `json:"donor"`
	Creator    string `json:"creator"`
	Amount     uint64 `json:"amount"`
	Message    string `json:"message"`
	Anonymous  bool   `json:"anonymous"`
	Timestamp  string `json:"timestamp"`
	MediaKind  string `json:"media_kind"`
	MediaURL   string `json:"media_url"`
}

func newDonationInfo(d tipping.Donation) DonationInfo {
	info := DonationInfo{
		ID:         d.ID,
		PlatformID: d.PlatformID,
		Donor:      d.Donor.String(),
		Creator:    d.Creator.String(),
		Amount:     d.Amount,
		Message:    d.Message,
		Anonymous:  d.Anonymous,
		Timestamp:  formatTime(d.Timestamp),
		MediaKind:  string(d.Media.Kind()),
		MediaURL:   d.Media.URL(),
	}
	if d.Anonymous {
		info.Donor = ""
	}
	return info
}

// DonationReceipt reports the outcome of a donation.
type DonationReceipt struct {
	Donation DonationInfo `json:"donation"`
	Fee      uint64       `json:"fee"`
}

// DonationFeed is one page of a creator's donations, newest first.
type DonationFeed struct {
	Donations     []DonationInfo `json:"donations"`
	NextPageToken string         `json:"next_page_token"`
}

// PlatformStats is the public view of a platform.
type PlatformStats struct {
	ID                 string `json:"id"`
	Admin              string `json:"admin"`
	FeeRateBps         uint16 `json:"fee_rate_bps"`
	Treasury           uint64 `json:"treasury"`
	TotalDonationCount uint64 `json:"total_donation_count"`
	TotalDonatedAmount uint64 `json:"total_donated_amount"`
}

func newPlatformStats(p tipping.Platform) PlatformStats {
	stats := p.Stats()
	return PlatformStats{
		ID:                 p.ID,
		Admin:              stats.Admin,
		FeeRateBps:         stats.FeeRateBps,
		Treasury:           stats.Treasury,
		TotalDonationCount: stats.TotalDonationCount,
		TotalDonatedAmount: stats.TotalDonatedAmount,
	}
}
