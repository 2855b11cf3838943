package event

import "time"

// PropertyRegisteredPayload is the indexer view of a new property.
type PropertyRegisteredPayload struct {
	PropertyID string `json:"property_id"`
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	Price      uint64 `json:"price"`
}

// PropertySoldPayload records an ownership handoff. Paid may exceed Price;
// the previous owner receives Paid.
type PropertySoldPayload struct {
	PropertyID    string `json:"property_id"`
	PreviousOwner string `json:"previous_owner"`
	NewOwner      string `json:"new_owner"`
	Price         uint64 `json:"price"`
	Paid          uint64 `json:"paid"`
}

type PlatformInitializedPayload struct {
	PlatformID string `json:"platform_id"`
	Admin      string `json:"admin"`
	FeeRateBps uint16 `json:"fee_rate_bps"`
}

type PlatformFeeRateChangedPayload struct {
	PlatformID  string `json:"platform_id"`
	PreviousBps uint16 `json:"previous_bps"`
	FeeRateBps  uint16 `json:"fee_rate_bps"`
}

type PlatformEarningsWithdrawnPayload struct {
	PlatformID string `json:"platform_id"`
	Admin      string `json:"admin"`
	Amount     uint64 `json:"amount"`
	Remaining  uint64 `json:"remaining"`
}

// CreatorRegisteredPayload announces a new creator profile.
type CreatorRegisteredPayload struct {
	Creator     string `json:"creator"`
	DisplayName string `json:"display_name"`
}

// CreatorProfileUpdatedPayload lists the replaced display fields by name.
type CreatorProfileUpdatedPayload struct {
	Creator string   `json:"creator"`
	Fields  []string `json:"fields"`
}

// CreatorStatusChangedPayload carries the new active state.
type CreatorStatusChangedPayload struct {
	Creator   string    `json:"creator"`
	IsActive  bool      `json:"is_active"`
	ChangedAt time.Time `json:"changed_at"`
}

// DonationReceivedPayload is the live-feed notification. Amount is net of
// the platform fee.
type DonationReceivedPayload struct {
	DonationID string    `json:"donation_id"`
	Creator    string    `json:"creator"`
	Donor      string    `json:"donor"`
	Amount     uint64    `json:"amount"`
	Message    string    `json:"message"`
	Anonymous  bool      `json:"anonymous"`
	Timestamp  time.Time `json:"timestamp"`
	MediaKind  string    `json:"media_kind,omitempty"`
}

type CreatorWithdrawnPayload struct {
	Creator   string `json:"creator"`
	Amount    uint64 `json:"amount"`
	Remaining uint64 `json:"remaining"`
}

type WalletDepositedPayload struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}
