package event

import (
	"encoding/json"
	"strings"
	"time"
)

// Type identifies the type of a ledger event.
type Type string

// Listing registry events.
const (
	// TypePropertyRegistered records a new property and its initial owner.
	TypePropertyRegistered Type = "property.registered"
	// TypePropertySold records an ownership transfer.
	TypePropertySold Type = "property.sold"
)

// Platform events.
const (
	// TypePlatformInitialized records creation of a platform singleton.
	TypePlatformInitialized Type = "platform.initialized"
	// TypePlatformFeeRateChanged records an admin fee rate change.
	TypePlatformFeeRateChanged Type = "platform.fee_rate_changed"
	// TypePlatformEarningsWithdrawn records an admin treasury withdrawal.
	TypePlatformEarningsWithdrawn Type = "platform.earnings_withdrawn"
)

// Creator events.
const (
	// TypeCreatorRegistered records a creator self-registration.
	TypeCreatorRegistered Type = "creator.registered"
	// TypeCreatorProfileUpdated records display field replacements.
	TypeCreatorProfileUpdated Type = "creator.profile_updated"
	// TypeCreatorStatusChanged records an active flag flip.
	TypeCreatorStatusChanged Type = "creator.status_changed"
	// TypeDonationReceived records one accepted donation.
	TypeDonationReceived Type = "creator.donation_received"
	// TypeCreatorWithdrawn records a creator balance withdrawal.
	TypeCreatorWithdrawn Type = "creator.withdrawn"
)

// Wallet events.
const (
	// TypeWalletDeposited records funds entering the ledger from outside.
	TypeWalletDeposited Type = "wallet.deposited"
)

// Entity types carried by events.
const (
	EntityProperty = "property"
	EntityPlatform = "platform"
	EntityCreator  = "creator"
	EntityDonation = "donation"
	EntityWallet   = "wallet"
)

// Event is one immutable entry in the ledger journal.
type Event struct {
	// Seq is the journal position (starts at 1). Assigned by storage on append.
	Seq uint64
	// Hash is the content hash of the event. Assigned by storage on append.
	Hash string
	// PrevHash is the previous event's chain hash (empty for the first event).
	PrevHash string
	// ChainHash links this event to its predecessor.
	ChainHash string
	// SignatureKeyID identifies the HMAC key used to sign the chain hash.
	SignatureKeyID string
	// Signature is the HMAC signature of the chain hash.
	Signature string
	// Timestamp is when the event occurred, supplied by the caller's clock.
	Timestamp time.Time
	Type      Type
	// ActorID is the address that triggered the event.
	ActorID    string
	EntityType string
	EntityID   string
	// PayloadJSON holds the type-specific payload.
	PayloadJSON []byte
}

// New builds an unsequenced event with a JSON payload.
func New(typ Type, actorID, entityType, entityID string, at time.Time, payload any) Event {
	payloadJSON, _ := json.Marshal(payload)
	return Event{
		Timestamp:   at.UTC(),
		Type:        typ,
		ActorID:     actorID,
		EntityType:  entityType,
		EntityID:    entityID,
		PayloadJSON: payloadJSON,
	}
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g. "property", "creator").
func (t Type) Domain() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t[:i])
	}
	return string(t)
}

// IsNotification reports whether indexers subscribe to the event type.
func (t Type) IsNotification() bool {
	switch t {
	case TypePropertyRegistered,
		TypePropertySold,
		TypeCreatorRegistered,
		TypeCreatorStatusChanged,
		TypeDonationReceived:
		return true
	default:
		return false
	}
}

// Decode unmarshals the event payload into T.
func Decode[T any](evt Event) (T, error) {
	var payload T
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}
