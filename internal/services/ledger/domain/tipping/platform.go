package tipping

import (
	"strconv"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
)

// Platform is the fee sink shared by every donation. Deployments create one;
// tests may create several.
type Platform struct {
	ID                 string
	Admin              account.Address
	FeeRateBps         uint16
	Treasury           uint64
	TotalDonationCount uint64
	// TotalDonatedAmount is gross volume, fees included.
	TotalDonatedAmount uint64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Stats is the public platform summary.
type Stats struct {
	TotalDonationCount uint64
	TotalDonatedAmount uint64
	FeeRateBps         uint16
	Treasury           uint64
	Admin              string
}

func (p Platform) Stats() Stats {
	return Stats{
		TotalDonationCount: p.TotalDonationCount,
		TotalDonatedAmount: p.TotalDonatedAmount,
		FeeRateBps:         p.FeeRateBps,
		Treasury:           p.Treasury,
		Admin:              p.Admin.String(),
	}
}

// InitPlatform creates a platform administered by admin at the default fee.
func InitPlatform(id string, admin account.Address, now time.Time) (Platform, event.Event, error) {
	if !admin.Valid() {
		return Platform{}, event.Event{}, account.ErrInvalidAddress
	}
	now = now.UTC()
	p := Platform{
		ID:         id,
		Admin:      admin,
		FeeRateBps: DefaultFeeRateBps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	evt := event.New(event.TypePlatformInitialized, admin.String(), event.EntityPlatform, id, now, event.PlatformInitializedPayload{
		PlatformID: id,
		Admin:      admin.String(),
		FeeRateBps: p.FeeRateBps,
	})
	return p, evt, nil
}

// SetFeeRate changes the fee applied to future donations.
func SetFeeRate(p Platform, caller account.Address, rateBps uint64, now time.Time) (Platform, event.Event, error) {
	if caller != p.Admin {
		return Platform{}, event.Event{}, ErrUnauthorized
	}
	if rateBps > uint64(MaxFeeRateBps) {
		return Platform{}, event.Event{}, invalidInput("fee rate exceeds "+strconv.Itoa(int(MaxFeeRateBps))+" bps", "fee_rate_bps")
	}
	now = now.UTC()
	previous := p.FeeRateBps
	p.FeeRateBps = uint16(rateBps)
	p.UpdatedAt = now
	evt := event.New(event.TypePlatformFeeRateChanged, caller.String(), event.EntityPlatform, p.ID, now, event.PlatformFeeRateChangedPayload{
		PlatformID:  p.ID,
		PreviousBps: previous,
		FeeRateBps:  p.FeeRateBps,
	})
	return p, evt, nil
}

// WithdrawPlatformEarnings pays amount from the platform treasury to the
// admin. A zero amount is a no-op.
func WithdrawPlatformEarnings(p Platform, caller account.Address, amount uint64, now time.Time) (Platform, []transfer.Movement, []event.Event, error) {
	if caller != p.Admin {
		return Platform{}, nil, nil, ErrUnauthorized
	}
	if p.Treasury < amount {
		return Platform{}, nil, nil, insufficientAmount(amount)
	}
	if amount == 0 {
		return p, nil, nil, nil
	}
	now = now.UTC()
	p.Treasury -= amount
	p.UpdatedAt = now
	evt := event.New(event.TypePlatformEarningsWithdrawn, caller.String(), event.EntityPlatform, p.ID, now, event.PlatformEarningsWithdrawnPayload{
		PlatformID: p.ID,
		Admin:      caller.String(),
		Amount:     amount,
		Remaining:  p.Treasury,
	})
	return p, []transfer.Movement{transfer.Pay(p.Admin, amount)}, []event.Event{evt}, nil
}
