package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/tipping"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// DonationRequest identifies the platform and creator of a donation along
// with the donor-supplied fields.
type DonationRequest struct {
	PlatformID string
	Creator    account.Address
	Amount     uint64
	Message    string
	Anonymous  bool
}

// InitPlatform creates a platform administered by caller.
func (s *Service) InitPlatform(ctx context.Context, caller account.Address) (platform tipping.Platform, err error) {
	ctx, span := s.startSpan(ctx, "init_platform", attribute.String("ledger.caller", caller.String()))
	defer func() { endSpan(span, "init_platform", err) }()
	if err := s.ready(); err != nil {
		return tipping.Platform{}, err
	}

	platformID, err := s.newID()
	if err != nil {
		return tipping.Platform{}, err
	}
	platform, evt, err := tipping.InitPlatform(platformID, caller, s.nowUTC())
	if err != nil {
		return tipping.Platform{}, err
	}
	span.SetAttributes(attribute.String("ledger.platform_id", platformID))

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreatePlatform(ctx, platform); err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		_, err := tx.AppendEvents(ctx, []event.Event{evt})
		return err
	})
	if err != nil {
		return tipping.Platform{}, err
	}
	return platform, nil
}

// SetFeeRate changes the platform fee for future donations.
func (s *Service) SetFeeRate(ctx context.Context, caller account.Address, platformID string, rateBps uint64) (platform tipping.Platform, err error) {
	ctx, span := s.startSpan(ctx, "set_fee_rate",
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.platform_id", platformID),
		attribute.Int64("ledger.fee_rate_bps", int64(rateBps)),
	)
	defer func() { endSpan(span, "set_fee_rate", err) }()
	if err := s.ready(); err != nil {
		return tipping.Platform{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetPlatform(ctx, platformID)
		if err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		updated, evt, err := tipping.SetFeeRate(current, caller, rateBps, s.nowUTC())
		if err != nil {
			return err
		}
		if err := tx.UpdatePlatform(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		if _, err := tx.AppendEvents(ctx, []event.Event{evt}); err != nil {
			return err
		}
		platform = updated
		return nil
	})
	if err != nil {
		return tipping.Platform{}, err
	}
	return platform, nil
}

// WithdrawPlatformEarnings pays amount of collected fees to the admin.
func (s *Service) WithdrawPlatformEarnings(ctx context.Context, caller account.Address, platformID string, amount uint64) (platform tipping.Platform, err error) {
	ctx, span := s.startSpan(ctx, "withdraw_platform_earnings",
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.platform_id", platformID),
	)
	defer func() { endSpan(span, "withdraw_platform_earnings", err) }()
	if err := s.ready(); err != nil {
		return tipping.Platform{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetPlatform(ctx, platformID)
		if err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		updated, movements, events, err := tipping.WithdrawPlatformEarnings(current, caller, amount, s.nowUTC())
		if err != nil {
			return err
		}
		platform = updated
		if len(events) == 0 {
			return nil
		}
		if err := applyMovements(ctx, tx, movements); err != nil {
			return err
		}
		if err := tx.UpdatePlatform(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		_, err = tx.AppendEvents(ctx, events)
		return err
	})
	if err != nil {
		return tipping.Platform{}, err
	}
	return platform, nil
}

// RegisterCreator creates the caller's creator profile. An address holds at
// most one profile; a second registration leaves the first untouched.
func (s *Service) RegisterCreator(ctx context.Context, caller account.Address, fields tipping.ProfileFields) (profile tipping.CreatorProfile, err error) {
	ctx, span := s.startSpan(ctx, "register_creator", attribute.String("ledger.creator", caller.String()))
	defer func() { endSpan(span, "register_creator", err) }()
	if err := s.ready(); err != nil {
		return tipping.CreatorProfile{}, err
	}

	profile, evt, err := tipping.RegisterCreator(caller, fields, s.nowUTC())
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateCreator(ctx, profile); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return apperrors.Wrap(apperrors.CodeCreatorAlreadyRegistered, "creator already registered", err)
			}
			return storageError(err, apperrors.CodeNotFound, "creator")
		}
		_, err := tx.AppendEvents(ctx, []event.Event{evt})
		return err
	})
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	return profile, nil
}

// UpdateProfile applies patch to the profile at creator on behalf of caller.
func (s *Service) UpdateProfile(ctx context.Context, caller, creator account.Address, patch tipping.ProfilePatch) (profile tipping.CreatorProfile, err error) {
	ctx, span := s.startSpan(ctx, "update_profile",
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.creator", creator.String()),
	)
	defer func() { endSpan(span, "update_profile", err) }()
	if err := s.ready(); err != nil {
		return tipping.CreatorProfile{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetCreator(ctx, creator)
		if err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		updated, evt, err := tipping.UpdateProfile(current, caller, patch, s.nowUTC())
		if err != nil {
			return err
		}
		if err := tx.UpdateCreator(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		if _, err := tx.AppendEvents(ctx, []event.Event{evt}); err != nil {
			return err
		}
		profile = updated
		return nil
	})
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	return profile, nil
}

// ToggleActive flips whether the creator at creator accepts donations.
func (s *Service) ToggleActive(ctx context.Context, caller, creator account.Address) (profile tipping.CreatorProfile, err error) {
	ctx, span := s.startSpan(ctx, "toggle_active",
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.creator", creator.String()),
	)
	defer func() { endSpan(span, "toggle_active", err) }()
	if err := s.ready(); err != nil {
		return tipping.CreatorProfile{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetCreator(ctx, creator)
		if err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		updated, evt, err := tipping.ToggleActive(current, caller, s.nowUTC())
		if err != nil {
			return err
		}
		if err := tx.UpdateCreator(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		if _, err := tx.AppendEvents(ctx, []event.Event{evt}); err != nil {
			return err
		}
		profile = updated
		return nil
	})
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	return profile, nil
}

// Donate sends a text donation from donor to a creator.
func (s *Service) Donate(ctx context.Context, donor account.Address, req DonationRequest) (tipping.DonationOutcome, error) {
	return s.DonateWithMedia(ctx, donor, req, tipping.NoMedia())
}

// DonateWithVoice sends a donation carrying a voice message reference.
func (s *Service) DonateWithVoice(ctx context.Context, donor account.Address, req DonationRequest, voiceURL string) (tipping.DonationOutcome, error) {
	return s.DonateWithMedia(ctx, donor, req, tipping.Voice(voiceURL))
}

// DonateWithVideo sends a donation carrying a video message reference.
func (s *Service) DonateWithVideo(ctx context.Context, donor account.Address, req DonationRequest, videoURL string) (tipping.DonationOutcome, error) {
	return s.DonateWithMedia(ctx, donor, req, tipping.Video(videoURL))
}

// DonateWithMedia is the shared donation procedure. The donor pays the gross
// amount; the platform keeps the fee and the creator treasury receives the
// rest.
func (s *Service) DonateWithMedia(ctx context.Context, donor account.Address, req DonationRequest, media tipping.Media) (outcome tipping.DonationOutcome, err error) {
	ctx, span := s.startSpan(ctx, "donate",
		attribute.String("ledger.caller", donor.String()),
		attribute.String("ledger.creator", req.Creator.String()),
		attribute.String("ledger.platform_id", req.PlatformID),
		attribute.String("ledger.media_kind", string(media.Kind())),
	)
	defer func() { endSpan(span, "donate", err) }()
	if err := s.ready(); err != nil {
		return tipping.DonationOutcome{}, err
	}

	donationID, err := s.newID()
	if err != nil {
		return tipping.DonationOutcome{}, err
	}
	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		platform, err := tx.GetPlatform(ctx, req.PlatformID)
		if err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		profile, err := tx.GetCreator(ctx, req.Creator)
		if err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		result, err := tipping.Donate(platform, profile, donor, tipping.DonateInput{
			Amount:    req.Amount,
			Message:   req.Message,
			Anonymous: req.Anonymous,
			Media:     media,
		}, donationID, s.nowUTC())
		if err != nil {
			return err
		}
		if err := applyMovements(ctx, tx, result.Movements); err != nil {
			return err
		}
		if err := tx.UpdatePlatform(ctx, result.Platform); err != nil {
			return storageError(err, apperrors.CodeNotFound, "platform")
		}
		if err := tx.UpdateCreator(ctx, result.Profile); err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		if err := tx.CreateDonation(ctx, result.Donation); err != nil {
			return storageError(err, apperrors.CodeNotFound, "donation")
		}
		if _, err := tx.AppendEvents(ctx, result.Events); err != nil {
			return err
		}
		outcome = result
		return nil
	})
	if err != nil {
		return tipping.DonationOutcome{}, err
	}
	span.SetAttributes(attribute.String("ledger.donation_id", donationID))
	return outcome, nil
}

// Withdraw pays amount from the creator treasury to the creator.
func (s *Service) Withdraw(ctx context.Context, caller, creator account.Address, amount uint64) (tipping.CreatorProfile, error) {
	return s.withdraw(ctx, "withdraw", caller, creator, func(profile tipping.CreatorProfile) (tipping.CreatorProfile, []transfer.Movement, []event.Event, error) {
		return tipping.Withdraw(profile, caller, amount, s.nowUTC())
	})
}

// WithdrawAll drains the creator treasury to the creator.
func (s *Service) WithdrawAll(ctx context.Context, caller, creator account.Address) (tipping.CreatorProfile, error) {
	return s.withdraw(ctx, "withdraw_all", caller, creator, func(profile tipping.CreatorProfile) (tipping.CreatorProfile, []transfer.Movement, []event.Event, error) {
		return tipping.WithdrawAll(profile, caller, s.nowUTC())
	})
}

type withdrawTransition func(tipping.CreatorProfile) (tipping.CreatorProfile, []transfer.Movement, []event.Event, error)

func (s *Service) withdraw(ctx context.Context, operation string, caller, creator account.Address, transition withdrawTransition) (profile tipping.CreatorProfile, err error) {
	ctx, span := s.startSpan(ctx, operation,
		attribute.String("ledger.caller", caller.String()),
		attribute.String("ledger.creator", creator.String()),
	)
	defer func() { endSpan(span, operation, err) }()
	if err := s.ready(); err != nil {
		return tipping.CreatorProfile{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetCreator(ctx, creator)
		if err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		updated, movements, events, err := transition(current)
		if err != nil {
			return err
		}
		profile = updated
		if len(events) == 0 {
			return nil
		}
		if err := applyMovements(ctx, tx, movements); err != nil {
			return err
		}
		if err := tx.UpdateCreator(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeProfileNotFound, "creator profile")
		}
		_, err = tx.AppendEvents(ctx, events)
		return err
	})
	if err != nil {
		return tipping.CreatorProfile{}, err
	}
	return profile, nil
}
