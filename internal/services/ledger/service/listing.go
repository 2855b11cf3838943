package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/account"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/listing"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

// RegisterProperty records a new property owned by caller.
func (s *Service) RegisterProperty(ctx context.Context, caller account.Address, in listing.RegisterInput) (property listing.Property, err error) {
	ctx, span := s.startSpan(ctx, "register_property", attribute.String("ledger.caller", caller.String()))
	defer func() { endSpan(span, "register_property", err) }()
	if err := s.ready(); err != nil {
		return listing.Property{}, err
	}

	propertyID, err := s.newID()
	if err != nil {
		return listing.Property{}, err
	}
	property, evt, err := listing.Register(in, propertyID, caller, s.nowUTC())
	if err != nil {
		return listing.Property{}, err
	}
	span.SetAttributes(attribute.String("ledger.property_id", propertyID))

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateProperty(ctx, property); err != nil {
			return storageError(err, apperrors.CodeNotFound, "property")
		}
		_, err := tx.AppendEvents(ctx, []event.Event{evt})
		return err
	})
	if err != nil {
		return listing.Property{}, err
	}
	return property, nil
}

// BuyProperty transfers a property to buyer. The full payment goes to the
// previous owner.
func (s *Service) BuyProperty(ctx context.Context, buyer account.Address, propertyID string, payment uint64) (property listing.Property, err error) {
	ctx, span := s.startSpan(ctx, "buy_property",
		attribute.String("ledger.caller", buyer.String()),
		attribute.String("ledger.property_id", propertyID),
	)
	defer func() { endSpan(span, "buy_property", err) }()
	if err := s.ready(); err != nil {
		return listing.Property{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		current, err := tx.GetProperty(ctx, propertyID)
		if err != nil {
			return storageError(err, apperrors.CodeNotFound, "property")
		}
		updated, movements, evt, err := listing.Buy(current, buyer, payment, s.nowUTC())
		if err != nil {
			return err
		}
		if err := applyMovements(ctx, tx, movements); err != nil {
			return err
		}
		if err := tx.UpdateProperty(ctx, updated); err != nil {
			return storageError(err, apperrors.CodeNotFound, "property")
		}
		if _, err := tx.AppendEvents(ctx, []event.Event{evt}); err != nil {
			return err
		}
		property = updated
		return nil
	})
	if err != nil {
		return listing.Property{}, err
	}
	return property, nil
}

// Property returns one property by id.
func (s *Service) Property(ctx context.Context, propertyID string) (listing.Property, error) {
	if err := s.ready(); err != nil {
		return listing.Property{}, err
	}
	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return listing.Property{}, storageError(err, apperrors.CodeNotFound, "property")
	}
	return property, nil
}

// PropertiesByOwner pages through the properties held by owner.
func (s *Service) PropertiesByOwner(ctx context.Context, owner account.Address, pageSize int, pageToken string) (storage.PropertyPage, error) {
	if err := s.ready(); err != nil {
		return storage.PropertyPage{}, err
	}
	if !owner.Valid() {
		return storage.PropertyPage{}, account.ErrInvalidAddress
	}
	page, err := s.store.ListPropertiesByOwner(ctx, owner, clampPageSize(pageSize), pageToken)
	if err != nil {
		return storage.PropertyPage{}, storageError(err, apperrors.CodeNotFound, "list properties")
	}
	return page, nil
}
