// Package service runs ledger operations as single storage transactions.
//
// Each mutating operation loads the records it touches, runs the pure domain
// transition, applies the resulting value movements, persists the updated
// records, and appends the transition events to the journal. Any failure
// rolls the whole transaction back.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/estateledger/internal/platform/errors"
	"github.com/louisbranch/estateledger/internal/platform/id"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/transfer"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

const tracerName = "github.com/louisbranch/estateledger/internal/services/ledger/service"

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = errors.New("ledger store is not configured")

// Service orchestrates ledger use-cases over a transactional store.
type Service struct {
	store  storage.Store
	clock  func() time.Time
	newID  func() (string, error)
	tracer trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock used for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New constructs a ledger service.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  time.Now,
		newID:  id.NewID,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) ready() error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	return nil
}

// startSpan opens an operation span named ledger.<operation>.
func (s *Service) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "ledger."+operation, trace.WithAttributes(attrs...))
}

// endSpan records the operation outcome. Precondition failures carry a code
// attribute; anything without a code is an infrastructure failure and is
// logged.
func endSpan(span trace.Span, operation string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	code := apperrors.GetCode(err)
	span.SetAttributes(attribute.String("ledger.error_code", string(code)))
	span.SetStatus(otelcodes.Error, string(code))
	if code == apperrors.CodeUnknown {
		span.RecordError(err)
		log.Printf("ledger %s: %v", operation, err)
	}
}

// applyMovements runs transition movements against the transaction wallets
// in order.
func applyMovements(ctx context.Context, tx storage.Tx, movements []transfer.Movement) error {
	for _, m := range movements {
		var err error
		switch m.Kind {
		case transfer.KindCollect:
			err = tx.Collect(ctx, m.Account, m.Amount)
		case transfer.KindPay:
			err = tx.Pay(ctx, m.Account, m.Amount)
		default:
			err = fmt.Errorf("unknown movement kind %q", m.Kind)
		}
		if err != nil {
			return storageError(err, apperrors.CodeNotFound, "wallet")
		}
	}
	return nil
}

// storageError maps storage sentinels onto coded errors. notFound selects the
// code reported for a missing record.
func storageError(err error, notFound apperrors.Code, what string) error {
	switch {
	case err == nil:
		return nil
	case apperrors.GetCode(err) != apperrors.CodeUnknown:
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(notFound, what+" not found", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.Wrap(apperrors.CodeAlreadyExists, what+" already exists", err)
	case errors.Is(err, storage.ErrInsufficientFunds):
		return apperrors.Wrap(apperrors.CodeInsufficientFunds, "insufficient funds", err)
	case errors.Is(err, storage.ErrInvalidPageToken):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid page token", err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func clampPageSize(pageSize int) int {
	switch {
	case pageSize <= 0:
		return defaultPageSize
	case pageSize > maxPageSize:
		return maxPageSize
	default:
		return pageSize
	}
}
