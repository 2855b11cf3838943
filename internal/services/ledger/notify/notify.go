// Package notify delivers committed indexer notifications from the ledger
// outbox to a sink.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/estateledger/internal/platform/timeouts"
	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
)

const defaultBatchSize = 50

// Outbox is the queue the dispatcher drains.
type Outbox interface {
	ProcessNotificationOutbox(ctx context.Context, now time.Time, limit int, deliver func(context.Context, event.Event) error) (int, error)
}

// Sink receives one notification. A returned error schedules a retry.
type Sink interface {
	Deliver(ctx context.Context, evt event.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, evt event.Event) error

func (f SinkFunc) Deliver(ctx context.Context, evt event.Event) error {
	return f(ctx, evt)
}

// Config controls dispatcher polling.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
}

func (c Config) normalized() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = timeouts.OutboxPoll
	}
	return c
}

// Dispatcher polls the outbox and hands due notifications to a sink.
type Dispatcher struct {
	outbox Outbox
	sink   Sink
	config Config
	clock  func() time.Time
}

// NewDispatcher constructs a dispatcher. A nil clock uses time.Now.
func NewDispatcher(outbox Outbox, sink Sink, config Config, clock func() time.Time) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		outbox: outbox,
		sink:   sink,
		config: config.normalized(),
		clock:  clock,
	}
}

// ProcessOnce drains one batch and reports how many rows were handled.
func (d *Dispatcher) ProcessOnce(ctx context.Context) (int, error) {
	if d == nil || d.outbox == nil || d.sink == nil {
		return 0, fmt.Errorf("notification dispatcher is not configured")
	}
	return d.outbox.ProcessNotificationOutbox(ctx, d.clock().UTC(), d.config.BatchSize, d.sink.Deliver)
}

// Run polls until ctx is done. Batch failures are logged and retried on the
// next tick.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d == nil || d.outbox == nil || d.sink == nil {
		return fmt.Errorf("notification dispatcher is not configured")
	}
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()
	for {
		for {
			processed, err := d.ProcessOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("notification outbox: %v", err)
				break
			}
			// A full batch usually means more rows are due.
			if processed < d.config.BatchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Notification is the JSON shape published to indexers.
type Notification struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id"`
	Timestamp  time.Time       `json:"timestamp"`
	ChainHash  string          `json:"chain_hash"`
	Payload    json.RawMessage `json:"payload"`
}

// FromEvent converts a journal event to its published form.
func FromEvent(evt event.Event) Notification {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Notification{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Timestamp:  evt.Timestamp.UTC(),
		ChainHash:  evt.ChainHash,
		Payload:    payload,
	}
}

// LogSink writes each notification as one JSON log line.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Deliver(_ context.Context, evt event.Event) error {
	line, err := json.Marshal(FromEvent(evt))
	if err != nil {
		return fmt.Errorf("encode notification %d: %w", evt.Seq, err)
	}
	if s.Logger != nil {
		s.Logger.Printf("notification %s", line)
		return nil
	}
	log.Printf("notification %s", line)
	return nil
}

// MemorySink records delivered notifications, used by tests and the HTTP feed.
type MemorySink struct {
	mu     sync.Mutex
	limit  int
	events []Notification
}

// NewMemorySink keeps at most limit recent notifications; limit <= 0 keeps all.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

func (s *MemorySink) Deliver(_ context.Context, evt event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, FromEvent(evt))
	if s.limit > 0 && len(s.events) > s.limit {
		s.events = append([]Notification(nil), s.events[len(s.events)-s.limit:]...)
	}
	return nil
}

// Recent returns delivered notifications, oldest first.
func (s *MemorySink) Recent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.events...)
}

// Fanout delivers to every sink in order and stops at the first failure.
type Fanout []Sink

func (f Fanout) Deliver(ctx context.Context, evt event.Event) error {
	for _, sink := range f {
		if err := sink.Deliver(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}
