package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

const eventColumns = `seq, event_hash, prev_hash, chain_hash, signature_key_id, event_signature,
	timestamp, event_type, actor_id, entity_type, entity_id, payload_json`

// AppendEvents atomically appends events to the journal.
//
// Sequence numbers are allocated contiguously after the last stored event,
// and chain hashes link each event to its predecessor, including the last
// previously stored event for the first item. Notification events are
// enqueued in the outbox within the same transaction.
func (t *txStore) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keyring := t.store.keyring
	if keyring == nil {
		return nil, fmt.Errorf("event integrity keyring is required")
	}

	var (
		lastSeq       int64
		prevChainHash string
	)
	err := t.tx.QueryRowContext(ctx, `SELECT seq, chain_hash FROM journal_events ORDER BY seq DESC LIMIT 1`).Scan(&lastSeq, &prevChainHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load previous event: %w", err)
	}

	stored := make([]event.Event, len(events))
	for i, evt := range events {
		if !evt.Type.IsValid() {
			return nil, fmt.Errorf("event %d: type is required", i)
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = t.store.now()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = uint64(lastSeq) + uint64(i) + 1

		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		evt.Hash = hash

		chainHash, err := event.ChainHash(evt, prevChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		signature, keyID, err := keyring.SignChainHash(journalScope, chainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d sign: %w", i, err)
		}
		evt.PrevHash = prevChainHash
		evt.ChainHash = chainHash
		evt.Signature = signature
		evt.SignatureKeyID = keyID

		if _, err := t.tx.ExecContext(
			ctx,
			`INSERT INTO journal_events (`+eventColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(evt.Seq),
			evt.Hash,
			evt.PrevHash,
			evt.ChainHash,
			evt.SignatureKeyID,
			evt.Signature,
			toMillis(evt.Timestamp),
			string(evt.Type),
			evt.ActorID,
			evt.EntityType,
			evt.EntityID,
			evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}
		if evt.Type.IsNotification() {
			if err := t.enqueueNotification(ctx, evt); err != nil {
				return nil, err
			}
		}

		prevChainHash = chainHash
		stored[i] = evt
	}
	return stored, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		timestamp int64
		eventType string
	)
	if err := row.Scan(
		&seq,
		&evt.Hash,
		&evt.PrevHash,
		&evt.ChainHash,
		&evt.SignatureKeyID,
		&evt.Signature,
		&timestamp,
		&eventType,
		&evt.ActorID,
		&evt.EntityType,
		&evt.EntityID,
		&evt.PayloadJSON,
	); err != nil {
		return event.Event{}, err
	}
	evt.Seq = uint64(seq)
	evt.Timestamp = fromMillis(timestamp)
	evt.Type = event.Type(eventType)
	return evt, nil
}

// GetEventBySeq returns one journal event.
func (s *Store) GetEventBySeq(ctx context.Context, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}
	evt, err := scanEvent(s.sqlDB.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM journal_events WHERE seq = ?`, int64(seq)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, storage.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event: %w", err)
	}
	return evt, nil
}

// ListEvents returns up to limit events after afterSeq in journal order.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return []event.Event{}, nil
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+eventColumns+` FROM journal_events WHERE seq > ? ORDER BY seq ASC LIMIT ?`,
		int64(afterSeq),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// VerifyJournal re-walks the journal and checks sequence continuity, content
// hashes, chain links, and signatures.
func (s *Store) VerifyJournal(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if s.keyring == nil {
		return fmt.Errorf("event integrity keyring is required")
	}

	var lastSeq uint64
	prevChainHash := ""
	for {
		events, err := s.ListEvents(ctx, lastSeq, 200)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for _, evt := range events {
			if evt.Seq != lastSeq+1 {
				return fmt.Errorf("event sequence gap expected=%d got=%d", lastSeq+1, evt.Seq)
			}
			if evt.PrevHash != prevChainHash {
				return fmt.Errorf("prev hash mismatch seq=%d", evt.Seq)
			}
			hash, err := event.EventHash(evt)
			if err != nil {
				return fmt.Errorf("compute event hash seq=%d: %w", evt.Seq, err)
			}
			if hash != evt.Hash {
				return fmt.Errorf("event hash mismatch seq=%d", evt.Seq)
			}
			chainHash, err := event.ChainHash(evt, prevChainHash)
			if err != nil {
				return fmt.Errorf("compute chain hash seq=%d: %w", evt.Seq, err)
			}
			if chainHash != evt.ChainHash {
				return fmt.Errorf("chain hash mismatch seq=%d", evt.Seq)
			}
			if err := s.keyring.VerifyChainHash(journalScope, chainHash, evt.Signature, strings.TrimSpace(evt.SignatureKeyID)); err != nil {
				return fmt.Errorf("signature mismatch seq=%d: %w", evt.Seq, err)
			}
			prevChainHash = evt.ChainHash
			lastSeq = evt.Seq
		}
	}
}
