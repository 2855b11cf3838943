package worldstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
)

type eventRecord struct {
	Seq            uint64          `json:"seq"`
	Hash           string          `json:"event_hash"`
	PrevHash       string          `json:"prev_hash"`
	ChainHash      string          `json:"chain_hash"`
	SignatureKeyID string          `json:"signature_key_id,omitempty"`
	Signature      string          `json:"signature,omitempty"`
	Timestamp      int64           `json:"timestamp"`
	Type           string          `json:"event_type"`
	ActorID        string          `json:"actor_id"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

func newEventRecord(evt event.Event) eventRecord {
	return eventRecord{
		Seq:            evt.Seq,
		Hash:           evt.Hash,
		PrevHash:       evt.PrevHash,
		ChainHash:      evt.ChainHash,
		SignatureKeyID: evt.SignatureKeyID,
		Signature:      evt.Signature,
		Timestamp:      toMillis(evt.Timestamp),
		Type:           string(evt.Type),
		ActorID:        evt.ActorID,
		EntityType:     evt.EntityType,
		EntityID:       evt.EntityID,
		Payload:        json.RawMessage(evt.PayloadJSON),
	}
}

func (r eventRecord) event() event.Event {
	return event.Event{
		Seq:            r.Seq,
		Hash:           r.Hash,
		PrevHash:       r.PrevHash,
		ChainHash:      r.ChainHash,
		SignatureKeyID: r.SignatureKeyID,
		Signature:      r.Signature,
		Timestamp:      fromMillis(r.Timestamp),
		Type:           event.Type(r.Type),
		ActorID:        r.ActorID,
		EntityType:     r.EntityType,
		EntityID:       r.EntityID,
		PayloadJSON:    []byte(r.Payload),
	}
}

type journalHead struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Seq        uint64 `json:"seq"`
	ChainHash  string `json:"chain_hash"`
}

func journalKey(r reader, entityType, entityID string, seq uint64) (string, error) {
	return r.key(keyJournal, entityType, entityID, fmt.Sprintf("%020d", seq))
}

func journalHeadKey(r reader, entityType, entityID string) (string, error) {
	return r.key(keyJournalHead, entityType, entityID)
}

// AppendEvents sequences, chains, and stores events after their entity's
// journal head. Each entity carries its own chain, so a transaction writes
// only the heads of the entities it touches. Notification events are
// published as one chaincode event on commit.
func (t *txStore) AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := make([]event.Event, len(events))
	for i, evt := range events {
		if !evt.Type.IsValid() {
			return nil, fmt.Errorf("event %d: type is required", i)
		}
		if strings.TrimSpace(evt.EntityType) == "" || strings.TrimSpace(evt.EntityID) == "" {
			return nil, fmt.Errorf("event %d: entity is required", i)
		}
		headKey, err := journalHeadKey(t.reader, evt.EntityType, evt.EntityID)
		if err != nil {
			return nil, err
		}
		head := journalHead{EntityType: evt.EntityType, EntityID: evt.EntityID}
		if err := t.load(headKey, &head); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load journal head: %w", err)
		}

		if evt.Timestamp.IsZero() {
			evt.Timestamp = t.store.now()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		evt.Seq = head.Seq + 1

		hash, err := event.EventHash(evt)
		if err != nil {
			return nil, fmt.Errorf("event %d hash: %w", i, err)
		}
		evt.Hash = hash
		chainHash, err := event.ChainHash(evt, head.ChainHash)
		if err != nil {
			return nil, fmt.Errorf("event %d chain hash: %w", i, err)
		}
		evt.PrevHash = head.ChainHash
		evt.ChainHash = chainHash
		if keyring := t.store.keyring; keyring != nil {
			if evt.Signature, evt.SignatureKeyID, err = keyring.SignChainHash(journalScope, chainHash); err != nil {
				return nil, fmt.Errorf("event %d sign: %w", i, err)
			}
		}

		key, err := journalKey(t.reader, evt.EntityType, evt.EntityID, evt.Seq)
		if err != nil {
			return nil, err
		}
		if err := t.create(key, newEventRecord(evt)); err != nil {
			return nil, fmt.Errorf("append event %d: %w", i, err)
		}
		head.Seq = evt.Seq
		head.ChainHash = chainHash
		if err := t.putJSON(headKey, head); err != nil {
			return nil, err
		}
		if evt.Type.IsNotification() {
			t.notifications = append(t.notifications, evt)
		}
		stored[i] = evt
	}
	return stored, nil
}

// GetEvent returns one committed event from an entity's journal.
func (s *Store) GetEvent(ctx context.Context, entityType, entityID string, seq uint64) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	key, err := journalKey(s.reader, entityType, entityID, seq)
	if err != nil {
		return event.Event{}, err
	}
	var rec eventRecord
	if err := s.load(key, &rec); err != nil {
		return event.Event{}, err
	}
	return rec.event(), nil
}

// ListEntityEvents returns up to limit committed events of one entity after
// afterSeq in journal order.
func (s *Store) ListEntityEvents(ctx context.Context, entityType, entityID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []event.Event{}, nil
	}
	events := make([]event.Event, 0, limit)
	for seq := afterSeq + 1; len(events) < limit; seq++ {
		evt, err := s.GetEvent(ctx, entityType, entityID, seq)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				break
			}
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

// VerifyJournal re-walks every entity chain and checks sequence continuity,
// content hashes, chain links, and, when a keyring is configured, signatures.
// Each chain must end at its recorded head.
func (s *Store) VerifyJournal(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	iter, err := s.stub.GetStateByPartialCompositeKey(keyJournalHead, []string{})
	if err != nil {
		return fmt.Errorf("list journal heads: %w", err)
	}
	var heads []journalHead
	for iter.HasNext() {
		entry, err := iter.Next()
		if err != nil {
			iter.Close()
			return fmt.Errorf("list journal heads: %w", err)
		}
		var head journalHead
		if err := json.Unmarshal(entry.Value, &head); err != nil {
			iter.Close()
			return fmt.Errorf("decode journal head: %w", err)
		}
		heads = append(heads, head)
	}
	iter.Close()

	for _, head := range heads {
		if err := s.verifyEntityJournal(ctx, head); err != nil {
			return fmt.Errorf("%s %s: %w", head.EntityType, head.EntityID, err)
		}
	}
	return nil
}

func (s *Store) verifyEntityJournal(ctx context.Context, head journalHead) error {
	var lastSeq uint64
	prevChainHash := ""
	for {
		events, err := s.ListEntityEvents(ctx, head.EntityType, head.EntityID, lastSeq, 200)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			break
		}
		for _, evt := range events {
			if evt.EntityType != head.EntityType || evt.EntityID != head.EntityID {
				return fmt.Errorf("entity mismatch seq=%d", evt.Seq)
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
			if s.keyring != nil {
				if err := s.keyring.VerifyChainHash(journalScope, chainHash, evt.Signature, strings.TrimSpace(evt.SignatureKeyID)); err != nil {
					return fmt.Errorf("signature mismatch seq=%d: %w", evt.Seq, err)
				}
			}
			prevChainHash = evt.ChainHash
			lastSeq = evt.Seq
		}
	}
	if lastSeq != head.Seq || prevChainHash != head.ChainHash {
		return fmt.Errorf("journal head mismatch seq=%d head=%d", lastSeq, head.Seq)
	}
	return nil
}
