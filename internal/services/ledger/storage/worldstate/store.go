// Package worldstate stores ledger records in a Hyperledger Fabric world
// state.
//
// Writes made inside InTx are buffered and only reach the stub when the
// operation succeeds, so a failed operation leaves no partial write set.
// Reads inside the transaction see its own buffered writes. Range queries
// (owner listings, donation feeds) read committed state only.
package worldstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"

	"github.com/louisbranch/estateledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/estateledger/internal/services/ledger/notify"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage"
	"github.com/louisbranch/estateledger/internal/services/ledger/storage/integrity"
)

// NotificationEvent is the chaincode event name carrying indexer
// notifications committed by a transaction.
const NotificationEvent = "ledger.notifications"

const journalScope = "ledger"

// Composite key object types.
const (
	keyProperty      = "property"
	keyOwnerProperty = "owner~property"
	keyPlatform      = "platform"
	keyCreator       = "creator"
	keyDonation      = "donation"
	keyCreatorFeed   = "creator~donation"
	keyWallet        = "wallet"
	keyJournal       = "journal"
	keyJournalHead   = "journal~head"
	keyMeta          = "meta"
)

// Stub is the subset of the chaincode stub the store uses.
type Stub interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	DelState(key string) error
	CreateCompositeKey(objectType string, attributes []string) (string, error)
	GetStateByPartialCompositeKey(objectType string, keys []string) (shim.StateQueryIteratorInterface, error)
	SetEvent(name string, payload []byte) error
}

// Store implements storage.Store over a chaincode stub. One Store serves one
// chaincode invocation.
type Store struct {
	reader
	keyring *integrity.Keyring
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyring signs journal chain hashes. Without a keyring events are
// chained but unsigned.
func WithKeyring(keyring *integrity.Keyring) Option {
	return func(s *Store) {
		s.keyring = keyring
	}
}

// New wraps stub.
func New(stub Stub, opts ...Option) *Store {
	s := &Store{now: time.Now}
	s.reader = reader{stub: stub, state: committedState{stub: stub}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// state resolves single-key reads.
type state interface {
	get(key string) ([]byte, error)
}

type committedState struct {
	stub Stub
}

func (c committedState) get(key string) ([]byte, error) {
	return c.stub.GetState(key)
}

// reader implements storage.Reader over a state view.
type reader struct {
	stub  Stub
	state state
}

func (r reader) key(objectType string, attributes ...string) (string, error) {
	key, err := r.stub.CreateCompositeKey(objectType, attributes)
	if err != nil {
		return "", fmt.Errorf("create %s key: %w", objectType, err)
	}
	return key, nil
}

// load reads and decodes one JSON record. Missing keys map to
// storage.ErrNotFound.
func (r reader) load(key string, out any) error {
	raw, err := r.state.get(key)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	if raw == nil {
		return storage.ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// InTx runs fn against a buffered transaction and flushes its writes on
// success.
func (s *Store) InTx(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.stub == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx := &txStore{store: s, writes: make(map[string][]byte)}
	tx.reader = reader{stub: s.stub, state: tx}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

type txStore struct {
	reader
	store         *Store
	writes        map[string][]byte
	order         []string
	notifications []event.Event
}

func (t *txStore) get(key string) ([]byte, error) {
	if value, ok := t.writes[key]; ok {
		return value, nil
	}
	return t.store.stub.GetState(key)
}

func (t *txStore) put(key string, value []byte) {
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
}

// del marks key for deletion; later reads in the transaction see it as
// missing.
func (t *txStore) del(key string) {
	t.put(key, nil)
}

func (t *txStore) putJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	t.put(key, raw)
	return nil
}

// create stores value under key unless the key already holds a record.
func (t *txStore) create(key string, value any) error {
	existing, err := t.get(key)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	if existing != nil {
		return storage.ErrAlreadyExists
	}
	return t.putJSON(key, value)
}

// update replaces the record under key, which must exist.
func (t *txStore) update(key string, value any) error {
	existing, err := t.get(key)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	if existing == nil {
		return storage.ErrNotFound
	}
	return t.putJSON(key, value)
}

func (t *txStore) commit() error {
	for _, key := range t.order {
		value := t.writes[key]
		if value == nil {
			if err := t.store.stub.DelState(key); err != nil {
				return fmt.Errorf("delete state: %w", err)
			}
			continue
		}
		if err := t.store.stub.PutState(key, value); err != nil {
			return fmt.Errorf("put state: %w", err)
		}
	}
	if len(t.notifications) == 0 {
		return nil
	}
	published := make([]notify.Notification, 0, len(t.notifications))
	for _, evt := range t.notifications {
		published = append(published, notify.FromEvent(evt))
	}
	payload, err := json.Marshal(published)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	if err := t.store.stub.SetEvent(NotificationEvent, payload); err != nil {
		return fmt.Errorf("set notification event: %w", err)
	}
	return nil
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*txStore)(nil)
)
