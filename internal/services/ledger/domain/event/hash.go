package event

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// canonicalEnvelope fixes the hashed field set. Storage-assigned integrity
// fields are excluded so the hash can be recomputed from a stored row.
type canonicalEnvelope struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	Timestamp  int64           `json:"ts_ms"`
	ActorID    string          `json:"actor_id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Payload    json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	Seq      uint64 `json:"seq"`
	Hash     string `json:"hash"`
	PrevHash string `json:"prev_hash"`
}

// EventHash computes the content hash of evt: SHA-256 over the canonical
// envelope, truncated to 128 bits and hex encoded.
func EventHash(evt Event) (string, error) {
	if !evt.Type.IsValid() {
		return "", fmt.Errorf("event type is required")
	}
	payload, err := canonicalPayload(evt.PayloadJSON)
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}
	encoded, err := json.Marshal(canonicalEnvelope{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Timestamp:  evt.Timestamp.UTC().UnixMilli(),
		ActorID:    evt.ActorID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		Payload:    payload,
	})
	if err != nil {
		return "", fmt.Errorf("encode event envelope: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:16]), nil
}

// ChainHash computes the SHA-256 hash linking evt to its predecessor's chain
// hash. evt.Hash must already be set.
func ChainHash(evt Event, prevHash string) (string, error) {
	if strings.TrimSpace(evt.Hash) == "" {
		return "", fmt.Errorf("event hash is required")
	}
	encoded, err := json.Marshal(chainEnvelope{
		Seq:      evt.Seq,
		Hash:     evt.Hash,
		PrevHash: prevHash,
	})
	if err != nil {
		return "", fmt.Errorf("encode chain envelope: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// canonicalPayload re-encodes payload JSON with sorted object keys and
// untouched number literals.
func canonicalPayload(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return encoded, nil
}
