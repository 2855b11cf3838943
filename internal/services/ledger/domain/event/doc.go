// Package event defines the ledger journal: event types, their payloads, and
// the canonical hashing that links events into a tamper-evident chain.
//
// Transitions in the listing and tipping packages return events; storage
// assigns sequence numbers, hashes, and signatures when it appends them.
// Only notification events are delivered to external indexers. The remaining
// types are audit-only and stay in the journal.
package event
