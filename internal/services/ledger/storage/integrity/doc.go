// Package integrity signs the ledger journal's chain hashes.
//
// Each journal scope gets its own HMAC key derived from a root key with
// HKDF, so rotating the active key id never invalidates older signatures.
package integrity
