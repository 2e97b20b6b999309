// Package canon provides the canonical serialization and digests used for
// content-addressed identity of records and snapshots.
//
// This package imports nothing internal. Every fingerprint in the service is
// computed from MarshalCanonical output, never from encoding/json directly:
// Go map iteration order is random, so json.Marshal cannot be relied on for
// stable bytes across processes or library versions.
//
// Canonical form follows RFC 8785:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping, no insignificant whitespace
//   - Strings NFC normalized
//   - No floats, no null
package canon
