// Package store provides the key/JSON-value persistence used for the
// current snapshot and the changelog.
//
// Two keys are used, both under one namespace:
//   - rows.json: the current snapshot as a flat array of records
//   - changelog.json: the changelog, newest first
//
// # Backends
//
//   - SQLiteStore: durable, one row per (namespace, key)
//   - RedisStore: durable, one string per "namespace:key"
//   - MemoryStore: ephemeral, lives only as long as the value
//
// # Degradation
//
// Open never fails. When the configured durable backend cannot be
// constructed or reached it logs, records the fallback and returns an
// ephemeral MemoryStore. Callers see the result only through Kind(): a
// refresh against an ephemeral store sees an empty previous snapshot and
// its writes are lost when the store is discarded.
//
// # Consistency
//
// There is no multi-key transaction. A refresh reads both keys, then writes
// both keys; concurrent refreshes race and the last writer wins. Nothing
// here retries.
package store
