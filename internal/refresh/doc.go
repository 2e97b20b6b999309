// Package refresh ties the dataset provider, delta engine, changelog and
// store into the two read paths the service exposes.
//
// Refresh always rebuilds: it reads the previous snapshot and changelog,
// diffs, appends a new entry and writes both keys back. Cached serves the
// stored snapshot when one exists and falls through to Refresh otherwise.
//
// The read-then-write sequence is not transactional. Two refreshes that
// overlap both read the same previous state and both write; whichever
// write lands last wins. Callers must tolerate the resulting duplicate or
// slightly stale changelog entries. Nothing here retries.
package refresh
