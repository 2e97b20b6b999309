// Package dataset defines the regulatory record model and the providers
// that produce the current snapshot.
//
// Identity has two parts:
//   - NaturalKey matches the same entity across snapshots
//   - Fingerprint detects in-place modification of that entity
//
// Snapshots are ordered by publication date, newest first, with a stable
// sort so repeated refreshes of unchanged data produce identical bytes.
package dataset
