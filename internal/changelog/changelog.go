// Package changelog keeps the bounded, newest-first history of refreshes.
//
// Entries are immutable once created. Append is the only mutation and it
// returns a new Changelog rather than editing the receiver.
package changelog

import (
	"time"

	"github.com/athanius07/EMESRT11/internal/dataset"
	"github.com/athanius07/EMESRT11/internal/delta"
)

// MaxEntries caps the history. Older entries are discarded for good.
const MaxEntries = 20

// TimestampLayout is ISO-8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Entry records one refresh attempt, whether or not anything changed.
type Entry struct {
	Timestamp   string      `json:"ts"`
	RecordCount int         `json:"count"`
	Fingerprint string      `json:"hash"`
	Delta       delta.Delta `json:"delta"`
}

// NewEntry stamps a refresh of s at ts.
func NewEntry(ts time.Time, s dataset.Snapshot, d delta.Delta) Entry {
	return Entry{
		Timestamp:   FormatTimestamp(ts),
		RecordCount: len(s),
		Fingerprint: s.Fingerprint(),
		Delta:       d,
	}
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Changelog is ordered newest first and never longer than MaxEntries once
// produced by Append.
type Changelog []Entry

// Append pushes e to the front and truncates to MaxEntries.
func (c Changelog) Append(e Entry) Changelog {
	n := len(c) + 1
	if n > MaxEntries {
		n = MaxEntries
	}
	out := make(Changelog, 0, n)
	out = append(out, e)
	out = append(out, c[:n-1]...)
	return out
}

// Latest returns the first n entries. n <= 0 or n beyond the length
// returns the whole list.
func (c Changelog) Latest(n int) Changelog {
	if n <= 0 || n >= len(c) {
		return c
	}
	return c[:n]
}

// Head returns the most recent entry.
func (c Changelog) Head() (Entry, bool) {
	if len(c) == 0 {
		return Entry{}, false
	}
	return c[0], true
}
