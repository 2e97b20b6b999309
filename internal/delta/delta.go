// Package delta classifies how one snapshot differs from another.
//
// Records are matched by natural key and compared by content fingerprint.
// Diff is pure and total: it never fails and never mutates its inputs.
package delta

import (
	"bytes"
	"encoding/json"

	"github.com/athanius07/EMESRT11/internal/dataset"
)

// Delta holds the natural keys of records that were added, removed or
// changed between two snapshots. Keys present in both with an identical
// fingerprint appear in no bucket.
type Delta struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Counts summarises a delta.
type Counts struct {
	Added   int
	Removed int
	Changed int
}

// Diff compares the previous snapshot against the next one.
//
// Added and Changed follow the order of next; Removed follows the order of
// prev. When a snapshot carries the same natural key twice, the key keeps
// the position of its first occurrence and the last record wins.
func Diff(prev, next dataset.Snapshot) Delta {
	oldIdx := index(prev)
	newIdx := index(next)

	d := Delta{
		Added:   []string{},
		Removed: []string{},
		Changed: []string{},
	}

	for _, k := range newIdx.keys {
		before, ok := oldIdx.records[k]
		if !ok {
			d.Added = append(d.Added, k)
			continue
		}
		if before.Fingerprint() != newIdx.records[k].Fingerprint() {
			d.Changed = append(d.Changed, k)
		}
	}

	for _, k := range oldIdx.keys {
		if _, ok := newIdx.records[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}

	return d
}

// Empty reports whether nothing was added, removed or changed.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Counts returns the size of each bucket.
func (d Delta) Counts() Counts {
	return Counts{
		Added:   len(d.Added),
		Removed: len(d.Removed),
		Changed: len(d.Changed),
	}
}

// MarshalJSON always emits arrays, including for a zero Delta or one
// decoded from a document that carried null buckets.
func (d Delta) MarshalJSON() ([]byte, error) {
	type plain Delta
	out := plain(d)
	if out.Added == nil {
		out.Added = []string{}
	}
	if out.Removed == nil {
		out.Removed = []string{}
	}
	if out.Changed == nil {
		out.Changed = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

type keyIndex struct {
	keys    []string
	records map[string]dataset.Record
}

func index(s dataset.Snapshot) keyIndex {
	idx := keyIndex{
		keys:    make([]string, 0, len(s)),
		records: make(map[string]dataset.Record, len(s)),
	}
	for _, r := range s {
		k := r.NaturalKey()
		if _, seen := idx.records[k]; !seen {
			idx.keys = append(idx.keys, k)
		}
		idx.records[k] = r
	}
	return idx
}
