package dataset

import (
	"sort"

	"github.com/athanius07/EMESRT11/internal/canon"
)

// Snapshot is the full ordered dataset as of one refresh.
type Snapshot []Record

// SortByPublicationDate orders records newest first by comparing the
// publication date strings. Ties keep their original order. Dates must be
// YYYY-MM-DD for string order to match calendar order.
func (s Snapshot) SortByPublicationDate() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Get(FieldPublicationDate) > s[j].Get(FieldPublicationDate)
	})
}

// Fingerprint is the content digest of the whole snapshot, order included.
func (s Snapshot) Fingerprint() string {
	maps := make([]map[string]string, len(s))
	for i, r := range s {
		maps[i] = r
	}
	return canon.Digest(canon.DomainSnapshot, canon.StringMaps(maps))
}

// Keys returns the natural keys in snapshot order.
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s))
	for i, r := range s {
		keys[i] = r.NaturalKey()
	}
	return keys
}

// Duplicates returns natural keys that occur more than once, in order of
// first repetition. An empty result means the uniqueness assumption holds.
func (s Snapshot) Duplicates() []string {
	seen := make(map[string]int, len(s))
	var dups []string
	for _, r := range s {
		k := r.NaturalKey()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, r := range s {
		out[i] = r.Clone()
	}
	return out
}
