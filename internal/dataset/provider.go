package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Provider produces the canonical current snapshot. Two calls with no
// change to the underlying source must return identical snapshots, field
// for field and order for order.
type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Curated serves the built-in seed records.
type Curated struct{}

// Snapshot returns a fresh, sorted copy of the seed records.
func (Curated) Snapshot(_ context.Context) (Snapshot, error) {
	s := seedRecords()
	s.SortByPublicationDate()
	return s, nil
}

// StaticProvider serves a fixed set of records, sorted on every call.
type StaticProvider struct {
	Records Snapshot
}

// Snapshot returns a sorted deep copy of the configured records.
func (p StaticProvider) Snapshot(_ context.Context) (Snapshot, error) {
	s := p.Records.Clone()
	if s == nil {
		s = Snapshot{}
	}
	s.SortByPublicationDate()
	return s, nil
}

// FileProvider reads a JSON array of records from disk on every call, so
// edits to the file show up on the next refresh.
type FileProvider struct {
	Path string
}

// Snapshot loads and sorts the file contents.
func (p FileProvider) Snapshot(_ context.Context) (Snapshot, error) {
	s, err := LoadFile(p.Path)
	if err != nil {
		return nil, err
	}
	s.SortByPublicationDate()
	return s, nil
}

// LoadFile reads a JSON array of record objects. Order is preserved.
func LoadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}
