package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fixed layout of persisted state.
const (
	DefaultNamespace = "emesrt"
	KeySnapshot      = "rows.json"
	KeyChangelog     = "changelog.json"
)

var (
	// ErrMalformed marks a stored value that does not decode into the
	// expected shape. Callers treat it as absent.
	ErrMalformed = errors.New("malformed stored value")

	// ErrUnknownBackend is returned for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Kind says whether a store survives the current invocation.
type Kind int

const (
	Durable Kind = iota
	Ephemeral
)

func (k Kind) String() string {
	switch k {
	case Durable:
		return "durable"
	case Ephemeral:
		return "ephemeral"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Store is a key/JSON-value mapping. Get reports found=false for an absent
// key. Operations are expected to complete or fail fast; none retry.
type Store interface {
	Get(ctx context.Context, key string) (value json.RawMessage, found bool, err error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Kind() Kind
	Close() error
}

// GetJSON decodes the value at key into v. A value that is not valid JSON
// for v, or is JSON null, returns an error wrapping ErrMalformed.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, fmt.Errorf("get %s: %w: null", key, ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("get %s: %w: %v", key, ErrMalformed, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key. HTML escaping is disabled so
// stored text matches what clients receive.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("set %s: encode: %w", key, err)
	}
	if err := s.Set(ctx, key, bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Shared wraps a store that outlives individual requests. Its Close is a
// no-op; the owner closes the underlying store.
func Shared(s Store) Store {
	return shared{Store: s}
}

type shared struct {
	Store
}

func (shared) Close() error { return nil }
