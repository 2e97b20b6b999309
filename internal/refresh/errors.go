package refresh

import (
	"errors"
	"fmt"
)

// Stage identifies where a refresh failed.
type Stage string

const (
	// StageProvider means the dataset provider returned an error.
	StageProvider Stage = "PROVIDER_FAILED"

	// StageRead means a store read failed with an I/O error. Malformed
	// values never produce this; they are treated as absent.
	StageRead Stage = "STORE_READ_FAILED"

	// StageWrite means writing the snapshot or changelog failed.
	StageWrite Stage = "STORE_WRITE_FAILED"
)

// Error is returned by Refresh and Cached for every failure.
type Error struct {
	Stage Stage
	Key   string
	Err   error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage, or "" when err did not come from
// this package.
func StageOf(err error) Stage {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Stage
	}
	return ""
}
