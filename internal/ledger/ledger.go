// Package ledger records which feed entry ids have already been posted.
//
// A ledger is a key-existence store: a record is the id alone, written once
// when a post succeeds and never updated, expired or deleted. The store grows
// without bound.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrStorageUnavailable means the backing store could not be reached.
	// Callers must not treat it as "not posted".
	ErrStorageUnavailable = errors.New("ledger storage unavailable")

	// ErrWriteAmbiguous means a write was attempted but not confirmed.
	// The id must be treated as not recorded.
	ErrWriteAmbiguous = errors.New("ledger write not confirmed")

	// ErrAlreadyRecorded is returned by Record when the id is already present.
	ErrAlreadyRecorded = errors.New("id already recorded")
)

// Ledger is the publication ledger contract.
type Ledger interface {
	// Exists reports whether id has been recorded.
	Exists(ctx context.Context, id string) (bool, error)
	// Record inserts id if absent. Only a nil return means the id is durably
	// recorded.
	Record(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by LEDGER_BACKEND.
const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)
