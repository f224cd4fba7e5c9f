package ledger

import (
	"context"
	"fmt"
)

// Options selects and addresses a ledger backend.
type Options struct {
	Backend        string
	DynamoDB       DynamoDBConfig
	RedisURL       string
	RedisKeyPrefix string
	SQLitePath     string
}

// Open constructs the ledger named by opts.Backend.
func Open(ctx context.Context, opts Options) (Ledger, error) {
	switch opts.Backend {
	case BackendDynamoDB, "":
		return NewDynamoDB(ctx, opts.DynamoDB)
	case BackendRedis:
		r, err := NewRedisWithURL(opts.RedisURL, opts.RedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	case BackendSQLite:
		return OpenSQLite(opts.SQLitePath)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", opts.Backend)
	}
}
