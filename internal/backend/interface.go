package backend

import (
	"context"

	"cuentas/internal/ports"
)

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

// Result contains the stores of the selected backend and its cleanup function.
type Result struct {
	Stores  ports.Stores
	Pinger  ports.Pinger
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	Open(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: optional JSON seed
	MemorySeedFile string

	// DynamoDB specific
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	DynamoDBEndpoint   string
	DynamoDBPrefix     string
}

// Type names a storage backend.
type Type string

const (
	SQLite   Type = "sqlite"
	Memory   Type = "memory"
	DynamoDB Type = "dynamodb"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory, DynamoDB:
		return true
	default:
		return false
	}
}
