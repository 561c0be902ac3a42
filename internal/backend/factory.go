// Package backend opens the storage selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"cuentas/internal/log"
	"cuentas/internal/storage"
	"cuentas/internal/storage/dynamo"
	memstore "cuentas/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open implements Factory.Open
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLite:
		return f.openSQLite(config)
	case DynamoDB:
		return f.openDynamoDB(ctx, config)
	case Memory:
		return f.openMemory(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openSQLite(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Stores:  repo.Stores(),
		Pinger:  repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) openDynamoDB(ctx context.Context, config Config) (*Result, error) {
	client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
		Region:          config.AWSRegion,
		Endpoint:        config.DynamoDBEndpoint,
		AccessKeyID:     config.AWSAccessKeyID,
		SecretAccessKey: config.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DynamoDB client: %w", err)
	}
	store := dynamo.New(client, dynamo.DefaultTables(config.DynamoDBPrefix))

	f.logger.Info("Initialized DynamoDB backend",
		"region", config.AWSRegion,
		"endpoint", config.DynamoDBEndpoint,
		"table_prefix", config.DynamoDBPrefix)

	return &Result{Stores: store.Stores(), Pinger: store}, nil
}

func (f *DefaultFactory) openMemory(config Config) (*Result, error) {
	store, err := memstore.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)

	return &Result{Stores: store.Stores(), Pinger: store}, nil
}
