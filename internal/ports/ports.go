// Package ports declares the outbound interfaces the services depend on.
// Each storage backend (sqlite, memory, dynamodb) provides all of them.
package ports

import (
	"context"
	"errors"

	"cuentas/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type (
	// RecordStore persists one utility collection. Create assigns the ID.
	RecordStore[R core.Record] interface {
		Create(ctx context.Context, r R) (R, error)
		Update(ctx context.Context, r R) error
		Delete(ctx context.Context, id string) error
		Get(ctx context.Context, id string) (R, error)
		List(ctx context.Context) ([]R, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) error
		UserByID(ctx context.Context, id string) (core.User, error)
		UserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	// KeyValue stores opaque blobs under fixed keys. GetValue returns ErrNotFound for missing keys.
	KeyValue interface {
		GetValue(ctx context.Context, key string) ([]byte, error)
		PutValue(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Stores bundles everything a backend provides.
type Stores struct {
	Water       RecordStore[core.WaterRecord]
	Electricity RecordStore[core.ElectricityRecord]
	Internet    RecordStore[core.InternetRecord]
	Users       UserStore
	KV          KeyValue
}
