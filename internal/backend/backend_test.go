package backend

import (
	"context"
	"path/filepath"
	"testing"

	"cuentas/internal/config"
	"cuentas/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		backend string
		want    Type
		wantErr bool
	}{
		{"sqlite", SQLite, false},
		{" Memory ", Memory, false},
		{"dynamodb", DynamoDB, false},
		{"sheets", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Load()
			cfg.DataBackend = tt.backend
			got, err := FromAppConfig(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.want {
				t.Errorf("type = %s, want %s", got.Type, tt.want)
			}
		})
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: SQLite, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLite}, true},
		{"memory", Config{Type: Memory}, false},
		{"dynamo local", Config{Type: DynamoDB, DynamoDBEndpoint: "http://localhost:8000"}, false},
		{"dynamo half credentials", Config{Type: DynamoDB, AWSRegion: "eu-west-1", AWSAccessKeyID: "key"}, true},
		{"unknown", Config{Type: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.Open(ctx, Config{Type: Memory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	defer mem.Close()
	if err := mem.Pinger.Ping(ctx); err != nil {
		t.Fatalf("memory ping: %v", err)
	}

	db, err := f.Open(ctx, Config{Type: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "cuentas.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	rec, err := db.Stores.Water.Create(ctx, core.WaterRecord{
		Period: core.Period{Year: 2024, Month: 1}, TotalInvoiced: 1000, TotalToPay: 1000, Status: core.Pending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Error("sqlite store should assign an id")
	}
}
