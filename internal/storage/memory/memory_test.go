package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

func TestCollectionEnforcesPeriods(t *testing.T) {
	ctx := context.Background()
	st := New().Stores()

	a, err := st.Internet.Create(ctx, core.InternetRecord{Period: core.Period{Year: 2024, Month: 0}, MonthlyCost: 4000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.Internet.Create(ctx, core.InternetRecord{Period: core.Period{Year: 2024, Month: 0}}); !errors.Is(err, core.ErrDuplicatePeriod) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	a.MonthlyCost = 4500
	if err := st.Internet.Update(ctx, a); err != nil {
		t.Fatalf("update in place: %v", err)
	}
	if err := st.Internet.Update(ctx, core.InternetRecord{ID: "missing"}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, _ := st.Internet.List(ctx)
	if len(list) != 1 || list[0].MonthlyCost != 4500 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should yield an empty store: %v", err)
	}
	if l, _ := s.Stores().Water.List(context.Background()); len(l) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `{"water":[{"id":"w1","period":{"year":2024,"month":1},"totalInvoiced":2550,"discount":200}],
	          "internet":[{"period":{"year":2024,"month":1},"monthlyCost":4000}]}`
	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	w, err := s.Stores().Water.Get(context.Background(), "w1")
	if err != nil {
		t.Fatalf("get seeded: %v", err)
	}
	if w.TotalToPay != 2350 || w.Status != core.Pending {
		t.Fatalf("seed should be normalized, got %+v", w)
	}
	inet, _ := s.Stores().Internet.List(context.Background())
	if len(inet) != 1 || inet[0].ID == "" {
		t.Fatalf("seeded internet record should get an id: %+v", inet)
	}
}

func TestUsersCaseInsensitiveEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, core.User{Email: "ana@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, core.User{Email: "ANA@example.com"}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
