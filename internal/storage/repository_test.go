package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cuentas.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestWaterCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Stores()

	w := core.WaterRecord{Period: core.Period{Year: 2024, Month: 0}, TotalInvoiced: 2550, Discount: 200, Status: core.Pending}
	w.Apply()
	created, err := s.Water.Create(ctx, w)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an ID to be assigned")
	}

	got, err := s.Water.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, created)
	}

	got.Status = core.Paid
	if err := s.Water.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := s.Water.List(ctx)
	if err != nil || len(list) != 1 || list[0].Status != core.Paid {
		t.Fatalf("list after update: %+v (%v)", list, err)
	}

	if err := s.Water.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Water.Get(ctx, created.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Water.Delete(ctx, created.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestUniquePeriodConstraint(t *testing.T) {
	ctx := context.Background()
	s := newTestRepo(t).Stores()

	e := core.ElectricityRecord{
		Period: core.Period{Year: 2024, Month: 3}, TotalInvoiced: 10000, KWhConsumption: 50,
		PreviousMeter: 1000, CurrentMeter: 1120, Status: core.Pending,
	}
	e.Apply()
	first, err := s.Electricity.Create(ctx, e)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Electricity.Create(ctx, e); !errors.Is(err, core.ErrDuplicatePeriod) {
		t.Fatalf("expected duplicate period from the database, got %v", err)
	}

	other := e
	other.Period.Month = 4
	second, err := s.Electricity.Create(ctx, other)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	second.Period = first.Period
	if err := s.Electricity.Update(ctx, second); !errors.Is(err, core.ErrDuplicatePeriod) {
		t.Fatalf("expected duplicate period on update, got %v", err)
	}

	got, err := s.Electricity.Get(ctx, first.ID)
	if err != nil || got.TotalToPay != 24000 || got.KWhCost != 200 {
		t.Fatalf("unexpected stored electricity record %+v (%v)", got, err)
	}
}

func TestUsersAndKeyValue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	u, err := repo.CreateUser(ctx, core.User{Email: "ana@example.com", Role: core.RoleEditor, Status: core.UserActive})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := repo.CreateUser(ctx, core.User{Email: "ana@example.com", Role: core.RoleViewer, Status: core.UserActive}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}
	byEmail, err := repo.UserByEmail(ctx, "ana@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("lookup by email: %+v (%v)", byEmail, err)
	}

	if _, err := repo.GetValue(ctx, "fixedValues"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.PutValue(ctx, "fixedValues", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutValue(ctx, "fixedValues", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := repo.GetValue(ctx, "fixedValues")
	if err != nil || string(v) != `{"a":2}` {
		t.Fatalf("got %q (%v)", v, err)
	}
}
