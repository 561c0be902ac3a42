package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuentas/internal/core"
	"cuentas/internal/localstore"
	memstore "cuentas/internal/storage/memory"
)

func TestFixedValuesCreatedOnFirstUse(t *testing.T) {
	ctx := context.Background()
	local := localstore.New(memstore.New())
	svc, err := NewFixedValuesService(local, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	fv, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fv != core.DefaultFixedValues() {
		t.Fatalf("expected defaults, got %+v", fv)
	}
	if _, err := local.FixedValues(ctx); err != nil {
		t.Fatalf("first read should persist the document: %v", err)
	}

	if err := svc.Update(ctx, core.FixedValues{WaterDiscount: -1}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	want := core.FixedValues{WaterDiscount: 250, InternetMonthlyCost: 3990}
	if err := svc.Update(ctx, want); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := svc.Get(ctx); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadFixedValuesFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name    string
		content string
		want    core.FixedValues
		wantErr bool
	}{
		{"both", "water_discount: \"2,50\"\ninternet_monthly_cost: \"39.90\"\n", core.FixedValues{WaterDiscount: 250, InternetMonthlyCost: 3990}, false},
		{"partial keeps defaults", "water_discount: \"1\"\n", core.FixedValues{WaterDiscount: 100, InternetMonthlyCost: 4000}, false},
		{"negative", "water_discount: \"-1\"\n", core.FixedValues{}, true},
		{"not yaml", "water_discount: [\n", core.FixedValues{}, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := write(filepath.Base(t.Name())+string(rune('a'+i))+".yaml", tt.content)
			got, err := LoadFixedValuesFile(p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	svc, err := NewFixedValuesService(localstore.New(memstore.New()), write("seed.yaml", "internet_monthly_cost: \"35\"\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if fv, _ := svc.Get(context.Background()); fv.InternetMonthlyCost != 3500 {
		t.Fatalf("seed file not applied: %+v", fv)
	}
}
