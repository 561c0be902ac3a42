package memory

import (
	"context"
	"testing"

	"cuentas/internal/core"
)

func TestWriteAndReadHistory(t *testing.T) {
	ctx := context.Background()
	s := New()

	rows := []core.HistoryRow{{Period: core.Period{Year: 2024, Month: 1}, Water: 100, Total: 100}}
	ref, err := s.WriteHistory(ctx, 2024, rows)
	if err != nil || ref != "mem:2024:1" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}

	rows[0].Water = 999
	got, _ := s.ReadHistory(ctx, 2024)
	if len(got) != 1 || got[0].Water != 100 {
		t.Fatalf("stored rows should be a copy, got %+v", got)
	}

	if empty, _ := s.ReadHistory(ctx, 2023); len(empty) != 0 {
		t.Fatalf("expected no rows for an unwritten year, got %+v", empty)
	}
	if s.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", s.Writes())
	}
}
