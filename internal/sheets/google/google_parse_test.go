package google

import (
	"strings"
	"testing"

	"cuentas/internal/core"
)

func TestParseHistory(t *testing.T) {
	values := [][]any{
		{"Mes", "Agua", "Electricidad", "Internet", "Total del Mes"},
		{"Enero", 23.5, "48,20", 40.0, 111.7},
		{"Marzo", "", 31.05, "40 €", 71.05},
		{"Notas", "x", "y", "z", ""},
	}
	rows, err := parseHistory(values, 2024)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	// Most recent first.
	if rows[0].Period != (core.Period{Year: 2024, Month: 2}) {
		t.Fatalf("unexpected first period %v", rows[0].Period)
	}
	if rows[0].Water != 0 || rows[0].Electricity != 3105 || rows[0].Internet != 4000 || rows[0].Total != 7105 {
		t.Fatalf("unexpected Marzo row %+v", rows[0])
	}
	if rows[1].Water != 2350 || rows[1].Electricity != 4820 || rows[1].Total != 11170 {
		t.Fatalf("unexpected Enero row %+v", rows[1])
	}
}

func TestParseHistoryHeaderMismatch(t *testing.T) {
	_, err := parseHistory([][]any{{"Month", "Water"}}, 2024)
	if err == nil || !strings.Contains(err.Error(), "unexpected history header") {
		t.Fatalf("expected header error, got %v", err)
	}
}

func TestHistoryValues(t *testing.T) {
	rows := []core.HistoryRow{{
		Period: core.Period{Year: 2024, Month: 5},
		Water:  2350, Electricity: 4820, Internet: 4000, Total: 11170,
	}}
	values := historyValues(rows)
	if len(values) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(values))
	}
	if values[1][0] != "Junio" || values[1][4] != 111.7 {
		t.Fatalf("unexpected row %v", values[1])
	}

	back, err := parseHistory(values, 2024)
	if err != nil || len(back) != 1 || back[0] != rows[0] {
		t.Fatalf("values do not parse back: %+v (%v)", back, err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Historial", 2024, "2024 Historial"},
		{"  Historial ", 2025, "2025 Historial"},
		{"2023 Historial", 2025, "2023 Historial"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Fatalf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestParseEurosToCents(t *testing.T) {
	tests := []struct {
		in   string
		want core.Money
		ok   bool
	}{
		{"23.5", 2350, true},
		{"48,20", 4820, true},
		{"40 €", 4000, true},
		{"", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseEurosToCents(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseEurosToCents(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
