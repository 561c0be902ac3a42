package core

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckPeriodUniqueOnCreate(t *testing.T) {
	existing := []WaterRecord{
		{ID: "a", Period: Period{Year: 2024, Month: 0}},
		{ID: "b", Period: Period{Year: 2024, Month: 1}},
	}
	dup := WaterRecord{Period: Period{Year: 2024, Month: 0}}
	err := CheckPeriodUnique(Water, dup, existing, false)
	if !errors.Is(err, ErrDuplicatePeriod) {
		t.Fatalf("expected ErrDuplicatePeriod, got %v", err)
	}
	if !strings.Contains(err.Error(), "Enero 2024") || !strings.Contains(err.Error(), "agua") {
		t.Fatalf("message should name utility, month and year: %q", err.Error())
	}
	var dpe *DuplicatePeriodError
	if !errors.As(err, &dpe) || dpe.Period != dup.Period {
		t.Fatalf("expected DuplicatePeriodError for %v, got %v", dup.Period, err)
	}

	ok := WaterRecord{Period: Period{Year: 2023, Month: 0}}
	if err := CheckPeriodUnique(Water, ok, existing, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckPeriodUniqueOnUpdate(t *testing.T) {
	existing := []InternetRecord{
		{ID: "a", Period: Period{Year: 2024, Month: 0}},
		{ID: "b", Period: Period{Year: 2024, Month: 1}},
	}

	same := InternetRecord{ID: "a", Period: Period{Year: 2024, Month: 0}}
	if err := CheckPeriodUnique(Internet, same, existing, true); err != nil {
		t.Fatalf("updating a record in place must pass: %v", err)
	}

	clash := InternetRecord{ID: "a", Period: Period{Year: 2024, Month: 1}}
	err := CheckPeriodUnique(Internet, clash, existing, true)
	if !errors.Is(err, ErrDuplicatePeriod) {
		t.Fatalf("expected duplicate on update, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Ya existe otro registro") {
		t.Fatalf("update message mismatch: %q", err.Error())
	}
}

func TestSortRecords(t *testing.T) {
	records := []WaterRecord{
		{ID: "1", Period: Period{Year: 2023, Month: 0}},
		{ID: "2", Period: Period{Year: 2024, Month: 0}},
		{ID: "3", Period: Period{Year: 2023, Month: 2}},
		{ID: "4", Period: Period{Year: 2024, Month: 2}},
	}
	SortRecords(records)
	want := []string{"Marzo 2024", "Enero 2024", "Marzo 2023", "Enero 2023"}
	for i, r := range records {
		if r.Period.String() != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, r.Period, want[i])
		}
	}
}

func TestSortedLeavesInputUntouched(t *testing.T) {
	in := []InternetRecord{
		{ID: "old", Period: Period{Year: 2022, Month: 5}},
		{ID: "new", Period: Period{Year: 2025, Month: 11}},
	}
	out := Sorted(in)
	if in[0].ID != "old" || out[0].ID != "new" {
		t.Fatalf("unexpected order: in=%v out=%v", in, out)
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"Enero", 0, true},
		{"diciembre", 11, true},
		{"3", 2, true},
		{"12", 11, true},
		{"0", 0, false},
		{"13", 0, false},
		{"January", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v (%v), want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}
