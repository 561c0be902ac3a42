package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out Money
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"25,50", 2550, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{",5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{".", 0, false},
		{"", 0, false},
		{"1.٣", 0, false},
		{"１2", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		m       Money
		str     string
		display string
	}{
		{2350, "23.50", "23,50 €"},
		{5, "0.05", "0,05 €"},
		{0, "0.00", "0,00 €"},
		{-150, "-1.50", "-1,50 €"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.str {
			t.Errorf("String(%d) = %q, want %q", tc.m, got, tc.str)
		}
		if got := tc.m.Display(); got != tc.display {
			t.Errorf("Display(%d) = %q, want %q", tc.m, got, tc.display)
		}
	}
	if (Money(2550)).Euros() != 25.5 {
		t.Fatalf("Euros mismatch")
	}
}
