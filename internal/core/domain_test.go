package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

var refNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestElectricityValidate(t *testing.T) {
	base := ElectricityRecord{
		Period:         Period{Year: 2025, Month: 4},
		TotalInvoiced:  10000,
		KWhConsumption: 50,
		PreviousMeter:  1000,
		CurrentMeter:   1120,
		Status:         Pending,
	}
	if err := base.Validate(refNow); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(r *ElectricityRecord)
		want   error
	}{
		{"meter regression", func(r *ElectricityRecord) { r.CurrentMeter = 999 }, ErrMeterRegression},
		{"negative previous meter", func(r *ElectricityRecord) { r.PreviousMeter = -1; r.CurrentMeter = 0 }, ErrInvalidMeter},
		{"negative kwh", func(r *ElectricityRecord) { r.KWhConsumption = -0.5 }, ErrInvalidAmount},
		{"NaN kwh", func(r *ElectricityRecord) { r.KWhConsumption = math.NaN() }, ErrInvalidAmount},
		{"infinite kwh", func(r *ElectricityRecord) { r.KWhConsumption = math.Inf(1) }, ErrInvalidAmount},
		{"negative invoice", func(r *ElectricityRecord) { r.TotalInvoiced = -1 }, ErrInvalidAmount},
		{"year too old", func(r *ElectricityRecord) { r.Period.Year = 1999 }, ErrInvalidYear},
		{"year too far ahead", func(r *ElectricityRecord) { r.Period.Year = 2027 }, ErrInvalidYear},
		{"bad month", func(r *ElectricityRecord) { r.Period.Month = 12 }, ErrInvalidMonth},
		{"bad status", func(r *ElectricityRecord) { r.Status = "Quizás" }, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			tc.mutate(&r)
			err := r.Validate(refNow)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message == "" {
				t.Fatalf("expected a ValidationError with a message, got %v", err)
			}
		})
	}
}

func TestNextYearIsAccepted(t *testing.T) {
	w := WaterRecord{Period: Period{Year: 2026, Month: 0}, Status: Paid}
	if err := w.Validate(refNow); err != nil {
		t.Fatalf("currentYear+1 should be accepted: %v", err)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	r := InternetRecord{Period: Period{Year: 2024, Month: 5}, MonthlyCost: 4000}
	r.Normalize()
	if r.Status != Pending {
		t.Fatalf("status = %q, want Pendiente", r.Status)
	}
	if r.TotalToPay != 4000 {
		t.Fatalf("total = %d, want 4000", r.TotalToPay)
	}
}

func TestNextPreviousMeter(t *testing.T) {
	if got := NextPreviousMeter(nil); got != 0 {
		t.Fatalf("empty history should seed 0, got %d", got)
	}
	records := []ElectricityRecord{
		{Period: Period{Year: 2024, Month: 10}, CurrentMeter: 900},
		{Period: Period{Year: 2025, Month: 0}, CurrentMeter: 1100},
		{Period: Period{Year: 2024, Month: 11}, CurrentMeter: 1000},
	}
	if got := NextPreviousMeter(records); got != 1100 {
		t.Fatalf("got %d, want 1100", got)
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Email: "ana@example.com", Role: RoleViewer, Status: UserActive}
	if err := u.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	u.Email = "not-an-email"
	if err := u.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if UserActive.Toggle() != UserInactive || UserInactive.Toggle() != UserActive {
		t.Fatalf("toggle mismatch")
	}
	if (User{Role: RoleEditor, Status: UserInactive}).CanEdit() {
		t.Fatalf("inactive editor must not edit")
	}
}
