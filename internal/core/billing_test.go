package core

import "testing"

func TestWaterAndInternetTotals(t *testing.T) {
	cases := []struct {
		name     string
		base     Money
		discount Money
		want     Money
	}{
		{"scenario", 2550, 200, 2350},
		{"no discount", 4000, 0, 4000},
		{"discount equals base", 1000, 1000, 0},
		{"discount above base floors at zero", 1000, 1500, 0},
		{"zero base", 0, 300, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WaterTotal(tc.base, tc.discount); got != tc.want {
				t.Fatalf("WaterTotal = %d, want %d", got, tc.want)
			}
			if got := InternetTotal(tc.base, tc.discount); got != tc.want {
				t.Fatalf("InternetTotal = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestComputeElectricity(t *testing.T) {
	cases := []struct {
		name        string
		in          ElectricityInput
		consumption int64
		kwhCost     Money
		subtotal    float64
		total       Money
	}{
		{
			name:        "reference bill",
			in:          ElectricityInput{TotalInvoiced: 10000, KWhConsumption: 50, PreviousMeter: 1000, CurrentMeter: 1120, Discount: 500},
			consumption: 120,
			kwhCost:     200,
			subtotal:    24000,
			total:       23500,
		},
		{
			name:        "zero kwh consumption gives zero cost",
			in:          ElectricityInput{TotalInvoiced: 10000, KWhConsumption: 0, PreviousMeter: 1000, CurrentMeter: 1500, Discount: 500},
			consumption: 500,
			kwhCost:     0,
			subtotal:    0,
			total:       0,
		},
		{
			name:        "zero invoice gives zero cost",
			in:          ElectricityInput{TotalInvoiced: 0, KWhConsumption: 80, PreviousMeter: 10, CurrentMeter: 20},
			consumption: 10,
			kwhCost:     0,
			total:       0,
		},
		{
			name:        "meter regression yields zero consumption",
			in:          ElectricityInput{TotalInvoiced: 5000, KWhConsumption: 100, PreviousMeter: 300, CurrentMeter: 200},
			consumption: 0,
			kwhCost:     50,
			total:       0,
		},
		{
			name:        "discount larger than subtotal floors at zero",
			in:          ElectricityInput{TotalInvoiced: 1000, KWhConsumption: 10, PreviousMeter: 0, CurrentMeter: 1, Discount: 5000},
			consumption: 1,
			kwhCost:     100,
			subtotal:    100,
			total:       0,
		},
		{
			// 100 € / 3 kWh = 3333.33... cents per kWh. The stored cost is 33.33 €,
			// but the total uses the exact figure: 7 * 3333.33... = 23333.33 -> 233.33 €.
			// Multiplying the rounded cost would give 233.31 €.
			name:        "total uses the unrounded cost per kwh",
			in:          ElectricityInput{TotalInvoiced: 10000, KWhConsumption: 3, PreviousMeter: 0, CurrentMeter: 7},
			consumption: 7,
			kwhCost:     3333,
			total:       23333,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := ComputeElectricity(tc.in)
			if b.ConsumptionMeter != tc.consumption {
				t.Fatalf("consumption = %d, want %d", b.ConsumptionMeter, tc.consumption)
			}
			if b.KWhCost != tc.kwhCost {
				t.Fatalf("kwhCost = %d, want %d", b.KWhCost, tc.kwhCost)
			}
			if tc.subtotal != 0 && b.SubtotalCents != tc.subtotal {
				t.Fatalf("subtotal = %v, want %v", b.SubtotalCents, tc.subtotal)
			}
			if b.TotalToPay != tc.total {
				t.Fatalf("total = %d, want %d", b.TotalToPay, tc.total)
			}
			if b.TotalToPay < 0 {
				t.Fatalf("total must never be negative")
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	r := ElectricityRecord{
		Period:         Period{Year: 2024, Month: 2},
		TotalInvoiced:  8765,
		KWhConsumption: 123.4,
		PreviousMeter:  4500,
		CurrentMeter:   4650,
		Discount:       150,
	}
	r.Apply()
	first := r
	r.Apply()
	if r != first {
		t.Fatalf("second Apply changed the record: %+v vs %+v", r, first)
	}

	w := WaterRecord{TotalInvoiced: 2550, Discount: 200}
	w.Apply()
	w.Apply()
	if w.TotalToPay != 2350 {
		t.Fatalf("water total = %d, want 2350", w.TotalToPay)
	}
}
