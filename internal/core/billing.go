package core

import "math"

// WaterTotal is max(totalInvoiced - discount, 0).
func WaterTotal(totalInvoiced, discount Money) Money {
	return maxMoney(totalInvoiced-discount, 0)
}

// InternetTotal is max(monthlyCost - discount, 0).
func InternetTotal(monthlyCost, discount Money) Money {
	return maxMoney(monthlyCost-discount, 0)
}

// ElectricityInput holds the raw fields a user enters for an electricity bill.
type ElectricityInput struct {
	TotalInvoiced  Money
	KWhConsumption float64
	PreviousMeter  int64
	CurrentMeter   int64
	Discount       Money
}

// ElectricityBreakdown is the derived side of an electricity bill.
type ElectricityBreakdown struct {
	ConsumptionMeter int64
	// KWhCostCents is the exact cost per kWh in cents, used for the subtotal.
	KWhCostCents float64
	// KWhCost is KWhCostCents rounded to the cent, as persisted.
	KWhCost       Money
	SubtotalCents float64
	TotalToPay    Money
}

// ComputeElectricity derives the payable total from meter readings and the invoice.
//
// Order matters: the meter delta is rounded to whole kWh first, then multiplied
// by the unrounded cost per kWh; only the final total is rounded to cents. A zero
// kWh consumption yields a zero cost per kWh, never a division error.
func ComputeElectricity(in ElectricityInput) ElectricityBreakdown {
	var b ElectricityBreakdown

	if in.CurrentMeter > in.PreviousMeter {
		b.ConsumptionMeter = int64(math.Round(float64(in.CurrentMeter - in.PreviousMeter)))
	}

	if in.TotalInvoiced > 0 && in.KWhConsumption > 0 {
		b.KWhCostCents = float64(in.TotalInvoiced) / in.KWhConsumption
	}
	b.KWhCost = roundCents(b.KWhCostCents)

	b.SubtotalCents = float64(b.ConsumptionMeter) * b.KWhCostCents
	total := b.SubtotalCents - float64(in.Discount)
	if total < 0 {
		total = 0
	}
	b.TotalToPay = roundCents(total)
	return b
}

func roundCents(v float64) Money {
	return Money(math.Round(v))
}
