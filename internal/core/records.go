package core

import (
	"math"
	"time"
)

// Record is implemented by every billing record kind.
type Record interface {
	RecordID() string
	RecordPeriod() Period
}

// WaterRecord is one monthly water bill.
type WaterRecord struct {
	ID            string `json:"id" dynamodbav:"id"`
	Period        Period `json:"period" dynamodbav:"period"`
	TotalInvoiced Money  `json:"totalInvoiced" dynamodbav:"total_invoiced"`
	Discount      Money  `json:"discount" dynamodbav:"discount"`
	TotalToPay    Money  `json:"totalToPay" dynamodbav:"total_to_pay"`
	Status        Status `json:"status" dynamodbav:"status"`
}

func (r WaterRecord) RecordID() string     { return r.ID }
func (r WaterRecord) RecordPeriod() Period { return r.Period }

// Apply recomputes derived fields.
func (r *WaterRecord) Apply() {
	r.TotalToPay = WaterTotal(r.TotalInvoiced, r.Discount)
}

// Normalize fills defaults and derived fields once at the data-access boundary.
func (r *WaterRecord) Normalize() {
	if r.Status == "" {
		r.Status = Pending
	}
	r.Apply()
}

func (r WaterRecord) Validate(now time.Time) error {
	if err := validatePeriod(r.Period, now); err != nil {
		return err
	}
	if err := validateAmount("totalInvoiced", r.TotalInvoiced); err != nil {
		return err
	}
	if err := validateAmount("discount", r.Discount); err != nil {
		return err
	}
	return validateStatus(r.Status)
}

// ElectricityRecord is one monthly electricity bill with meter readings.
type ElectricityRecord struct {
	ID               string  `json:"id" dynamodbav:"id"`
	Period           Period  `json:"period" dynamodbav:"period"`
	TotalInvoiced    Money   `json:"totalInvoiced" dynamodbav:"total_invoiced"`
	KWhConsumption   float64 `json:"kwhConsumption" dynamodbav:"kwh_consumption"`
	PreviousMeter    int64   `json:"previousMeter" dynamodbav:"previous_meter"`
	CurrentMeter     int64   `json:"currentMeter" dynamodbav:"current_meter"`
	ConsumptionMeter int64   `json:"consumptionMeter" dynamodbav:"consumption_meter"`
	KWhCost          Money   `json:"kwhCost" dynamodbav:"kwh_cost"`
	Discount         Money   `json:"discount" dynamodbav:"discount"`
	TotalToPay       Money   `json:"totalToPay" dynamodbav:"total_to_pay"`
	Status           Status  `json:"status" dynamodbav:"status"`
}

func (r ElectricityRecord) RecordID() string     { return r.ID }
func (r ElectricityRecord) RecordPeriod() Period { return r.Period }

// Input returns the raw user-entered fields of the record.
func (r ElectricityRecord) Input() ElectricityInput {
	return ElectricityInput{
		TotalInvoiced:  r.TotalInvoiced,
		KWhConsumption: r.KWhConsumption,
		PreviousMeter:  r.PreviousMeter,
		CurrentMeter:   r.CurrentMeter,
		Discount:       r.Discount,
	}
}

// Apply recomputes consumption, cost per kWh and total.
func (r *ElectricityRecord) Apply() {
	b := ComputeElectricity(r.Input())
	r.ConsumptionMeter = b.ConsumptionMeter
	r.KWhCost = b.KWhCost
	r.TotalToPay = b.TotalToPay
}

func (r *ElectricityRecord) Normalize() {
	if r.Status == "" {
		r.Status = Pending
	}
	r.Apply()
}

func (r ElectricityRecord) Validate(now time.Time) error {
	if err := validatePeriod(r.Period, now); err != nil {
		return err
	}
	if err := validateAmount("totalInvoiced", r.TotalInvoiced); err != nil {
		return err
	}
	if math.IsNaN(r.KWhConsumption) || math.IsInf(r.KWhConsumption, 0) {
		return invalid("kwhConsumption", "Debe ser un número.", ErrInvalidAmount)
	}
	if r.KWhConsumption < 0 {
		return invalid("kwhConsumption", msgNonNegative, ErrInvalidAmount)
	}
	if r.PreviousMeter < 0 {
		return invalid("previousMeter", msgNonNegative, ErrInvalidMeter)
	}
	if r.CurrentMeter < 0 {
		return invalid("currentMeter", msgNonNegative, ErrInvalidMeter)
	}
	if r.CurrentMeter < r.PreviousMeter {
		return invalid("currentMeter", "El contador actual debe ser mayor o igual que el contador anterior.", ErrMeterRegression)
	}
	if err := validateAmount("discount", r.Discount); err != nil {
		return err
	}
	return validateStatus(r.Status)
}

// InternetRecord is one monthly internet bill.
type InternetRecord struct {
	ID          string `json:"id" dynamodbav:"id"`
	Period      Period `json:"period" dynamodbav:"period"`
	MonthlyCost Money  `json:"monthlyCost" dynamodbav:"monthly_cost"`
	Discount    Money  `json:"discount" dynamodbav:"discount"`
	TotalToPay  Money  `json:"totalToPay" dynamodbav:"total_to_pay"`
	Status      Status `json:"status" dynamodbav:"status"`
}

func (r InternetRecord) RecordID() string     { return r.ID }
func (r InternetRecord) RecordPeriod() Period { return r.Period }

func (r *InternetRecord) Apply() {
	r.TotalToPay = InternetTotal(r.MonthlyCost, r.Discount)
}

func (r *InternetRecord) Normalize() {
	if r.Status == "" {
		r.Status = Pending
	}
	r.Apply()
}

func (r InternetRecord) Validate(now time.Time) error {
	if err := validatePeriod(r.Period, now); err != nil {
		return err
	}
	if err := validateAmount("monthlyCost", r.MonthlyCost); err != nil {
		return err
	}
	if err := validateAmount("discount", r.Discount); err != nil {
		return err
	}
	return validateStatus(r.Status)
}

// FixedValues are the defaults applied when a new record is initialized.
type FixedValues struct {
	WaterDiscount       Money `json:"waterDiscount" yaml:"waterDiscount"`
	InternetMonthlyCost Money `json:"internetMonthlyCost" yaml:"internetMonthlyCost"`
}

// DefaultFixedValues mirrors the first-use configuration: no water discount, 40 € internet.
func DefaultFixedValues() FixedValues {
	return FixedValues{WaterDiscount: 0, InternetMonthlyCost: 4000}
}

func (f FixedValues) Validate() error {
	if err := validateAmount("waterDiscount", f.WaterDiscount); err != nil {
		return err
	}
	return validateAmount("internetMonthlyCost", f.InternetMonthlyCost)
}

// NextPreviousMeter returns the current meter of the most recent record, or 0.
func NextPreviousMeter(records []ElectricityRecord) int64 {
	var (
		latest ElectricityRecord
		found  bool
	)
	for _, r := range records {
		if !found || ComparePeriods(r.Period, latest.Period) > 0 {
			latest, found = r, true
		}
	}
	if !found {
		return 0
	}
	return latest.CurrentMeter
}
