// Package http serves the web UI.
//
// This file turns submitted forms and query strings into domain values.
// Field problems come back as *core.ValidationError so handlers map them to 422.

package http

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cuentas/internal/auth"
	"cuentas/internal/core"
)

const (
	msgRequired  = "Este campo es obligatorio."
	msgNotNumber = "Debe ser un número positivo."
	msgBadYear   = "Introduce un año válido."
)

// formReader reads fields and keeps the first problem it meets.
type formReader struct {
	form url.Values
	err  error
}

func newFormReader(form url.Values) *formReader {
	return &formReader{form: form}
}

func (f *formReader) fail(field, msg string, err error) {
	if f.err == nil {
		f.err = &core.ValidationError{Field: field, Message: msg, Err: err}
	}
}

func (f *formReader) text(key string) string {
	return sanitizeInput(f.form.Get(key))
}

// money parses an amount; optional fields default to zero when empty.
func (f *formReader) money(key string, required bool) core.Money {
	v := f.text(key)
	if v == "" {
		if required {
			f.fail(key, msgRequired, core.ErrInvalidAmount)
		}
		return 0
	}
	m, err := core.ParseDecimalToCents(v)
	if err != nil {
		f.fail(key, msgNotNumber, core.ErrInvalidAmount)
		return 0
	}
	return m
}

func (f *formReader) decimal(key string) float64 {
	v := strings.ReplaceAll(f.text(key), ",", ".")
	if v == "" {
		f.fail(key, msgRequired, core.ErrInvalidAmount)
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		f.fail(key, msgNotNumber, core.ErrInvalidAmount)
		return 0
	}
	return n
}

func (f *formReader) meter(key string) int64 {
	v := f.text(key)
	if v == "" {
		f.fail(key, msgRequired, core.ErrInvalidMeter)
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f.fail(key, "Debe ser un número entero.", core.ErrInvalidMeter)
		return 0
	}
	return n
}

func (f *formReader) period() core.Period {
	var p core.Period
	y, err := strconv.Atoi(f.text("year"))
	if err != nil {
		f.fail("year", msgBadYear, core.ErrInvalidYear)
	}
	p.Year = y

	m, err := core.ParseMonth(f.text("month"))
	if err != nil {
		f.fail("month", "Selecciona un mes válido.", core.ErrInvalidMonth)
	}
	p.Month = m
	return p
}

func (f *formReader) status() core.Status {
	s, err := core.ParseStatus(f.text("status"))
	if err != nil {
		f.fail("status", "Estado no válido.", err)
	}
	return s
}

// ParseWaterForm reads a water bill. Derived fields are left to the ledger.
func ParseWaterForm(form url.Values) (core.WaterRecord, error) {
	f := newFormReader(form)
	r := core.WaterRecord{
		Period:        f.period(),
		TotalInvoiced: f.money("totalInvoiced", true),
		Discount:      f.money("discount", false),
		Status:        f.status(),
	}
	return r, f.err
}

func ParseElectricityForm(form url.Values) (core.ElectricityRecord, error) {
	f := newFormReader(form)
	r := core.ElectricityRecord{
		Period:         f.period(),
		TotalInvoiced:  f.money("totalInvoiced", true),
		KWhConsumption: f.decimal("kwhConsumption"),
		PreviousMeter:  f.meter("previousMeter"),
		CurrentMeter:   f.meter("currentMeter"),
		Discount:       f.money("discount", false),
		Status:         f.status(),
	}
	return r, f.err
}

func ParseInternetForm(form url.Values) (core.InternetRecord, error) {
	f := newFormReader(form)
	r := core.InternetRecord{
		Period:      f.period(),
		MonthlyCost: f.money("monthlyCost", true),
		Discount:    f.money("discount", false),
		Status:      f.status(),
	}
	return r, f.err
}

// ParseElectricityPreview reads the calculator inputs leniently: anything
// unparsable counts as zero so the preview can update on every keystroke.
func ParseElectricityPreview(form url.Values) core.ElectricityInput {
	f := newFormReader(form)
	return core.ElectricityInput{
		TotalInvoiced:  f.money("totalInvoiced", false),
		KWhConsumption: f.decimal("kwhConsumption"),
		PreviousMeter:  f.meter("previousMeter"),
		CurrentMeter:   f.meter("currentMeter"),
		Discount:       f.money("discount", false),
	}
}

func ParseFixedValuesForm(form url.Values) (core.FixedValues, error) {
	f := newFormReader(form)
	fv := core.FixedValues{
		WaterDiscount:       f.money("waterDiscount", true),
		InternetMonthlyCost: f.money("internetMonthlyCost", true),
	}
	return fv, f.err
}

// ParseNewUserForm reads the add-user form.
func ParseNewUserForm(form url.Values) (auth.NewUser, error) {
	f := newFormReader(form)
	in := auth.NewUser{
		Email:    f.text("email"),
		Name:     f.text("name"),
		Password: form.Get("password"),
	}
	role, err := core.ParseRole(f.text("role"))
	if err != nil {
		f.fail("role", "Rol no válido.", err)
	}
	in.Role = role
	if in.Email == "" {
		f.fail("email", msgRequired, core.ErrInvalidEmail)
	}
	return in, f.err
}

// ParseYearParam reads ?year=, falling back when absent or invalid.
func ParseYearParam(query url.Values, fallback int) int {
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= core.MinYear {
			return y
		}
	}
	return fallback
}

// ParsePeriodParams reads ?year=&month= (month 1-12 or a Spanish name),
// defaulting to the period containing now.
func ParsePeriodParams(query url.Values, now time.Time) core.Period {
	p := core.Period{Year: now.Year(), Month: core.MonthOf(now.Month())}
	p.Year = ParseYearParam(query, p.Year)
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := core.ParseMonth(v); err == nil {
			p.Month = m
		}
	}
	return p
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de solicitud no válido.")
	}
	return nil
}
