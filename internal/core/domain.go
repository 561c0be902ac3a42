package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Utility identifies one of the independently tracked expense categories.
type Utility string

const (
	Water       Utility = "water"
	Electricity Utility = "electricity"
	Internet    Utility = "internet"
)

// Utilities lists every utility in display order.
var Utilities = []Utility{Water, Electricity, Internet}

// Label returns the Spanish name used in messages and headers.
func (u Utility) Label() string {
	switch u {
	case Water:
		return "agua"
	case Electricity:
		return "electricidad"
	case Internet:
		return "internet"
	}
	return string(u)
}

// Slug is the path segment used by the web UI.
func (u Utility) Slug() string {
	if u == Water {
		return "agua"
	}
	if u == Electricity {
		return "electricidad"
	}
	return string(u)
}

func (u Utility) IsValid() bool {
	return u == Water || u == Electricity || u == Internet
}

// ParseUtility accepts the collection name or the Spanish slug.
func ParseUtility(s string) (Utility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "water", "agua":
		return Water, nil
	case "electricity", "electricidad", "luz":
		return Electricity, nil
	case "internet":
		return Internet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUtility, s)
}

// Month is a calendar month, Enero=0 through Diciembre=11.
type Month int

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Months returns all twelve months in calendar order.
func Months() []Month {
	out := make([]Month, 12)
	for i := range out {
		out[i] = Month(i)
	}
	return out
}

func (m Month) Valid() bool { return m >= 0 && m < 12 }

func (m Month) String() string {
	if !m.Valid() {
		return "Mes(" + strconv.Itoa(int(m)) + ")"
	}
	return monthNames[m]
}

// MonthOf converts a time.Month.
func MonthOf(t time.Month) Month { return Month(int(t) - 1) }

// ParseMonth accepts a Spanish month name (case-insensitive) or its 1-based number.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, ErrInvalidMonth
		}
		return Month(n - 1), nil
	}
	for i, name := range monthNames {
		if strings.EqualFold(name, s) {
			return Month(i), nil
		}
	}
	return 0, ErrInvalidMonth
}

// Period identifies one billing cycle.
type Period struct {
	Year  int   `json:"year" dynamodbav:"year"`
	Month Month `json:"month" dynamodbav:"month"`
}

func (p Period) String() string { return fmt.Sprintf("%s %d", p.Month, p.Year) }

// Key is a sortable compact form, e.g. "2024-03" for Marzo 2024.
func (p Period) Key() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)+1) }

// Status of a bill.
type Status string

const (
	Pending Status = "Pendiente"
	Paid    Status = "Pagado"
)

func (s Status) Valid() bool { return s == Pending || s == Paid }

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pendiente", "pending":
		return Pending, nil
	case "pagado", "paid":
		return Paid, nil
	}
	return "", ErrInvalidStatus
}

// MinYear is the earliest accepted billing year.
const MinYear = 2000

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidMeter    = errors.New("invalid meter reading")
	ErrMeterRegression = errors.New("current meter below previous meter")
	ErrUnknownUtility  = errors.New("unknown utility")
	ErrDuplicatePeriod = errors.New("duplicate period")
)

// ValidationError reports a rejected field with a user-facing message.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, msg string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: msg, Err: err}
}

const msgNonNegative = "Debe ser un número positivo."

func validatePeriod(p Period, now time.Time) error {
	maxYear := now.Year() + 1
	if p.Year < MinYear || p.Year > maxYear {
		return invalid("year", fmt.Sprintf("El año debe estar entre %d y %d.", MinYear, maxYear), ErrInvalidYear)
	}
	if !p.Month.Valid() {
		return invalid("month", "Selecciona un mes válido.", ErrInvalidMonth)
	}
	return nil
}

func validateAmount(field string, m Money) error {
	if m < 0 {
		return invalid(field, msgNonNegative, ErrInvalidAmount)
	}
	return nil
}

func validateStatus(s Status) error {
	if !s.Valid() {
		return invalid("status", "Estado no válido.", ErrInvalidStatus)
	}
	return nil
}
