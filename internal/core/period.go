package core

import (
	"fmt"
	"sort"
)

// DuplicatePeriodError names the utility and period that already has a record.
type DuplicatePeriodError struct {
	Utility Utility
	Period  Period
	Update  bool
}

func (e *DuplicatePeriodError) Error() string {
	if e.Update {
		return fmt.Sprintf("Ya existe otro registro de %s para %s.", e.Utility.Label(), e.Period)
	}
	return fmt.Sprintf("Ya existe un registro de %s para %s.", e.Utility.Label(), e.Period)
}

func (e *DuplicatePeriodError) Unwrap() error { return ErrDuplicatePeriod }

// CheckPeriodUnique rejects a candidate whose (year, month) already belongs to
// another record of the same utility. On update the record with the candidate's
// own ID is ignored.
func CheckPeriodUnique[R Record](u Utility, candidate R, existing []R, isUpdate bool) error {
	p := candidate.RecordPeriod()
	for _, r := range existing {
		if isUpdate && r.RecordID() == candidate.RecordID() {
			continue
		}
		if r.RecordPeriod() == p {
			return &DuplicatePeriodError{Utility: u, Period: p, Update: isUpdate}
		}
	}
	return nil
}

// ComparePeriods orders periods chronologically: negative if a is earlier.
func ComparePeriods(a, b Period) int {
	if a.Year != b.Year {
		return a.Year - b.Year
	}
	return int(a.Month) - int(b.Month)
}

// SortRecords orders records most recent first: year descending, then month
// descending. Ties keep their input order.
func SortRecords[R Record](records []R) {
	sort.SliceStable(records, func(i, j int) bool {
		return ComparePeriods(records[i].RecordPeriod(), records[j].RecordPeriod()) > 0
	})
}

// Sorted returns a sorted copy, leaving the input untouched.
func Sorted[R Record](records []R) []R {
	out := make([]R, len(records))
	copy(out, records)
	SortRecords(out)
	return out
}
