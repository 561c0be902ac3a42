package core

import "sort"

// HistoryRow is one month of the consolidated history.
type HistoryRow struct {
	Period      Period
	Water       Money
	Electricity Money
	Internet    Money
	Total       Money
}

func (h HistoryRow) RecordID() string     { return h.Period.Key() }
func (h HistoryRow) RecordPeriod() Period { return h.Period }

// Consolidate groups the three collections by period. A year <= 0 keeps every year.
// Rows come back most recent first.
func Consolidate(water []WaterRecord, elec []ElectricityRecord, inet []InternetRecord, year int) []HistoryRow {
	rows := make(map[Period]*HistoryRow)
	row := func(p Period) *HistoryRow {
		r, ok := rows[p]
		if !ok {
			r = &HistoryRow{Period: p}
			rows[p] = r
		}
		return r
	}
	keep := func(p Period) bool { return year <= 0 || p.Year == year }

	for _, w := range water {
		if keep(w.Period) {
			row(w.Period).Water += w.TotalToPay
		}
	}
	for _, e := range elec {
		if keep(e.Period) {
			row(e.Period).Electricity += e.TotalToPay
		}
	}
	for _, i := range inet {
		if keep(i.Period) {
			row(i.Period).Internet += i.TotalToPay
		}
	}

	out := make([]HistoryRow, 0, len(rows))
	for _, r := range rows {
		r.Total = r.Water + r.Electricity + r.Internet
		out = append(out, *r)
	}
	SortRecords(out)
	return out
}

// YearTotals backs the dashboard stat cards.
type YearTotals struct {
	Year        int
	Water       Money
	Electricity Money
	Internet    Money
	Total       Money
	Pending     Money
}

// TotalsForYear sums totals to pay per utility for one year. Pending sums the unpaid bills.
func TotalsForYear(water []WaterRecord, elec []ElectricityRecord, inet []InternetRecord, year int) YearTotals {
	t := YearTotals{Year: year}
	for _, w := range water {
		if w.Period.Year == year {
			t.Water += w.TotalToPay
			if w.Status != Paid {
				t.Pending += w.TotalToPay
			}
		}
	}
	for _, e := range elec {
		if e.Period.Year == year {
			t.Electricity += e.TotalToPay
			if e.Status != Paid {
				t.Pending += e.TotalToPay
			}
		}
	}
	for _, i := range inet {
		if i.Period.Year == year {
			t.Internet += i.TotalToPay
			if i.Status != Paid {
				t.Pending += i.TotalToPay
			}
		}
	}
	t.Total = t.Water + t.Electricity + t.Internet
	return t
}

// Years lists every year that has at least one record, newest first.
func Years(water []WaterRecord, elec []ElectricityRecord, inet []InternetRecord) []int {
	seen := make(map[int]struct{})
	for _, w := range water {
		seen[w.Period.Year] = struct{}{}
	}
	for _, e := range elec {
		seen[e.Period.Year] = struct{}{}
	}
	for _, i := range inet {
		seen[i.Period.Year] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Last returns at most n records, most recent first.
func Last[R Record](records []R, n int) []R {
	s := Sorted(records)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
