package services

import (
	"slices"

	"cuentas/internal/core"
)

// DashboardView is everything the dashboard page shows for one year.
type DashboardView struct {
	Year        int
	Years       []int
	Totals      core.YearTotals
	History     []core.HistoryRow
	Water       []core.WaterRecord
	Electricity []core.ElectricityRecord
	Internet    []core.InternetRecord
	Stale       bool
}

// RecentLimit is how many records per utility the dashboard lists.
const RecentLimit = 6

// Dashboard builds the summary view for year, or for the current year when
// year is 0. The year selector always includes the current year.
func (l *Ledger) Dashboard(year int) DashboardView {
	snap := l.Snapshot()
	current := l.now().Year()
	if year <= 0 {
		year = current
	}

	years := core.Years(snap.Water, snap.Electricity, snap.Internet)
	if !slices.Contains(years, current) {
		years = append(years, current)
		slices.Sort(years)
		slices.Reverse(years)
	}

	return DashboardView{
		Year:        year,
		Years:       years,
		Totals:      core.TotalsForYear(snap.Water, snap.Electricity, snap.Internet, year),
		History:     core.Consolidate(snap.Water, snap.Electricity, snap.Internet, year),
		Water:       core.Last(snap.Water, RecentLimit),
		Electricity: core.Last(snap.Electricity, RecentLimit),
		Internet:    core.Last(snap.Internet, RecentLimit),
		Stale:       snap.Stale,
	}
}

// History is the consolidated month-by-month view. A year <= 0 keeps every year.
func (l *Ledger) History(year int) []core.HistoryRow {
	snap := l.Snapshot()
	return core.Consolidate(snap.Water, snap.Electricity, snap.Internet, year)
}
