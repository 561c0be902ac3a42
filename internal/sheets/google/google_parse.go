package google

import (
	"fmt"
	"strings"

	"cuentas/internal/core"
)

// parseHistory converts a values matrix (as returned by Sheets API) back into
// history rows. It expects a header row with Mes, Agua, Electricidad and
// Internet; the total column is recomputed rather than trusted.
func parseHistory(values [][]any, year int) ([]core.HistoryRow, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	var missing []string
	for _, name := range []string{"Mes", "Agua", "Electricidad", "Internet"} {
		idx := indexOf(headers, name)
		if idx == -1 {
			missing = append(missing, name)
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected history header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.HistoryRow
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		month, err := core.ParseMonth(safeGet(row, cols["Mes"]))
		if err != nil {
			continue
		}
		h := core.HistoryRow{Period: core.Period{Year: year, Month: month}}
		h.Water, _ = parseEurosToCents(safeGet(row, cols["Agua"]))
		h.Electricity, _ = parseEurosToCents(safeGet(row, cols["Electricidad"]))
		h.Internet, _ = parseEurosToCents(safeGet(row, cols["Internet"]))
		h.Total = h.Water + h.Electricity + h.Internet
		out = append(out, h)
	}
	core.SortRecords(out)
	return out, nil
}
