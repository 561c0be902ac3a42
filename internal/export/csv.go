// Package export renders records as CSV downloads and PDF summaries.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"cuentas/internal/core"
)

// File names offered to the browser.
const (
	ConsolidatedFilename = "historial_consolidado.csv"
	UsersFilename        = "lista_usuarios.csv"
)

// Filename returns the download name of a utility's CSV, e.g. historial_agua.csv.
func Filename(u core.Utility) string {
	return "historial_" + u.Slug() + ".csv"
}

var (
	waterHeader    = []string{"Año", "Mes", "Total Facturado", "Descuento", "Total a Pagar", "Estado"}
	internetHeader = []string{"Año", "Mes", "Costo Mensual", "Descuento", "Total a Pagar", "Estado"}

	electricityHeader = []string{
		"Año", "Mes", "Total Facturado", "Consumo kWh", "Costo kWh",
		"Contador Anterior", "Contador Actual", "Consumo Contador",
		"Descuento", "Total a Pagar", "Estado",
	}

	consolidatedHeader = []string{"Año", "Mes", "Agua", "Electricidad", "Internet", "Total del Mes"}
	usersHeader        = []string{"Correo Electrónico", "Nombre", "Perfil", "Estado"}
)

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func periodCols(p core.Period) []string {
	return []string{strconv.Itoa(p.Year), p.Month.String()}
}

// WriteWater writes one row per record, most recent first.
func WriteWater(w io.Writer, records []core.WaterRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range core.Sorted(records) {
		rows = append(rows, append(periodCols(r.Period),
			r.TotalInvoiced.String(), r.Discount.String(), r.TotalToPay.String(), string(r.Status)))
	}
	return writeAll(w, waterHeader, rows)
}

func WriteElectricity(w io.Writer, records []core.ElectricityRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range core.Sorted(records) {
		rows = append(rows, append(periodCols(r.Period),
			r.TotalInvoiced.String(),
			strconv.FormatFloat(r.KWhConsumption, 'f', -1, 64),
			r.KWhCost.String(),
			strconv.FormatInt(r.PreviousMeter, 10),
			strconv.FormatInt(r.CurrentMeter, 10),
			strconv.FormatInt(r.ConsumptionMeter, 10),
			r.Discount.String(),
			r.TotalToPay.String(),
			string(r.Status)))
	}
	return writeAll(w, electricityHeader, rows)
}

func WriteInternet(w io.Writer, records []core.InternetRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range core.Sorted(records) {
		rows = append(rows, append(periodCols(r.Period),
			r.MonthlyCost.String(), r.Discount.String(), r.TotalToPay.String(), string(r.Status)))
	}
	return writeAll(w, internetHeader, rows)
}

// WriteConsolidated writes the month-by-month history. Rows are expected in
// the order core.Consolidate returns them.
func WriteConsolidated(w io.Writer, history []core.HistoryRow) error {
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, append(periodCols(h.Period),
			h.Water.String(), h.Electricity.String(), h.Internet.String(), h.Total.String()))
	}
	return writeAll(w, consolidatedHeader, rows)
}

func WriteUsers(w io.Writer, users []core.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Email, u.Name, string(u.Role), string(u.Status)})
	}
	return writeAll(w, usersHeader, rows)
}
