package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"cuentas/internal/core"
)

func readCSV(t *testing.T, b *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(b).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestWriteWaterOrdersMostRecentFirst(t *testing.T) {
	records := []core.WaterRecord{
		{Period: core.Period{Year: 2023, Month: 11}, TotalInvoiced: 3000, Discount: 500, TotalToPay: 2500, Status: core.Paid},
		{Period: core.Period{Year: 2024, Month: 1}, TotalInvoiced: 2000, TotalToPay: 2000, Status: core.Pending},
		{Period: core.Period{Year: 2024, Month: 0}, TotalInvoiced: 1000, TotalToPay: 1000, Status: core.Pending},
	}
	var buf bytes.Buffer
	if err := WriteWater(&buf, records); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, &buf)
	if strings.Join(rows[0], ",") != "Año,Mes,Total Facturado,Descuento,Total a Pagar,Estado" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	want := []string{
		"2024,Febrero,20.00,0.00,20.00,Pendiente",
		"2024,Enero,10.00,0.00,10.00,Pendiente",
		"2023,Diciembre,30.00,5.00,25.00,Pagado",
	}
	for i, w := range want {
		if got := strings.Join(rows[i+1], ","); got != w {
			t.Fatalf("row %d = %q, want %q", i+1, got, w)
		}
	}
	if records[0].Period.Year != 2023 {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestWriteElectricity(t *testing.T) {
	r := core.ElectricityRecord{
		Period: core.Period{Year: 2024, Month: 2}, TotalInvoiced: 10000, KWhConsumption: 50.5,
		PreviousMeter: 1000, CurrentMeter: 1120, Discount: 500, Status: core.Pending,
	}
	r.Apply()
	var buf bytes.Buffer
	if err := WriteElectricity(&buf, []core.ElectricityRecord{r}); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, &buf)
	if len(rows[0]) != 11 || rows[0][3] != "Consumo kWh" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if got := strings.Join(rows[1], ","); got != "2024,Marzo,100.00,50.5,1.98,1000,1120,120,5.00,232.62,Pendiente" {
		t.Fatalf("unexpected row %q", got)
	}
}

func TestWriteConsolidated(t *testing.T) {
	water := []core.WaterRecord{{Period: core.Period{Year: 2024, Month: 0}, TotalToPay: 2500}}
	inet := []core.InternetRecord{
		{Period: core.Period{Year: 2024, Month: 0}, MonthlyCost: 4000, TotalToPay: 3500},
		{Period: core.Period{Year: 2024, Month: 1}, MonthlyCost: 4000, TotalToPay: 4000},
		{Period: core.Period{Year: 2023, Month: 1}, MonthlyCost: 4000, TotalToPay: 4000},
	}
	var buf bytes.Buffer
	if err := WriteConsolidated(&buf, core.Consolidate(water, nil, inet, 2024)); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, &buf)
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = strings.Join(r, ",")
	}
	want := []string{
		"Año,Mes,Agua,Electricidad,Internet,Total del Mes",
		"2024,Febrero,0.00,0.00,40.00,40.00",
		"2024,Enero,25.00,0.00,35.00,60.00",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestFilenames(t *testing.T) {
	tests := map[core.Utility]string{
		core.Water:       "historial_agua.csv",
		core.Electricity: "historial_electricidad.csv",
		core.Internet:    "historial_internet.csv",
	}
	for u, want := range tests {
		if got := Filename(u); got != want {
			t.Fatalf("Filename(%s) = %q, want %q", u, got, want)
		}
	}
	if got := PDFFilename(core.Period{Year: 2024, Month: 2}); got != "resumen_2024_03.pdf" {
		t.Fatalf("PDFFilename = %q", got)
	}
}

func TestMonthlySummary(t *testing.T) {
	p := core.Period{Year: 2024, Month: 2}
	water := []core.WaterRecord{{Period: p, TotalInvoiced: 3000, TotalToPay: 3000, Status: core.Paid}}
	inet := []core.InternetRecord{{Period: core.Period{Year: 2024, Month: 1}, MonthlyCost: 4000, TotalToPay: 4000}}

	s := NewMonthlySummary(p, water, nil, inet)
	if s.Water == nil || s.Internet != nil || s.Total() != 3000 || len(s.Year) != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}

	doc, err := MonthlyPDF(s)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
