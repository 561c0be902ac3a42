package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	mcore "github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"cuentas/internal/core"
)

// MonthlySummary is the content of the printable monthly report.
type MonthlySummary struct {
	Period      core.Period
	Water       *core.WaterRecord
	Electricity *core.ElectricityRecord
	Internet    *core.InternetRecord
	// Year is the consolidated history of Period.Year, most recent first.
	Year []core.HistoryRow
}

// NewMonthlySummary picks the records of period p out of the collections.
func NewMonthlySummary(p core.Period, water []core.WaterRecord, elec []core.ElectricityRecord, inet []core.InternetRecord) MonthlySummary {
	s := MonthlySummary{Period: p, Year: core.Consolidate(water, elec, inet, p.Year)}
	for i := range water {
		if water[i].Period == p {
			s.Water = &water[i]
		}
	}
	for i := range elec {
		if elec[i].Period == p {
			s.Electricity = &elec[i]
		}
	}
	for i := range inet {
		if inet[i].Period == p {
			s.Internet = &inet[i]
		}
	}
	return s
}

// Total is what is owed for the month across utilities.
func (s MonthlySummary) Total() core.Money {
	var t core.Money
	if s.Water != nil {
		t += s.Water.TotalToPay
	}
	if s.Electricity != nil {
		t += s.Electricity.TotalToPay
	}
	if s.Internet != nil {
		t += s.Internet.TotalToPay
	}
	return t
}

// PDFFilename is e.g. resumen_2024_03.pdf.
func PDFFilename(p core.Period) string {
	return fmt.Sprintf("resumen_%04d_%02d.pdf", p.Year, int(p.Month)+1)
}

var (
	headText  = props.Text{Style: fontstyle.Bold, Size: 9}
	headRight = props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	cellText  = props.Text{Size: 9}
	cellRight = props.Text{Size: 9, Align: align.Right}
)

// MonthlyPDF renders s as an A4 document.
func MonthlyPDF(s MonthlySummary) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Resumen de "+s.Period.String(), props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(10,
		text.NewCol(3, "Servicio", headText),
		text.NewCol(3, "Importe base", headRight),
		text.NewCol(2, "Descuento", headRight),
		text.NewCol(2, "Total a Pagar", headRight),
		text.NewCol(2, "Estado", headRight),
	)
	if r := s.Water; r != nil {
		m.AddRow(8, billRow("Agua", r.TotalInvoiced, r.Discount, r.TotalToPay, r.Status)...)
	}
	if r := s.Electricity; r != nil {
		m.AddRow(8, billRow("Electricidad", r.TotalInvoiced, r.Discount, r.TotalToPay, r.Status)...)
		m.AddRow(8,
			text.NewCol(12, fmt.Sprintf("Contador %d → %d (%d kWh), %s/kWh",
				r.PreviousMeter, r.CurrentMeter, r.ConsumptionMeter, r.KWhCost.Display()), props.Text{Size: 8, Left: 4}),
		)
	}
	if r := s.Internet; r != nil {
		m.AddRow(8, billRow("Internet", r.MonthlyCost, r.Discount, r.TotalToPay, r.Status)...)
	}
	if s.Water == nil && s.Electricity == nil && s.Internet == nil {
		m.AddRow(8, text.NewCol(12, "No hay registros para este mes.", cellText))
	}

	m.AddRow(12,
		col.New(6),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}),
		text.NewCol(2, s.Total().Display(), props.Text{Style: fontstyle.Bold, Size: 10, Top: 3, Align: align.Right}),
		col.New(2),
	)

	if len(s.Year) > 0 {
		m.AddRow(16,
			text.NewCol(12, fmt.Sprintf("Historial %d", s.Period.Year), props.Text{Size: 12, Style: fontstyle.Bold, Top: 6}),
		)
		m.AddRow(10,
			text.NewCol(4, "Mes", headText),
			text.NewCol(2, "Agua", headRight),
			text.NewCol(2, "Electricidad", headRight),
			text.NewCol(2, "Internet", headRight),
			text.NewCol(2, "Total del Mes", headRight),
		)
		for _, h := range s.Year {
			m.AddRow(7,
				text.NewCol(4, h.Period.Month.String(), cellText),
				text.NewCol(2, h.Water.Display(), cellRight),
				text.NewCol(2, h.Electricity.Display(), cellRight),
				text.NewCol(2, h.Internet.Display(), cellRight),
				text.NewCol(2, h.Total.Display(), cellRight),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func billRow(label string, base, discount, total core.Money, status core.Status) []mcore.Col {
	return []mcore.Col{
		text.NewCol(3, label, cellText),
		text.NewCol(3, base.Display(), cellRight),
		text.NewCol(2, discount.Display(), cellRight),
		text.NewCol(2, total.Display(), cellRight),
		text.NewCol(2, string(status), cellRight),
	}
}
