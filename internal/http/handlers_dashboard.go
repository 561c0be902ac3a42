package http

import (
	"context"
	"net/http"
	"time"

	"cuentas/internal/core"
	"cuentas/internal/insights"
)

// handleDashboard renders the yearly summary; ?year= selects the year.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year := ParseYearParam(r.URL.Query(), 0)
	view := s.ledger.Dashboard(year)
	s.render(w, r, "dashboard", http.StatusOK, s.page(r, "Resumen", "dashboard", view))
}

type historyView struct {
	Year    int
	Years   []int
	Rows    []core.HistoryRow
	Totals  core.HistoryRow
	AllTime bool
}

// handleHistory shows the consolidated month-by-month table. Without ?year=
// every year is listed.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	year := ParseYearParam(r.URL.Query(), 0)
	rows := s.ledger.History(year)

	view := historyView{
		Year:    year,
		Years:   s.ledger.Dashboard(0).Years,
		Rows:    rows,
		AllTime: year == 0,
	}
	for _, row := range rows {
		view.Totals.Water += row.Water
		view.Totals.Electricity += row.Electricity
		view.Totals.Internet += row.Internet
		view.Totals.Total += row.Total
	}
	s.render(w, r, "history", http.StatusOK, s.page(r, "Historial", "history", view))
}

// handleInsights asks the language model for commentary on the latest bills.
// It always answers 200: failures degrade to the fallback text.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 45*time.Second)
	defer cancel()

	text := insights.Fallback
	if s.insights != nil {
		snap := s.ledger.Snapshot()
		text = s.insights.Generate(ctx, snap.Water, snap.Electricity, snap.Internet)
	}
	s.render(w, r, "insights", http.StatusOK, struct {
		Text     string
		Fallback bool
	}{text, text == insights.Fallback})
}
