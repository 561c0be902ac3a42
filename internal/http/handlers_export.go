package http

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cuentas/internal/core"
	"cuentas/internal/export"
	"cuentas/internal/log"
)

// attachment writes body as a download.
func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

const csvType = "text/csv; charset=utf-8"

// handleExportUtility serves /export/agua.csv, /export/electricidad.csv and /export/internet.csv.
func (s *Server) handleExportUtility(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".csv")
	if !ok {
		NotFoundError("Página no encontrada.").Write(w)
		return
	}
	u, err := core.ParseUtility(name)
	if err != nil {
		NotFoundError("Página no encontrada.").Write(w)
		return
	}

	var buf bytes.Buffer
	switch u {
	case core.Water:
		err = export.WriteWater(&buf, s.ledger.Water())
	case core.Electricity:
		err = export.WriteElectricity(&buf, s.ledger.Electricity())
	case core.Internet:
		err = export.WriteInternet(&buf, s.ledger.Internet())
	}
	if err != nil {
		s.writeError(w, r, "export_csv", err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "CSV exported", log.FieldUtility, u, "bytes", buf.Len())
	attachment(w, csvType, export.Filename(u), buf.Bytes())
}

// handleExportConsolidated serves the consolidated history; ?year= narrows it to one year.
func (s *Server) handleExportConsolidated(w http.ResponseWriter, r *http.Request) {
	year := ParseYearParam(r.URL.Query(), 0)
	var buf bytes.Buffer
	if err := export.WriteConsolidated(&buf, s.ledger.History(year)); err != nil {
		s.writeError(w, r, "export_csv", err)
		return
	}
	attachment(w, csvType, export.ConsolidatedFilename, buf.Bytes())
}

// handleExportSummary renders the monthly PDF for ?year=&month= (default: this month).
func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	p := ParsePeriodParams(r.URL.Query(), s.now())
	snap := s.ledger.Snapshot()
	body, err := export.MonthlyPDF(export.NewMonthlySummary(p, snap.Water, snap.Electricity, snap.Internet))
	if err != nil {
		s.writeError(w, r, "export_pdf", err)
		return
	}
	attachment(w, "application/pdf", export.PDFFilename(p), body)
}

func (s *Server) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteUsers(&buf, users); err != nil {
		s.writeError(w, r, "export_csv", err)
		return
	}
	attachment(w, csvType, export.UsersFilename, buf.Bytes())
}
