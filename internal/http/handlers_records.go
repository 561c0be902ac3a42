package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cuentas/internal/core"
	"cuentas/internal/log"
)

// recordPanel is the form plus table shown on a utility page. It is also the
// fragment htmx swaps after every save or delete.
type recordPanel struct {
	Utility core.Utility
	CanEdit bool
	Records any
	Form    any
	Editing bool
	Error   string
	Preview core.ElectricityBreakdown
}

func panelTemplate(u core.Utility) string {
	return string(u) + "_panel"
}

func (s *Server) utilityParam(w http.ResponseWriter, r *http.Request) (core.Utility, bool) {
	u, err := core.ParseUtility(chi.URLParam(r, "utility"))
	if err != nil {
		NotFoundError("Página no encontrada.").Write(w)
		return "", false
	}
	return u, true
}

// panel builds a fresh panel: the current records and either a new draft or,
// when editID names an existing record, that record.
func (s *Server) panel(ctx context.Context, u core.Utility, editID string, canEdit bool) recordPanel {
	p := recordPanel{Utility: u, CanEdit: canEdit}
	switch u {
	case core.Water:
		p.Records = s.ledger.Water()
		form := s.ledger.NewWaterDraft(ctx)
		if rec, ok := s.ledger.FindWater(editID); editID != "" && ok {
			form, p.Editing = rec, true
		}
		p.Form = form
	case core.Electricity:
		p.Records = s.ledger.Electricity()
		form := s.ledger.NewElectricityDraft(ctx)
		if rec, ok := s.ledger.FindElectricity(editID); editID != "" && ok {
			form, p.Editing = rec, true
		}
		p.Form = form
		p.Preview = core.ComputeElectricity(form.Input())
	case core.Internet:
		p.Records = s.ledger.Internet()
		form := s.ledger.NewInternetDraft(ctx)
		if rec, ok := s.ledger.FindInternet(editID); editID != "" && ok {
			form, p.Editing = rec, true
		}
		p.Form = form
	}
	return p
}

func (s *Server) handleRecordsPage(w http.ResponseWriter, r *http.Request) {
	u, ok := s.utilityParam(w, r)
	if !ok {
		return
	}
	pg := s.page(r, title(u), u.Slug(), nil)
	pg.Data = s.panel(r.Context(), u, r.URL.Query().Get("edit"), pg.CanEdit)
	s.render(w, r, "records", http.StatusOK, pg)
}

func title(u core.Utility) string {
	switch u {
	case core.Water:
		return "Agua"
	case core.Electricity:
		return "Electricidad"
	}
	return "Internet"
}

// handleSaveRecord creates a record (no id) or updates one (/{utility}/{id}).
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	u, ok := s.utilityParam(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "id")
	var (
		period    core.Period
		submitted any
		preview   core.ElectricityBreakdown
		err       error
	)

	switch u {
	case core.Water:
		var rec core.WaterRecord
		rec, err = ParseWaterForm(r.PostForm)
		rec.ID = id
		if err == nil {
			if id == "" {
				_, err = s.ledger.AddWater(ctx, rec)
			} else {
				_, err = s.ledger.UpdateWater(ctx, rec)
			}
		}
		period, submitted = rec.Period, rec
	case core.Electricity:
		var rec core.ElectricityRecord
		rec, err = ParseElectricityForm(r.PostForm)
		rec.ID = id
		if err == nil {
			if id == "" {
				_, err = s.ledger.AddElectricity(ctx, rec)
			} else {
				_, err = s.ledger.UpdateElectricity(ctx, rec)
			}
		}
		period, submitted = rec.Period, rec
		preview = core.ComputeElectricity(rec.Input())
	case core.Internet:
		var rec core.InternetRecord
		rec, err = ParseInternetForm(r.PostForm)
		rec.ID = id
		if err == nil {
			if id == "" {
				_, err = s.ledger.AddInternet(ctx, rec)
			} else {
				_, err = s.ledger.UpdateInternet(ctx, rec)
			}
		}
		period, submitted = rec.Period, rec
	}

	if err != nil {
		s.rejectRecord(w, r, u, id, submitted, preview, err)
		return
	}

	msg := "Registro guardado correctamente."
	if id != "" {
		msg = "Registro actualizado correctamente."
	}
	log.FromContext(ctx).InfoContext(ctx, "Record saved via web", log.FieldUtility, u, log.FieldYear, period.Year, log.FieldMonth, int(period.Month))

	if !isHTMX(r) {
		http.Redirect(w, r, "/"+u.Slug(), http.StatusSeeOther)
		return
	}
	s.writePanel(w, r, u, func(b *HTMXResponseBuilder) *HTMXResponseBuilder {
		return b.TriggerRecordSaved(u, period).TriggerFormReset().TriggerSuccessNotification(msg)
	})
}

// rejectRecord redisplays the submitted values with the reason they were refused.
func (s *Server) rejectRecord(w http.ResponseWriter, r *http.Request, u core.Utility, id string, submitted any, preview core.ElectricityBreakdown, err error) {
	status, msg := classify(err)
	if status != http.StatusUnprocessableEntity {
		s.writeError(w, r, "save_record", err)
		return
	}

	pg := s.page(r, title(u), u.Slug(), nil)
	p := s.panel(r.Context(), u, "", pg.CanEdit)
	p.Form, p.Editing, p.Error, p.Preview = submitted, id != "", msg, preview

	if !isHTMX(r) {
		pg.Data = p
		s.render(w, r, "records", status, pg)
		return
	}
	body, rerr := s.renderString(panelTemplate(u), p)
	if rerr != nil {
		s.writeError(w, r, log.OpRender, rerr)
		return
	}
	NewHTMXResponse().Status(status).TriggerErrorNotification(msg).BodyHTML(body).Write(w)
}

func (s *Server) writePanel(w http.ResponseWriter, r *http.Request, u core.Utility, decorate func(*HTMXResponseBuilder) *HTMXResponseBuilder) {
	canEdit := false
	if user, ok := userFrom(r.Context()); ok {
		canEdit = user.CanEdit()
	}
	body, err := s.renderString(panelTemplate(u), s.panel(r.Context(), u, "", canEdit))
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	decorate(NewHTMXResponse()).BodyHTML(body).Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	u, ok := s.utilityParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.ledger.Delete(r.Context(), u, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/"+u.Slug(), http.StatusSeeOther)
		return
	}
	s.writePanel(w, r, u, func(b *HTMXResponseBuilder) *HTMXResponseBuilder {
		return b.TriggerRecordDeleted(u, id).TriggerSuccessNotification("Registro eliminado.")
	})
}

// handleElectricityPreview renders the live calculator while the form is typed in.
func (s *Server) handleElectricityPreview(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	in := ParseElectricityPreview(r.PostForm)
	s.render(w, r, "electricity_preview", http.StatusOK, core.ComputeElectricity(in))
}
