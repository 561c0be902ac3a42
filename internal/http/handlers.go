package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cuentas/internal/auth"
	"cuentas/internal/core"
	"cuentas/internal/log"
	"cuentas/internal/ports"
)

const (
	msgNotFound    = "Registro no encontrado."
	msgSaveFailed  = "Error al guardar los datos. Inténtalo de nuevo."
	msgDuplicate   = "Ya existe un registro para ese periodo."
	msgInvalidRole = "Rol no válido."
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).String(),
	})
}

// handleReady checks templates, the store and the rate limiter.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.pinger == nil:
		checks["store"] = "ok"
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	if s.ledger != nil && s.ledger.Stale() {
		checks["snapshot"] = "stale"
	} else {
		checks["snapshot"] = "ok"
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// classify maps an error to a status code and the message shown to the user.
func classify(err error) (int, string) {
	var dup *core.DuplicatePeriodError
	var verr *core.ValidationError
	switch {
	case errors.As(err, &dup):
		return http.StatusUnprocessableEntity, dup.Error()
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, core.ErrDuplicatePeriod):
		return http.StatusUnprocessableEntity, msgDuplicate
	case errors.Is(err, core.ErrInvalidRole):
		return http.StatusUnprocessableEntity, msgInvalidRole
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, auth.Message(err)
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, auth.Message(err)
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case auth.Message(err) != "":
		return http.StatusUnprocessableEntity, auth.Message(err)
	}
	return http.StatusInternalServerError, msgSaveFailed
}

// writeError sends the classified error; server errors are logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, op, log.NewFields().WithErrorType(log.ErrorTypeInternal))
	}
	ErrorResponse(status, msg).Write(w)
}
