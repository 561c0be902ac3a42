package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cuentas/internal/auth"
	"cuentas/internal/insights"
	"cuentas/internal/log"
	"cuentas/internal/middleware/ratelimit"
	"cuentas/internal/middleware/security"
	"cuentas/internal/middleware/trace"
	"cuentas/internal/ports"
	"cuentas/internal/services"
	appweb "cuentas/web"
)

// Deps are the collaborators the server renders and mutates.
type Deps struct {
	Ledger   *services.Ledger
	Fixed    *services.FixedValuesService
	Auth     *auth.Service
	Insights *insights.Client
	// Pinger backs /readyz; nil means always ready.
	Pinger ports.Pinger
	Logger *log.Logger

	RateLimitPerMinute int
	SecureCookies      bool
	// BlockSuspicious answers probing requests with 400 instead of only logging them.
	BlockSuspicious bool
	Now             func() time.Time
}

type Server struct {
	http.Server

	ledger   *services.Ledger
	fixed    *services.FixedValuesService
	auth     *auth.Service
	insights *insights.Client
	pinger   ports.Pinger
	logger   *log.Logger

	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware

	secureCookies bool
	now           func() time.Time
	started       time.Time
	shutdownOnce  sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	logger := d.Logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		ledger:        d.Ledger,
		fixed:         d.Fixed,
		auth:          d.Auth,
		insights:      d.Insights,
		pinger:        d.Pinger,
		logger:        logger,
		templates:     t,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		detector:      security.NewDetector(d.Logger, d.BlockSuspicious),
		secureCookies: d.SecureCookies,
		now:           d.Now,
		started:       d.Now(),
	}
	s.tracer = trace.NewMiddleware(d.Logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Demasiadas solicitudes. Inténtalo de nuevo en un minuto.").Write(w)
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Página no encontrada.").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/forgot", s.handleForgotPage)
	r.Post("/forgot", s.handleForgot)
	r.Get("/reset", s.handleResetPage)
	r.Post("/reset", s.handleReset)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Use(security.NoStore)

		r.Post("/logout", s.handleLogout)
		r.Get("/", s.handleDashboard)
		r.Get("/historial", s.handleHistory)
		r.Post("/insights", s.handleInsights)
		r.Get("/valores-fijos", s.handleFixedValuesPage)
		r.Post("/electricidad/preview", s.handleElectricityPreview)

		r.Get("/export/consolidado.csv", s.handleExportConsolidated)
		r.Get("/export/resumen.pdf", s.handleExportSummary)
		r.Get("/export/{file}", s.handleExportUtility)

		r.Get("/{utility}", s.handleRecordsPage)

		r.Group(func(r chi.Router) {
			r.Use(s.requireEditor)

			r.Post("/valores-fijos", s.handleFixedValuesUpdate)
			r.Post("/{utility}", s.handleSaveRecord)
			r.Post("/{utility}/{id}", s.handleSaveRecord)
			r.Post("/{utility}/{id}/delete", s.handleDeleteRecord)

			r.Get("/admin/users", s.handleUsersPage)
			r.Post("/admin/users", s.handleAddUser)
			r.Post("/admin/users/{id}/role", s.handleUpdateRole)
			r.Post("/admin/users/{id}/toggle", s.handleToggleUser)
			r.Get("/export/usuarios.csv", s.handleExportUsers)
		})
	})

	return r
}

// page is the data every full-page template receives.
type page struct {
	Title   string
	Nav     string
	User    userView
	CanEdit bool
	Stale   bool
	Flash   string
	Error   string
	Data    any
}

type userView struct {
	Name  string
	Email string
	Role  string
}

func (s *Server) page(r *http.Request, title, nav string, data any) page {
	p := page{Title: title, Nav: nav, Data: data}
	if u, ok := userFrom(r.Context()); ok {
		p.User = userView{Name: u.Name, Email: u.Email, Role: string(u.Role)}
		p.CanEdit = u.CanEdit()
	}
	if s.ledger != nil {
		p.Stale = s.ledger.Stale()
	}
	return p
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "Error interno.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// Shutdown stops the HTTP server and the limiter cleanup, once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
