package http

import (
	"context"
	"net/http"

	"cuentas/internal/auth"
	"cuentas/internal/core"
	"cuentas/internal/log"
)

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u core.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func userFrom(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey).(core.User)
	return u, ok
}

// requireUser resolves the session cookie; anonymous requests go to /login.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.auth.CurrentUser(r.Context(), auth.TokenFromRequest(r))
		if err != nil {
			auth.ClearCookie(w, s.secureCookies)
			if isHTMX(r) {
				NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := withUser(r.Context(), u)
		ctx = log.IntoContext(ctx, log.FromContext(ctx).With(log.FieldUserID, u.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireEditor rejects read-only users with 403.
func (s *Server) requireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := userFrom(r.Context())
		if !ok || !u.CanEdit() {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Edit attempt without permission",
				log.FieldPath, r.URL.Path, log.FieldRole, u.Role)
			ForbiddenError(auth.Message(auth.ErrForbidden)).Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
