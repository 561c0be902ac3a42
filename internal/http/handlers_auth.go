package http

import (
	"errors"
	"net/http"

	"cuentas/internal/auth"
	"cuentas/internal/log"
)

type authView struct {
	Email   string
	Token   string
	Message string
	Done    bool
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.CurrentUser(r.Context(), auth.TokenFromRequest(r)); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	view := authView{}
	if r.URL.Query().Get("reset") == "1" {
		view.Message = "Contraseña actualizada. Ya puedes iniciar sesión."
	}
	s.render(w, r, "login", http.StatusOK, page{Title: "Iniciar sesión", Data: view})
}

// handleLogin answers every failure with the same message and a 401.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	email := sanitizeInput(r.PostForm.Get("email"))
	sess, u, err := s.auth.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		status := http.StatusUnauthorized
		msg := auth.Message(auth.ErrInvalidCredentials)
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			status, msg = http.StatusInternalServerError, "No se pudo iniciar sesión. Inténtalo más tarde."
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Login failed", "error", err)
		}
		pg := page{Title: "Iniciar sesión", Error: msg, Data: authView{Email: email}}
		s.render(w, r, "login", status, pg)
		return
	}

	auth.SetCookie(w, sess, s.secureCookies)
	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed in", log.FieldUserID, u.ID)
	redirect(w, r, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(auth.TokenFromRequest(r))
	auth.ClearCookie(w, s.secureCookies)
	redirect(w, r, "/login")
}

func (s *Server) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "forgot", http.StatusOK, page{Title: "Recuperar contraseña", Data: authView{}})
}

// handleForgot always reports success so addresses cannot be probed.
func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	email := sanitizeInput(r.PostForm.Get("email"))
	if err := s.auth.RequestPasswordReset(r.Context(), email); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Password reset request failed", "error", err)
	}
	view := authView{
		Done:    true,
		Message: "Si el correo está registrado, recibirás un enlace para restablecer tu contraseña.",
	}
	s.render(w, r, "forgot", http.StatusOK, page{Title: "Recuperar contraseña", Data: view})
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	pg := page{Title: "Nueva contraseña", Data: authView{Token: token}}
	status := http.StatusOK
	if !s.auth.ValidResetToken(token) {
		pg.Error = auth.Message(auth.ErrInvalidToken)
		pg.Data = authView{}
		status = http.StatusNotFound
	}
	s.render(w, r, "reset", status, pg)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	token := r.PostForm.Get("token")
	password := r.PostForm.Get("password")

	fail := func(status int, msg string) {
		s.render(w, r, "reset", status, page{Title: "Nueva contraseña", Error: msg, Data: authView{Token: token}})
	}
	if password != r.PostForm.Get("confirm") {
		fail(http.StatusUnprocessableEntity, "Las contraseñas no coinciden.")
		return
	}
	if err := s.auth.ResetPassword(r.Context(), token, password); err != nil {
		status, msg := classify(err)
		if errors.Is(err, auth.ErrInvalidToken) {
			status = http.StatusNotFound
		}
		fail(status, msg)
		return
	}
	redirect(w, r, "/login?reset=1")
}
