package http

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"cuentas/internal/core"
	"cuentas/internal/log"
)

type fixedValuesView struct {
	Values core.FixedValues
	Error  string
}

func (s *Server) handleFixedValuesPage(w http.ResponseWriter, r *http.Request) {
	fv, err := s.fixed.Get(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "fixed_values", http.StatusOK, s.page(r, "Valores fijos", "fixed", fixedValuesView{Values: fv}))
}

func (s *Server) handleFixedValuesUpdate(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	fv, err := ParseFixedValuesForm(r.PostForm)
	if err == nil {
		err = s.fixed.Update(r.Context(), fv)
	}
	if err != nil {
		status, msg := classify(err)
		if status != http.StatusUnprocessableEntity {
			s.writeError(w, r, log.OpUpdate, err)
			return
		}
		s.render(w, r, "fixed_values", status, s.page(r, "Valores fijos", "fixed", fixedValuesView{Values: fv, Error: msg}))
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/valores-fijos", http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		TriggerSuccessNotification("Valores fijos actualizados.").
		BodyHTML(`<p class="success" role="status">Valores fijos actualizados.</p>`).
		Write(w)
}

type usersView struct {
	Users  []core.User
	SelfID string
	Error  string
}

func (s *Server) usersView(r *http.Request) (usersView, error) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		return usersView{}, err
	}
	slices.SortFunc(users, func(a, b core.User) int { return strings.Compare(a.Email, b.Email) })
	v := usersView{Users: users}
	if u, ok := userFrom(r.Context()); ok {
		v.SelfID = u.ID
	}
	return v, nil
}

func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	v, err := s.usersView(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "users", http.StatusOK, s.page(r, "Usuarios", "users", v))
}

// writeUsers answers a user mutation: the refreshed table for htmx, a redirect otherwise.
func (s *Server) writeUsers(w http.ResponseWriter, r *http.Request, msg string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	v, err := s.usersView(r)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	body, err := s.renderString("users_table", v)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	NewHTMXResponse().TriggerUsersChanged().TriggerSuccessNotification(msg).BodyHTML(body).Write(w)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	actor, _ := userFrom(r.Context())
	in, err := ParseNewUserForm(r.PostForm)
	if err == nil {
		_, err = s.auth.AddUser(r.Context(), actor, in)
	}
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	s.writeUsers(w, r, "Usuario creado.")
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	actor, _ := userFrom(r.Context())
	role, err := core.ParseRole(r.PostForm.Get("role"))
	if err == nil {
		_, err = s.auth.UpdateRole(r.Context(), actor, chi.URLParam(r, "id"), role)
	}
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	s.writeUsers(w, r, "Rol actualizado.")
}

func (s *Server) handleToggleUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := userFrom(r.Context())
	u, err := s.auth.ToggleStatus(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	msg := "Usuario activado."
	if !u.Active() {
		msg = "Usuario desactivado."
	}
	s.writeUsers(w, r, msg)
}
