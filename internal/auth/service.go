// Package auth handles login sessions, user administration and password resets.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"cuentas/internal/cache"
	"cuentas/internal/core"
	"cuentas/internal/log"
	"cuentas/internal/metrics"
	"cuentas/internal/ports"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailInUse         = errors.New("email already in use")
	ErrSelfStatusChange   = errors.New("cannot change own status")
	ErrInvalidToken       = errors.New("invalid or expired reset token")
	ErrWeakPassword       = errors.New("password too short")
)

var messages = map[error]string{
	ErrInvalidCredentials: "Credenciales inválidas. Inténtalo de nuevo.",
	ErrUnauthenticated:    "Tu sesión ha caducado. Vuelve a iniciar sesión.",
	ErrForbidden:          "No tienes permisos para realizar esta acción.",
	ErrEmailInUse:         "El correo electrónico ya está en uso.",
	ErrSelfStatusChange:   "No puedes cambiar el estado de tu propio usuario.",
	ErrInvalidToken:       "El enlace de restablecimiento no es válido o ha caducado.",
	ErrWeakPassword:       fmt.Sprintf("La contraseña debe tener al menos %d caracteres.", MinPasswordLength),
}

// Message returns the Spanish text shown for err, or "" if err is not an auth error.
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return ""
}

// Session is an authenticated browser session.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type Options struct {
	SessionTTL  time.Duration
	ResetTTL    time.Duration
	BaseURL     string
	MaxSessions int
}

type Service struct {
	users    ports.UserStore
	mailer   Mailer
	sessions *cache.LRUCache[Session]
	resets   *cache.LRUCache[string]
	opts     Options
	logger   *log.Logger
	now      func() time.Time
}

func NewService(users ports.UserStore, mailer Mailer, opts Options, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	return &Service{
		users:    users,
		mailer:   mailer,
		sessions: cache.NewLRUCache[Session](opts.MaxSessions, opts.SessionTTL),
		resets:   cache.NewLRUCache[string](opts.MaxSessions, opts.ResetTTL),
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentAuth),
		now:      time.Now,
	}
}

// WithClock pins the clock of the service and its caches.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.sessions.WithClock(now)
	s.resets.WithClock(now)
	return s
}

// Caches returns the session and reset caches for periodic sweeping.
func (s *Service) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.sessions, s.resets}
}

// verifyPassword is a seam for tests.
var verifyPassword = VerifyPassword

// Login checks the credentials and opens a session. Unknown accounts, wrong
// passwords and inactive accounts are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, core.User, error) {
	email = core.NormalizeEmail(email)
	u, err := s.users.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		verifyPassword(password, dummyHash())
		metrics.LoginAttempts.WithLabelValues("unknown").Inc()
		s.logger.WarnContext(ctx, "Login for unknown account", log.FieldUserEmail, email)
		return Session{}, core.User{}, ErrInvalidCredentials
	case err != nil:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return Session{}, core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !verifyPassword(password, u.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		s.logger.WarnContext(ctx, "Login with wrong password", log.FieldUserID, u.ID)
		return Session{}, core.User{}, ErrInvalidCredentials
	}
	if !u.Active() {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		s.logger.WarnContext(ctx, "Login for inactive account", log.FieldUserID, u.ID)
		return Session{}, core.User{}, ErrInvalidCredentials
	}

	sess := Session{Token: uuid.NewString(), UserID: u.ID, ExpiresAt: s.now().Add(s.opts.SessionTTL)}
	s.sessions.Set(sess.Token, sess)
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, u.ID, log.FieldRole, u.Role)
	return sess, u, nil
}

func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// CurrentUser resolves a session token. Sessions of users that have been
// deactivated since login are dropped.
func (s *Service) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrUnauthenticated
	}
	sess, ok := s.sessions.Get(token)
	if !ok {
		return core.User{}, ErrUnauthenticated
	}
	u, err := s.users.UserByID(ctx, sess.UserID)
	if errors.Is(err, ports.ErrNotFound) {
		s.sessions.Delete(token)
		return core.User{}, ErrUnauthenticated
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load session user: %w", err)
	}
	if !u.Active() {
		s.sessions.Delete(token)
		return core.User{}, ErrUnauthenticated
	}
	return u, nil
}

func (s *Service) revokeSessions(userID string) int {
	return s.sessions.DeleteFunc(func(sess Session) bool { return sess.UserID == userID })
}

func requireEditor(actor core.User) error {
	if !actor.CanEdit() {
		return ErrForbidden
	}
	return nil
}

func validatePassword(p string) error {
	if len([]rune(p)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// NewUser is the input of AddUser.
type NewUser struct {
	Email    string
	Name     string
	Password string
	Role     core.Role
}

// AddUser creates an active account. Only editors may add users.
func (s *Service) AddUser(ctx context.Context, actor core.User, in NewUser) (core.User, error) {
	if err := requireEditor(actor); err != nil {
		return core.User{}, err
	}
	return s.createUser(ctx, in)
}

func (s *Service) createUser(ctx context.Context, in NewUser) (core.User, error) {
	u := core.User{
		Email:  core.NormalizeEmail(in.Email),
		Name:   strings.TrimSpace(in.Name),
		Role:   in.Role,
		Status: core.UserActive,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return core.User{}, err
	}

	if _, err := s.users.UserByEmail(ctx, u.Email); err == nil {
		return core.User{}, ErrEmailInUse
	} else if !errors.Is(err, ports.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.CreatedAt = s.now().UTC()

	created, err := s.users.CreateUser(ctx, u)
	if errors.Is(err, ports.ErrConflict) {
		return core.User{}, ErrEmailInUse
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "User created", log.FieldUserID, created.ID, log.FieldUserEmail, created.Email, log.FieldRole, created.Role)
	return created, nil
}

func (s *Service) UpdateRole(ctx context.Context, actor core.User, id string, role core.Role) (core.User, error) {
	if err := requireEditor(actor); err != nil {
		return core.User{}, err
	}
	if !role.Valid() {
		return core.User{}, core.ErrInvalidRole
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("load user %s: %w", id, err)
	}
	u.Role = role
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "User role changed", log.FieldUserID, id, log.FieldRole, role)
	return u, nil
}

// ToggleStatus flips a user between Activo and Inactivo. Deactivating a user
// ends their open sessions.
func (s *Service) ToggleStatus(ctx context.Context, actor core.User, id string) (core.User, error) {
	if err := requireEditor(actor); err != nil {
		return core.User{}, err
	}
	if actor.ID == id {
		return core.User{}, ErrSelfStatusChange
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("load user %s: %w", id, err)
	}
	u.Status = u.Status.Toggle()
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	revoked := 0
	if !u.Active() {
		revoked = s.revokeSessions(id)
	}
	s.logger.InfoContext(ctx, "User status changed", log.FieldUserID, id, "status", u.Status, "revoked_sessions", revoked)
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// RequestPasswordReset mails a single-use link. It reports success for
// unknown or inactive accounts so the form does not reveal which emails exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Password reset lookup failed", "error", err)
		}
		return nil
	}
	if !u.Active() {
		return nil
	}

	token := uuid.NewString()
	s.resets.Set(token, u.ID)

	link := strings.TrimRight(s.opts.BaseURL, "/") + "/reset?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Hola %s,\n\nPara restablecer tu contraseña abre este enlace:\n\n%s\n\nEl enlace caduca en %s.\n",
		displayName(u), link, s.opts.ResetTTL)
	if err := s.mailer.Send(ctx, u.Email, "Restablecer contraseña", body); err != nil {
		s.logger.ErrorContext(ctx, "Password reset mail failed", log.FieldUserID, u.ID, "error", err)
		return nil
	}
	s.logger.InfoContext(ctx, "Password reset requested", log.FieldUserID, u.ID)
	return nil
}

// ResetPassword consumes token and sets a new password. Every session of the
// user is closed.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	userID, ok := s.resets.Take(token)
	if !ok {
		return ErrInvalidToken
	}
	u, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, ports.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.revokeSessions(u.ID)
	s.logger.InfoContext(ctx, "Password reset", log.FieldUserID, u.ID)
	return nil
}

// ValidResetToken reports whether token can still be used, without consuming it.
func (s *Service) ValidResetToken(token string) bool {
	_, ok := s.resets.Get(token)
	return ok
}

// Bootstrap creates the first editor account when no users exist.
func (s *Service) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}
	if len(users) > 0 {
		return false, nil
	}
	if _, err := s.createUser(ctx, NewUser{Email: email, Name: "Administrador", Password: password, Role: core.RoleEditor}); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}

// CreateUser adds an account without an acting user, for the command line.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (core.User, error) {
	return s.createUser(ctx, in)
}

func displayName(u core.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
