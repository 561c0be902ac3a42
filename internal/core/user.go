package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role is a permission level.
type Role string

const (
	// RoleEditor may create, update and delete records, fixed values and users.
	RoleEditor Role = "Edición"
	// RoleViewer has read-only access.
	RoleViewer Role = "Visualización"
)

func (r Role) Valid() bool { return r == RoleEditor || r == RoleViewer }

func (r Role) CanEdit() bool { return r == RoleEditor }

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "edición", "edicion", "editor", "edit":
		return RoleEditor, nil
	case "visualización", "visualizacion", "viewer", "view":
		return RoleViewer, nil
	}
	return "", ErrInvalidRole
}

// UserStatus controls whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "Activo"
	UserInactive UserStatus = "Inactivo"
)

// Toggle flips between Activo and Inactivo.
func (s UserStatus) Toggle() UserStatus {
	if s == UserActive {
		return UserInactive
	}
	return UserActive
}

var (
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidEmail = errors.New("invalid email")
)

type User struct {
	ID           string     `json:"id" dynamodbav:"id"`
	Email        string     `json:"email" dynamodbav:"email"`
	Name         string     `json:"name" dynamodbav:"name"`
	Role         Role       `json:"role" dynamodbav:"role"`
	Status       UserStatus `json:"status" dynamodbav:"status"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"created_at"`
}

func (u User) Active() bool { return u.Status == UserActive }

func (u User) CanEdit() bool { return u.Active() && u.Role.CanEdit() }

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "Introduce un correo electrónico válido.", ErrInvalidEmail)
	}
	return nil
}

func (u User) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return invalid("role", "Rol no válido.", ErrInvalidRole)
	}
	if u.Status != UserActive && u.Status != UserInactive {
		return invalid("status", "Estado no válido.", ErrInvalidStatus)
	}
	return nil
}
