package user

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"travelstay/internal/domain/shared/fault"
)

var (
	ErrIDRequired          = fault.Validation("user: id is required")
	ErrEmailRequired       = fault.Validation("user: email is required")
	ErrEmailInvalid        = fault.Validation("user: email is invalid")
	ErrPasswordHashMissing = fault.Validation("user: password hash is required")
	ErrNameRequired        = fault.Validation("user: first name is required")
	ErrEmailAlreadyUsed    = fault.Conflict("user: email already used")
	ErrNotFound            = fault.NotFound("user: not found")
)

type ID string

type User struct {
	ID           ID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// Create fails with ErrEmailAlreadyUsed on a duplicate email.
	Create(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrEmailInvalid
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	first := strings.TrimSpace(params.FirstName)
	if first == "" {
		return nil, ErrNameRequired
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:           ID(id),
		Email:        email,
		FirstName:    first,
		LastName:     strings.TrimSpace(params.LastName),
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
