package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/uow"
	"travelstay/internal/domain/shared/fault"
	domainuser "travelstay/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid or expired token")
	ErrPasswordTooShort   = fault.Validation("auth: password must be at least 8 characters")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs bearer tokens whose subject is the user id.
type TokenIssuer interface {
	Issue(userID string, now time.Time) (token string, expiresAt time.Time, err error)
	Parse(token string) (userID string, err error)
}

type Service struct {
	UoWFactory uow.UoWFactory
	Passwords  PasswordHasher
	Tokens     TokenIssuer
	Logger     *slog.Logger
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User      *domainuser.User
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(params.Password) < 8 {
		return nil, ErrPasswordTooShort
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	scope, ctx, err := support.BeginUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer scope.Close(ctx)
	if err := scope.Unit.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	result, err := s.issue(user, now)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		uow.AfterCommit(ctx, func() {
			s.Logger.Info("user registered", "user_id", user.ID, "email", user.Email)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	user, err := unit.Users().ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	result, err := s.issue(user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID)
	}
	return result, nil
}

// ResolveToken validates a bearer token and loads its user. Tokens of users
// that no longer exist are rejected.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	userID, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*domainuser.User, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return unit.Users().ByID(ctx, domainuser.ID(userID))
}

func (s *Service) issue(user *domainuser.User, now time.Time) (*AuthResult, error) {
	token, expiresAt, err := s.Tokens.Issue(string(user.ID), now)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.UoWFactory == nil:
		return errors.New("auth: unit of work factory required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}
