package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"travelstay/internal/domain/shared/fault"
	domainuser "travelstay/internal/domain/user"
	"travelstay/internal/infra/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type prefixTokens struct{}

func (prefixTokens) Issue(userID string, now time.Time) (string, time.Time, error) {
	return "token:" + userID, now.Add(time.Hour), nil
}

func (prefixTokens) Parse(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

func newService() *Service {
	return &Service{UoWFactory: memory.NewStore(), Passwords: plainHasher{}, Tokens: prefixTokens{}}
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterParams{Email: " Meron@Example.com ", Password: "s3cret-pass", FirstName: "Meron"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.User.Email != "meron@example.com" || reg.User.PasswordHash != "hashed:s3cret-pass" {
		t.Fatalf("unexpected user %+v", reg.User)
	}
	if reg.Token != "token:"+string(reg.User.ID) {
		t.Fatalf("unexpected token %q", reg.Token)
	}

	login, err := svc.Login(ctx, LoginParams{Email: "MERON@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("login returned another user")
	}

	user, err := svc.ResolveToken(ctx, login.Token)
	if err != nil || user.ID != reg.User.ID {
		t.Fatalf("resolve: %+v %v", user, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Password: "short", FirstName: "A"}); !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterParams{Email: "not-an-email", Password: "long-enough", FirstName: "A"}); !errors.Is(err, domainuser.ErrEmailInvalid) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Password: "long-enough", FirstName: "A"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterParams{Email: "A@example.com", Password: "long-enough", FirstName: "B"}); !errors.Is(err, fault.ErrConflict) {
		t.Fatalf("expected duplicate email conflict, got %v", err)
	}
}

func TestLoginAndTokenFailures(t *testing.T) {
	t.Parallel()
	svc := newService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterParams{Email: "a@example.com", Password: "long-enough", FirstName: "A"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginParams{Email: "a@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "long-enough"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email must look like a bad password, got %v", err)
	}
	for _, token := range []string{"", "garbage", "token:ghost"} {
		if _, err := svc.ResolveToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected invalid token, got %v", token, err)
		}
	}
	if _, err := (&Service{}).Login(ctx, LoginParams{}); err == nil {
		t.Fatalf("missing dependencies must fail")
	}
}
