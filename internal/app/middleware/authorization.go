package middleware

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated is returned for messages that need an actor but carry none.
var ErrUnauthenticated = errors.New("auth: authentication required")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorMessage is implemented by commands and queries issued on behalf of a user.
type ActorMessage interface {
	Actor() string
}

// RequireActor rejects actor-bound messages whose actor is empty. Messages
// that are not actor-bound (webhooks, public reads) pass through.
type RequireActor struct{}

func (RequireActor) Authorize(_ context.Context, message any) error {
	m, ok := message.(ActorMessage)
	if !ok {
		return nil
	}
	if strings.TrimSpace(m.Actor()) == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Authorization rejects commands the authorizer refuses before any unit of
// work is opened.
func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return commandGuard(a.Authorize)
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return queryGuard(a.Authorize)
}
