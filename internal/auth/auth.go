// Package auth signs users in and out through the identity service and maps
// every result to a fixed outcome.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/grownby/internal/backend"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/session"
)

// Outcome is the result class of a sign-in or sign-up.
type Outcome int

const (
	OK Outcome = iota
	EmailInUse
	InvalidEmail
	WrongPassword
	UserNotFound
	Other
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case EmailInUse:
		return "email-in-use"
	case InvalidEmail:
		return "invalid-email"
	case WrongPassword:
		return "wrong-password"
	case UserNotFound:
		return "user-not-found"
	default:
		return "other"
	}
}

// Message returns the text shown to the user.
func (o Outcome) Message() string {
	switch o {
	case OK:
		return ""
	case EmailInUse:
		return "That email address is already in use!"
	case InvalidEmail:
		return "That email address is invalid!"
	case WrongPassword:
		return "That Password is invalid!"
	case UserNotFound:
		return "User Not Found!"
	default:
		return "Something went wrong. Please try again."
	}
}

// Result is what SignIn and SignUp return.
type Result struct {
	Identity backend.Identity
	Outcome  Outcome
	// Err is the underlying failure when Outcome is not OK.
	Err error
}

// Gateway wraps the identity service.
type Gateway struct {
	identity backend.IdentityService
	sessions *session.Store
	log      *logger.Logger
}

// NewGateway creates a Gateway. sessions is cleared on sign-out.
func NewGateway(identity backend.IdentityService, sessions *session.Store, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{identity: identity, sessions: sessions, log: log.WithComponent("auth")}
}

// SignIn authenticates an existing account. The caller records the session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) Result {
	id, err := g.identity.Authenticate(ctx, email, password)
	if err != nil {
		outcome := Other
		switch backend.AuthErrorKindOf(err) {
		case backend.AuthInvalidEmail:
			outcome = InvalidEmail
		case backend.AuthWrongPassword:
			outcome = WrongPassword
		case backend.AuthUserNotFound:
			outcome = UserNotFound
		}
		return g.fail("sign-in", email, outcome, err)
	}
	return g.succeed("sign-in", id)
}

// SignUp creates an account and signs it in. The caller records the session.
func (g *Gateway) SignUp(ctx context.Context, email, password string) Result {
	id, err := g.identity.CreateAccount(ctx, email, password)
	if err != nil {
		outcome := Other
		switch backend.AuthErrorKindOf(err) {
		case backend.AuthEmailInUse:
			outcome = EmailInUse
		case backend.AuthInvalidEmail:
			outcome = InvalidEmail
		}
		return g.fail("sign-up", email, outcome, err)
	}
	return g.succeed("sign-up", id)
}

// SignOut ends the backend session and clears the session marker. The
// marker is cleared even when the backend call fails.
func (g *Gateway) SignOut(ctx context.Context) error {
	endErr := g.identity.EndSession(ctx)
	if endErr != nil {
		endErr = fmt.Errorf("failed to end backend session: %w", endErr)
	}

	clearErr := g.sessions.Clear(ctx)
	if clearErr != nil {
		clearErr = fmt.Errorf("failed to clear session marker: %w", clearErr)
	}

	err := errors.Join(endErr, clearErr)
	if err != nil {
		g.log.Error("Sign-out incomplete", err, nil)
		return err
	}
	g.log.Info("Signed out", nil)
	return nil
}

func (g *Gateway) succeed(op string, id backend.Identity) Result {
	g.log.Info("Authentication succeeded", map[string]interface{}{
		"op":      op,
		"user_id": id.UserID,
	})
	return Result{Identity: id, Outcome: OK}
}

func (g *Gateway) fail(op, email string, outcome Outcome, err error) Result {
	g.log.Warn("Authentication failed", map[string]interface{}{
		"op":      op,
		"email":   email,
		"outcome": outcome.String(),
		"error":   err.Error(),
	})
	return Result{Outcome: outcome, Err: err}
}
