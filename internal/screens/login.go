package screens

import (
	"context"

	"github.com/stwalsh4118/grownby/internal/auth"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/navigator"
	"github.com/stwalsh4118/grownby/internal/session"
)

// AuthResult is the outcome of a Login or SignUp submit.
type AuthResult struct {
	Generation uint64
	Email      string
	Result     auth.Result
}

// authenticator is satisfied by auth.Gateway.
type authenticator interface {
	SignIn(ctx context.Context, email, password string) auth.Result
	SignUp(ctx context.Context, email, password string) auth.Result
	SignOut(ctx context.Context) error
}

// Login is the sign-in screen.
type Login struct {
	machine
	auth     authenticator
	sessions *session.Store
	log      *logger.Logger
}

// NewLogin creates the Login controller.
func NewLogin(gateway authenticator, sessions *session.Store, v *forms.Validator, log *logger.Logger) *Login {
	if log == nil {
		log = logger.Nop()
	}
	return &Login{
		machine:  newMachine(forms.LoginForm, v),
		auth:     gateway,
		sessions: sessions,
		log:      log.WithComponent("login"),
	}
}

// Mount prepares the screen. When a session already exists it returns a
// reset to FarmList and the form is never shown.
func (c *Login) Mount(ctx context.Context) (navigator.Action, bool) {
	c.mount(ctx)
	if _, ok := c.sessions.Exists(c.ctx); ok {
		return navigator.Reset(navigator.RouteFarmList), true
	}
	return navigator.Action{}, false
}

// Unmount drops any in-flight result.
func (c *Login) Unmount() { c.unmount() }

// Submit validates the form and returns the sign-in job. It returns false
// when the form is invalid or a submit is already running.
func (c *Login) Submit() (Job[AuthResult], bool) {
	if !c.begin() {
		return nil, false
	}
	ctx, gen := c.ctx, c.gen
	email := c.form.Value(forms.FieldEmail)
	password := c.form.Value(forms.FieldPassword)

	return func() AuthResult {
		res := c.auth.SignIn(ctx, email, password)
		if res.Outcome == auth.OK {
			recordSession(ctx, c.sessions, c.log, email)
		}
		return AuthResult{Generation: gen, Email: email, Result: res}
	}, true
}

// Complete applies a sign-in result. Results from an earlier mount are
// dropped.
func (c *Login) Complete(r AuthResult) {
	if !c.accept(r.Generation) {
		return
	}
	if r.Result.Outcome != auth.OK {
		c.fail(r.Result.Outcome.Message())
		return
	}
	c.succeed("Login Successfully")
}

// Acknowledge confirms the success message and returns where to go next.
func (c *Login) Acknowledge() (navigator.Action, bool) {
	if c.phase != Success {
		return navigator.Action{}, false
	}
	c.phase = Idle
	c.message = ""
	c.form.Reset()
	return navigator.Reset(navigator.RouteFarmList), true
}

// GoToSignUp opens the SignUp screen.
func (c *Login) GoToSignUp() navigator.Action {
	return navigator.Push(navigator.RouteSignUp)
}

// recordSession writes the marker. A failed write leaves the user signed in
// for this run only.
func recordSession(ctx context.Context, sessions *session.Store, log *logger.Logger, email string) {
	if err := sessions.Set(ctx, email); err != nil {
		log.Error("Failed to record session", err, map[string]interface{}{
			"email": email,
		})
	}
}
