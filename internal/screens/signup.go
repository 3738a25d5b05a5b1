package screens

import (
	"context"

	"github.com/stwalsh4118/grownby/internal/auth"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/navigator"
	"github.com/stwalsh4118/grownby/internal/session"
)

// SignUp is the account creation screen.
type SignUp struct {
	machine
	auth     authenticator
	sessions *session.Store
	log      *logger.Logger
}

// NewSignUp creates the SignUp controller.
func NewSignUp(gateway authenticator, sessions *session.Store, v *forms.Validator, log *logger.Logger) *SignUp {
	if log == nil {
		log = logger.Nop()
	}
	return &SignUp{
		machine:  newMachine(forms.SignUpForm, v),
		auth:     gateway,
		sessions: sessions,
		log:      log.WithComponent("signup"),
	}
}

// Mount prepares an empty form.
func (c *SignUp) Mount(ctx context.Context) { c.mount(ctx) }

// Unmount drops any in-flight result.
func (c *SignUp) Unmount() { c.unmount() }

// Submit validates the form and returns the sign-up job.
func (c *SignUp) Submit() (Job[AuthResult], bool) {
	if !c.begin() {
		return nil, false
	}
	ctx, gen := c.ctx, c.gen
	email := c.form.Value(forms.FieldEmail)
	password := c.form.Value(forms.FieldPassword)

	return func() AuthResult {
		res := c.auth.SignUp(ctx, email, password)
		if res.Outcome == auth.OK {
			recordSession(ctx, c.sessions, c.log, email)
		}
		return AuthResult{Generation: gen, Email: email, Result: res}
	}, true
}

// Complete applies a sign-up result.
func (c *SignUp) Complete(r AuthResult) {
	if !c.accept(r.Generation) {
		return
	}
	if r.Result.Outcome != auth.OK {
		c.fail(r.Result.Outcome.Message())
		return
	}
	c.succeed("Sign Up Successfully")
}

// Acknowledge confirms the success message and returns where to go next.
func (c *SignUp) Acknowledge() (navigator.Action, bool) {
	if c.phase != Success {
		return navigator.Action{}, false
	}
	c.phase = Idle
	c.message = ""
	c.form.Reset()
	return navigator.Reset(navigator.RouteFarmList), true
}

// GoToLogin returns to the Login screen.
func (c *SignUp) GoToLogin() navigator.Action {
	return navigator.Back()
}
