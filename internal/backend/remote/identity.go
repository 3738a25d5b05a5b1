package remote

import (
	"context"

	"github.com/stwalsh4118/grownby/internal/backend"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (backend.Identity, error) {
	return c.openSession(ctx, "/api/v1/accounts", email, password)
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (backend.Identity, error) {
	return c.openSession(ctx, "/api/v1/sessions", email, password)
}

func (c *Client) openSession(ctx context.Context, path, email, password string) (backend.Identity, error) {
	var resp sessionResponse
	if err := c.doJSON(ctx, "POST", path, credentials{Email: email, Password: password}, &resp); err != nil {
		return backend.Identity{}, toAuthError(err)
	}

	c.storeToken(ctx, resp.Token)
	return backend.Identity{UserID: resp.UserID, Email: resp.Email}, nil
}

// EndSession revokes the token on the server. The local token is dropped
// even when the server call fails.
func (c *Client) EndSession(ctx context.Context) error {
	if c.bearer(ctx) == "" {
		return nil
	}
	err := c.doJSON(ctx, "DELETE", "/api/v1/sessions", nil, nil)
	c.storeToken(ctx, "")
	if err != nil {
		return toAuthError(err)
	}
	return nil
}

func toAuthError(err error) error {
	kind := backend.AuthOther
	switch apiCode(err) {
	case apierrors.ErrEmailInUse:
		kind = backend.AuthEmailInUse
	case apierrors.ErrInvalidEmail:
		kind = backend.AuthInvalidEmail
	case apierrors.ErrWrongPassword:
		kind = backend.AuthWrongPassword
	case apierrors.ErrUserNotFound:
		kind = backend.AuthUserNotFound
	}
	return &backend.AuthError{Kind: kind, Err: err}
}
