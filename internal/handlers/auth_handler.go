package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/middleware"
	"github.com/stwalsh4118/grownby/internal/services"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	service services.IdentityService
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(service services.IdentityService) *AuthHandler {
	return &AuthHandler{service: service}
}

// CredentialsRequest is the body of the account and session endpoints.
// Email format and password strength are checked by the identity service so
// that they surface as identity error codes.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned after a successful sign-up or sign-in.
type SessionResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// CreateAccount handles POST /api/v1/accounts.
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req CredentialsRequest
	if !bindCredentials(c, &req) {
		return
	}

	session, err := h.service.CreateAccount(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondIdentityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

// CreateSession handles POST /api/v1/sessions.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req CredentialsRequest
	if !bindCredentials(c, &req) {
		return
	}

	session, err := h.service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondIdentityError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

// DeleteSession handles DELETE /api/v1/sessions. It requires RequireAuth.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		apierrors.Unauthorized(c, "Not signed in")
		return
	}

	if err := h.service.EndSession(c.Request.Context(), principal); err != nil {
		apierrors.InternalServerError(c, "Failed to end session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindCredentials(c *gin.Context, req *CredentialsRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return false
	}
	return true
}

func respondIdentityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailInUse):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrEmailInUse, "The email address is already in use by another account")
	case errors.Is(err, services.ErrInvalidEmail):
		apierrors.Respond(c, http.StatusBadRequest, apierrors.ErrInvalidEmail, "The email address is badly formatted")
	case errors.Is(err, services.ErrWeakPassword):
		apierrors.Respond(c, http.StatusBadRequest, apierrors.ErrWeakPassword, "Password should be at least 6 characters")
	case errors.Is(err, services.ErrWrongPassword):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrWrongPassword, "The password is invalid")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.Respond(c, http.StatusNotFound, apierrors.ErrUserNotFound, "There is no user record corresponding to this identifier")
	default:
		apierrors.InternalServerError(c, "Identity service failure", err)
	}
}

func toSessionResponse(s *services.Session) SessionResponse {
	return SessionResponse{
		UserID:    s.User.ID,
		Email:     s.User.Email,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
