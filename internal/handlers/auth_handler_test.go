package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/grownby/internal/errors"
	"github.com/stwalsh4118/grownby/internal/middleware"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/services"
)

func setupAuthRouter(svc *MockIdentityService) *gin.Engine {
	handler := NewAuthHandler(svc)
	router := gin.New()
	router.Use(middleware.RequestID())
	v1 := router.Group("/api/v1")
	v1.POST("/accounts", handler.CreateAccount)
	v1.POST("/sessions", handler.CreateSession)
	v1.DELETE("/sessions", middleware.RequireAuth(svc), handler.DeleteSession)
	return router
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var body apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func testSession() *services.Session {
	return &services.Session{
		User:      &models.User{ID: "u-1", Email: "ann@example.com"},
		Token:     "tok",
		ExpiresAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateAccount_Success(t *testing.T) {
	svc := new(MockIdentityService)
	svc.On("CreateAccount", mock.Anything, "ann@example.com", "abc123").Return(testSession(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts",
		strings.NewReader(`{"email":"ann@example.com","password":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupAuthRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, SessionResponse{
		UserID:    "u-1",
		Email:     "ann@example.com",
		Token:     "tok",
		ExpiresAt: "2026-06-01T00:00:00Z",
	}, resp)
}

func TestIdentityErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		method     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"email in use", "/api/v1/accounts", "CreateAccount", services.ErrEmailInUse, http.StatusConflict, apierrors.ErrEmailInUse},
		{"invalid email on signup", "/api/v1/accounts", "CreateAccount", services.ErrInvalidEmail, http.StatusBadRequest, apierrors.ErrInvalidEmail},
		{"weak password", "/api/v1/accounts", "CreateAccount", services.ErrWeakPassword, http.StatusBadRequest, apierrors.ErrWeakPassword},
		{"wrong password", "/api/v1/sessions", "Authenticate", services.ErrWrongPassword, http.StatusUnauthorized, apierrors.ErrWrongPassword},
		{"user not found", "/api/v1/sessions", "Authenticate", services.ErrUserNotFound, http.StatusNotFound, apierrors.ErrUserNotFound},
		{"invalid email on signin", "/api/v1/sessions", "Authenticate", services.ErrInvalidEmail, http.StatusBadRequest, apierrors.ErrInvalidEmail},
		{"unexpected failure", "/api/v1/sessions", "Authenticate", errors.New("db down"), http.StatusInternalServerError, apierrors.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockIdentityService)
			svc.On(tt.method, mock.Anything, "ann@example.com", "abc123").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, tt.path,
				strings.NewReader(`{"email":"ann@example.com","password":"abc123"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			setupAuthRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestCreateSession_BadBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing password", `{"email":"ann@example.com"}`, apierrors.ErrValidation},
		{"not json", `email=ann`, apierrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockIdentityService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			setupAuthRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			svc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	principal := &models.Principal{UserID: "u-1", Email: "ann@example.com"}

	t.Run("revokes with bearer token", func(t *testing.T) {
		svc := new(MockIdentityService)
		svc.On("VerifyToken", mock.Anything, "tok").Return(principal, nil)
		svc.On("EndSession", mock.Anything, principal).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("requires a token", func(t *testing.T) {
		svc := new(MockIdentityService)

		w := httptest.NewRecorder()
		setupAuthRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apierrors.ErrUnauthorized, decodeError(t, w).Code)
	})
}
