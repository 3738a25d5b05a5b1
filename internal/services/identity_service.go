package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stwalsh4118/grownby/internal/config"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/metrics"
	"github.com/stwalsh4118/grownby/internal/models"
	"github.com/stwalsh4118/grownby/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the identity service accepts.
const MinPasswordLength = 6

// Identity errors. Handlers map each to its own error code.
var (
	ErrEmailInUse    = errors.New("email already in use")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrWeakPassword  = errors.New("password too weak")
	ErrWrongPassword = errors.New("wrong password")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidToken  = errors.New("invalid token")
)

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Claims are the JWT claims of a session token. IssuedAtMicros carries the
// issue time at database precision so sign-out can revoke it exactly.
type Claims struct {
	Email          string `json:"email"`
	IssuedAtMicros int64  `json:"iat_us"`
	jwt.RegisteredClaims
}

// IdentityService defines account and session operations.
type IdentityService interface {
	// CreateAccount registers email/password and signs the new user in.
	// Returns ErrInvalidEmail, ErrWeakPassword or ErrEmailInUse.
	CreateAccount(ctx context.Context, email, password string) (*Session, error)

	// Authenticate signs an existing user in.
	// Returns ErrInvalidEmail, ErrUserNotFound or ErrWrongPassword.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	// EndSession revokes every token the principal currently holds.
	EndSession(ctx context.Context, principal *models.Principal) error

	// VerifyToken resolves a bearer token. Returns ErrInvalidToken for
	// malformed, expired or revoked tokens.
	VerifyToken(ctx context.Context, token string) (*models.Principal, error)
}

type identityService struct {
	users    repository.UserRepository
	secret   []byte
	ttl      time.Duration
	log      *logger.Logger
	validate *validator.Validate
	hashCost int
	now      func() time.Time
}

// NewIdentityService creates a new instance of IdentityService.
func NewIdentityService(users repository.UserRepository, cfg config.AuthConfig, log *logger.Logger) IdentityService {
	return &identityService{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		log:      log.WithComponent("identity"),
		validate: validator.New(),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *identityService) CreateAccount(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, s.reject("signup", email, ErrInvalidEmail)
	}
	if len(password) < MinPasswordLength {
		return nil, s.reject("signup", email, ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, s.reject("signup", email, ErrEmailInUse)
		}
		metrics.IncAuthOutcome("signup", "error")
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	metrics.IncAuthOutcome("signup", "ok")
	s.log.Info("Account created", map[string]interface{}{
		"user_id": user.ID,
	})
	return session, nil
}

func (s *identityService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, s.reject("signin", email, ErrInvalidEmail)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.IncAuthOutcome("signin", "error")
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, s.reject("signin", email, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, s.reject("signin", email, ErrWrongPassword)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	metrics.IncAuthOutcome("signin", "ok")
	s.log.Info("Signed in", map[string]interface{}{
		"user_id": user.ID,
	})
	return session, nil
}

func (s *identityService) EndSession(ctx context.Context, principal *models.Principal) error {
	if principal == nil {
		return ErrInvalidToken
	}
	if err := s.users.RevokeTokens(ctx, principal.UserID, s.now().Truncate(time.Microsecond)); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	metrics.IncAuthOutcome("signout", "ok")
	s.log.Info("Signed out", map[string]interface{}{
		"user_id": principal.UserID,
	})
	return nil
}

func (s *identityService) VerifyToken(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load token subject: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	if claims.IssuedAtMicros <= user.TokensValidAfter.UnixMicro() {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	return &models.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		IssuedAt: time.UnixMicro(claims.IssuedAtMicros),
	}, nil
}

func (s *identityService) issue(user *models.User) (*Session, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email:          user.Email,
		IssuedAtMicros: now.UnixMicro(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{User: user, Token: signed, ExpiresAt: expires}, nil
}

// reject logs and counts a refused identity operation and returns err.
func (s *identityService) reject(operation, email string, err error) error {
	metrics.IncAuthOutcome(operation, err.Error())
	s.log.Warn("Identity request rejected", map[string]interface{}{
		"operation": operation,
		"email":     email,
		"reason":    err.Error(),
	})
	return err
}
