package service

import (
	"context"
	"log/slog"

	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

// SignupResult holds the new user and the plaintext password, which is only
// ever returned here.
type SignupResult struct {
	User     models.User
	Password string
}

// AuthService handles signup, login, and API key lookup.
type AuthService struct {
	store   database.Store
	metrics *metrics.Metrics
}

// NewAuthService creates an AuthService.
func NewAuthService(store database.Store, m *metrics.Metrics) *AuthService {
	return &AuthService{store: store, metrics: m}
}

// Signup creates a user with a generated name, password and API key.
func (s *AuthService) Signup(ctx context.Context) (*SignupResult, error) {
	password, err := auth.GeneratePassword()
	if err != nil {
		slog.Error("generating password", "error", err)
		return nil, Internal("INTERNAL", "internal server error")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		return nil, Internal("INTERNAL", "internal server error")
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		slog.Error("generating api key", "error", err)
		return nil, Internal("INTERNAL", "internal server error")
	}

	user := &models.User{
		Name:         defaultUserName(),
		PasswordHash: hash,
		APIKey:       apiKey,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, storageFailure(s.metrics, "signup", err)
	}

	return &SignupResult{User: *user, Password: password}, nil
}

// Login checks the password against every user with the given name, since
// names are not unique.
func (s *AuthService) Login(ctx context.Context, name, password string) (*models.User, error) {
	if name == "" || password == "" {
		return nil, InvalidArgument("INVALID_CREDENTIALS", "name and password are required")
	}

	users, err := s.store.Users().GetByName(ctx, name)
	if err != nil {
		return nil, storageFailure(s.metrics, "login", err)
	}

	for i := range users {
		ok, err := auth.VerifyPassword(password, users[i].PasswordHash)
		if err != nil {
			slog.Warn("unreadable password hash", "user_id", users[i].ID, "error", err)
			continue
		}
		if ok {
			return &users[i], nil
		}
	}
	return nil, Unauthorized("INVALID_CREDENTIALS", "invalid name or password")
}

// Authenticate resolves an API key to its user. It returns (nil, nil) for an
// unknown key so the middleware can tell it apart from a storage failure.
func (s *AuthService) Authenticate(ctx context.Context, apiKey string) (*models.User, error) {
	user, err := s.store.Users().GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, storageFailure(s.metrics, "authenticate", err)
	}
	return user, nil
}

var _ auth.Authenticator = (*AuthService)(nil)
