package service

import (
	"context"
	"unicode/utf8"

	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

// UserService handles user profile business logic.
type UserService struct {
	store     database.Store
	sanitizer Sanitizer
	metrics   *metrics.Metrics
}

// NewUserService creates a UserService.
func NewUserService(store database.Store, m *metrics.Metrics) *UserService {
	return &UserService{
		store:     store,
		sanitizer: defaultSanitizer(),
		metrics:   m,
	}
}

// GetProfile returns the user with the given ID.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, storageFailure(s.metrics, "get_user", err, "user_id", userID)
	}
	if user == nil {
		return nil, NotFound("NOT_FOUND", "user not found")
	}
	return user, nil
}

// UpdateProfile changes the user's name and/or password. Nil fields are left
// untouched. The API key never changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, name, password *string) (*models.User, error) {
	var cleanName string
	if name != nil {
		var ok bool
		cleanName, ok = cleanText(s.sanitizer, *name, 1, 64)
		if !ok {
			return nil, InvalidArgument("INVALID_NAME", "name must be 1-64 characters")
		}
	}

	var hash string
	if password != nil {
		if n := utf8.RuneCountInString(*password); n < 6 || n > 128 {
			return nil, InvalidArgument("INVALID_PASSWORD", "password must be 6-128 characters")
		}
		var err error
		hash, err = auth.HashPassword(*password)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
	}

	var user *models.User
	err := s.store.WithTx(ctx, func(r database.Repositories) error {
		var err error
		user, err = r.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return NotFound("NOT_FOUND", "user not found")
		}
		if name != nil {
			user.Name = cleanName
		}
		if password != nil {
			user.PasswordHash = hash
		}
		return r.Users().Update(ctx, user)
	})
	if err != nil {
		return nil, txError(s.metrics, "update_user", err, "user_id", userID)
	}
	return user, nil
}
