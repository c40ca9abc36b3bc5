package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jiashuyu/belay/internal/models"
)

type userRepo struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (name, password_hash, api_key)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Name, user.PasswordHash, user.APIKey,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, password_hash, api_key, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.APIKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, password_hash, api_key, created_at
		 FROM users WHERE api_key = $1`, apiKey,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.APIKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByName returns every user with the given name. Names are not unique.
func (r *userRepo) GetByName(ctx context.Context, name string) ([]models.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, password_hash, api_key, created_at
		 FROM users WHERE name = $1
		 ORDER BY id`, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.APIKey, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update writes the mutable profile fields. The API key is never rewritten.
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, password_hash = $3
		 WHERE id = $1`,
		user.ID, user.Name, user.PasswordHash,
	)
	return err
}
