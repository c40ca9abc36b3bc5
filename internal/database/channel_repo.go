package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jiashuyu/belay/internal/models"
)

type channelRepo struct {
	db DBTX
}

func NewChannelRepository(db DBTX) ChannelRepository {
	return &channelRepo{db: db}
}

func (r *channelRepo) Create(ctx context.Context, ch *models.Channel) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO channels (name) VALUES ($1)
		 RETURNING id, created_at`,
		ch.Name,
	).Scan(&ch.ID, &ch.CreatedAt)
}

func (r *channelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	ch := &models.Channel{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at FROM channels WHERE id = $1`, id,
	).Scan(&ch.ID, &ch.Name, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ch, err
}

func (r *channelRepo) List(ctx context.Context) ([]models.Channel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, created_at FROM channels ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpdateName renames a channel and returns the updated row, or nil when no
// channel has the given ID.
func (r *channelRepo) UpdateName(ctx context.Context, id int64, name string) (*models.Channel, error) {
	ch := &models.Channel{}
	err := r.db.QueryRow(ctx,
		`UPDATE channels SET name = $2
		 WHERE id = $1
		 RETURNING id, name, created_at`,
		id, name,
	).Scan(&ch.ID, &ch.Name, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ch, err
}
