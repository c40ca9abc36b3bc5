package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jiashuyu/belay/internal/models"
)

type readStateRepo struct {
	db DBTX
}

func NewReadStateRepository(db DBTX) ReadStateRepository {
	return &readStateRepo{db: db}
}

func (r *readStateRepo) Upsert(ctx context.Context, userID, channelID, lastMessageID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO read_states (user_id, channel_id, last_message_id, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id, channel_id)
		 DO UPDATE SET last_message_id = $3, updated_at = NOW()`,
		userID, channelID, lastMessageID,
	)
	return err
}

func (r *readStateRepo) GetByUser(ctx context.Context, userID int64) ([]models.ReadState, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, channel_id, last_message_id, updated_at
		 FROM read_states
		 WHERE user_id = $1
		 ORDER BY channel_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []models.ReadState
	for rows.Next() {
		var s models.ReadState
		if err := rows.Scan(&s.UserID, &s.ChannelID, &s.LastMessageID, &s.UpdatedAt); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

func (r *readStateRepo) GetByUserAndChannel(ctx context.Context, userID, channelID int64) (*models.ReadState, error) {
	s := &models.ReadState{}
	err := r.db.QueryRow(ctx,
		`SELECT user_id, channel_id, last_message_id, updated_at
		 FROM read_states
		 WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID,
	).Scan(&s.UserID, &s.ChannelID, &s.LastMessageID, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}
