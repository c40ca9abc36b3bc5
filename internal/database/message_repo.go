package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jiashuyu/belay/internal/models"
)

type messageRepo struct {
	db DBTX
}

func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepo{db: db}
}

const messageColumns = `m.id, m.channel_id, m.author_id, m.body, m.reply_to, m.created_at,
		        u.name,
		        (SELECT COUNT(*) FROM messages r WHERE r.reply_to = m.id)`

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO messages (channel_id, author_id, body, reply_to)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		msg.ChannelID, msg.AuthorID, msg.Body, msg.ReplyTo,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepo) GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error) {
	m := &models.MessageWithAuthor{}
	err := r.db.QueryRow(ctx,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN users u ON u.id = m.author_id
		 WHERE m.id = $1`, id,
	).Scan(
		&m.ID, &m.ChannelID, &m.AuthorID, &m.Body, &m.ReplyTo, &m.CreatedAt,
		&m.AuthorName, &m.ReplyCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *messageRepo) GetTopLevelByChannelID(ctx context.Context, channelID int64) ([]models.MessageWithAuthor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN users u ON u.id = m.author_id
		 WHERE m.channel_id = $1 AND m.reply_to IS NULL
		 ORDER BY m.id`,
		channelID,
	)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *messageRepo) GetReplies(ctx context.Context, parentID int64) ([]models.MessageWithAuthor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages m
		 INNER JOIN users u ON u.id = m.author_id
		 WHERE m.reply_to = $1
		 ORDER BY m.id`,
		parentID,
	)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// CountTopLevelAfter counts top-level messages in a channel with an ID
// greater than after. A nil after counts every top-level message.
func (r *messageRepo) CountTopLevelAfter(ctx context.Context, channelID int64, after *int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM messages
		 WHERE channel_id = $1
		   AND reply_to IS NULL
		   AND ($2::BIGINT IS NULL OR id > $2)`,
		channelID, after,
	).Scan(&n)
	return n, err
}

// CountUnreadByUser returns one row per channel, ordered by channel ID, with
// the number of top-level messages newer than the user's watermark there.
func (r *messageRepo) CountUnreadByUser(ctx context.Context, userID int64) ([]models.UnreadCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, COUNT(m.id)
		 FROM channels c
		 LEFT JOIN read_states rs
		        ON rs.channel_id = c.id AND rs.user_id = $1
		 LEFT JOIN messages m
		        ON m.channel_id = c.id
		       AND m.reply_to IS NULL
		       AND (rs.last_message_id IS NULL OR m.id > rs.last_message_id)
		 GROUP BY c.id
		 ORDER BY c.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.UnreadCount
	for rows.Next() {
		var uc models.UnreadCount
		if err := rows.Scan(&uc.ChannelID, &uc.UnreadCount); err != nil {
			return nil, err
		}
		counts = append(counts, uc)
	}
	return counts, rows.Err()
}

func collectMessages(rows pgx.Rows) ([]models.MessageWithAuthor, error) {
	defer rows.Close()

	var messages []models.MessageWithAuthor
	for rows.Next() {
		var m models.MessageWithAuthor
		if err := rows.Scan(
			&m.ID, &m.ChannelID, &m.AuthorID, &m.Body, &m.ReplyTo, &m.CreatedAt,
			&m.AuthorName, &m.ReplyCount,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
