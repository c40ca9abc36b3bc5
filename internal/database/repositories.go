package database

import (
	"context"

	"github.com/jiashuyu/belay/internal/models"
)

// Lookups return (nil, nil) when the row does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	GetByName(ctx context.Context, name string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	UpdateName(ctx context.Context, id int64, name string) (*models.Channel, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error)
	GetTopLevelByChannelID(ctx context.Context, channelID int64) ([]models.MessageWithAuthor, error)
	GetReplies(ctx context.Context, parentID int64) ([]models.MessageWithAuthor, error)
	CountTopLevelAfter(ctx context.Context, channelID int64, after *int64) (int, error)
	CountUnreadByUser(ctx context.Context, userID int64) ([]models.UnreadCount, error)
}

type ReadStateRepository interface {
	Upsert(ctx context.Context, userID, channelID, lastMessageID int64) error
	GetByUser(ctx context.Context, userID int64) ([]models.ReadState, error)
	GetByUserAndChannel(ctx context.Context, userID, channelID int64) (*models.ReadState, error)
}
