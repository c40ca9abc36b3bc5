package service

import (
	"context"

	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

const maxMessageLen = 2000

// MessageService handles posting and listing messages and their replies.
type MessageService struct {
	store     database.Store
	sanitizer Sanitizer
	metrics   *metrics.Metrics
}

// NewMessageService creates a MessageService.
func NewMessageService(store database.Store, m *metrics.Metrics) *MessageService {
	return &MessageService{
		store:     store,
		sanitizer: defaultSanitizer(),
		metrics:   m,
	}
}

// PostMessage appends a message to a channel. When replyTo is set the message
// joins that message's thread, which must be a top-level message in the same
// channel.
func (s *MessageService) PostMessage(ctx context.Context, channelID, authorID int64, body string, replyTo *int64) (*models.MessageWithAuthor, error) {
	clean, ok := cleanText(s.sanitizer, body, 1, maxMessageLen)
	if !ok {
		return nil, InvalidArgument("INVALID_BODY", "message body must be 1-2000 characters")
	}

	var full *models.MessageWithAuthor
	err := s.store.WithTx(ctx, func(r database.Repositories) error {
		ch, err := r.Channels().GetByID(ctx, channelID)
		if err != nil {
			return err
		}
		if ch == nil {
			return NotFound("NOT_FOUND", "channel not found")
		}

		if replyTo != nil {
			if err := checkReplyTarget(ctx, r, channelID, *replyTo); err != nil {
				return err
			}
		}

		msg := &models.Message{
			ChannelID: channelID,
			AuthorID:  authorID,
			Body:      clean,
			ReplyTo:   replyTo,
		}
		if err := r.Messages().Create(ctx, msg); err != nil {
			return err
		}

		full, err = r.Messages().GetByID(ctx, msg.ID)
		return err
	})
	if err != nil {
		return nil, txError(s.metrics, "post_message", err, "channel_id", channelID, "author_id", authorID)
	}
	if full == nil {
		return nil, storageFailure(s.metrics, "post_message", errMissingAfterInsert, "channel_id", channelID)
	}

	s.metrics.MessagePosted(full.IsReply())
	return full, nil
}

// PostReply posts into the thread of parentID, in the parent's channel.
func (s *MessageService) PostReply(ctx context.Context, parentID, authorID int64, body string) (*models.MessageWithAuthor, error) {
	parent, err := s.GetMessage(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.PostMessage(ctx, parent.ChannelID, authorID, body, &parentID)
}

func checkReplyTarget(ctx context.Context, r database.Repositories, channelID, replyTo int64) error {
	parent, err := r.Messages().GetByID(ctx, replyTo)
	if err != nil {
		return err
	}
	if parent == nil {
		return InvalidReply("reply target does not exist")
	}
	if parent.ChannelID != channelID {
		return InvalidReply("reply target belongs to a different channel")
	}
	if parent.IsReply() {
		return InvalidReply("replies cannot be replied to")
	}
	return nil
}

// GetMessage returns a single message with its author.
func (s *MessageService) GetMessage(ctx context.Context, messageID int64) (*models.MessageWithAuthor, error) {
	msg, err := s.store.Messages().GetByID(ctx, messageID)
	if err != nil {
		return nil, storageFailure(s.metrics, "get_message", err, "message_id", messageID)
	}
	if msg == nil {
		return nil, NotFound("NOT_FOUND", "message not found")
	}
	return msg, nil
}

// ListTopLevelMessages returns the channel's non-reply messages in posting
// order, each with its author name and reply count.
func (s *MessageService) ListTopLevelMessages(ctx context.Context, channelID int64) ([]models.MessageWithAuthor, error) {
	var msgs []models.MessageWithAuthor
	err := s.store.WithReadTx(ctx, func(r database.Repositories) error {
		ch, err := r.Channels().GetByID(ctx, channelID)
		if err != nil {
			return err
		}
		if ch == nil {
			return NotFound("NOT_FOUND", "channel not found")
		}
		msgs, err = r.Messages().GetTopLevelByChannelID(ctx, channelID)
		return err
	})
	if err != nil {
		return nil, txError(s.metrics, "list_messages", err, "channel_id", channelID)
	}
	if msgs == nil {
		msgs = []models.MessageWithAuthor{}
	}
	return msgs, nil
}

// ListReplies returns the thread under messageID in posting order.
func (s *MessageService) ListReplies(ctx context.Context, messageID int64) ([]models.MessageWithAuthor, error) {
	var replies []models.MessageWithAuthor
	err := s.store.WithReadTx(ctx, func(r database.Repositories) error {
		parent, err := r.Messages().GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if parent == nil {
			return NotFound("NOT_FOUND", "message not found")
		}
		replies, err = r.Messages().GetReplies(ctx, messageID)
		return err
	})
	if err != nil {
		return nil, txError(s.metrics, "list_replies", err, "message_id", messageID)
	}
	if replies == nil {
		replies = []models.MessageWithAuthor{}
	}
	return replies, nil
}
