package service

import (
	"context"

	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

// UnreadService computes per-channel unread counts from read watermarks.
// Only top-level messages count; replies never do.
type UnreadService struct {
	store   database.Store
	metrics *metrics.Metrics
}

// NewUnreadService creates an UnreadService.
func NewUnreadService(store database.Store, m *metrics.Metrics) *UnreadService {
	return &UnreadService{store: store, metrics: m}
}

// UnreadCounts returns one entry per channel in ascending channel ID order.
// A channel without a watermark counts every top-level message as unread.
func (s *UnreadService) UnreadCounts(ctx context.Context, userID int64) ([]models.UnreadCount, error) {
	counts, err := s.store.Messages().CountUnreadByUser(ctx, userID)
	if err != nil {
		return nil, storageFailure(s.metrics, "unread_counts", err, "user_id", userID)
	}
	if counts == nil {
		counts = []models.UnreadCount{}
	}
	return counts, nil
}

// UnreadCount returns the unread count of a single channel.
func (s *UnreadService) UnreadCount(ctx context.Context, userID, channelID int64) (*models.UnreadCount, error) {
	var n int
	err := s.store.WithReadTx(ctx, func(r database.Repositories) error {
		ch, err := r.Channels().GetByID(ctx, channelID)
		if err != nil {
			return err
		}
		if ch == nil {
			return NotFound("NOT_FOUND", "channel not found")
		}

		rs, err := r.ReadStates().GetByUserAndChannel(ctx, userID, channelID)
		if err != nil {
			return err
		}
		var after *int64
		if rs != nil {
			after = &rs.LastMessageID
		}

		n, err = r.Messages().CountTopLevelAfter(ctx, channelID, after)
		return err
	})
	if err != nil {
		return nil, txError(s.metrics, "unread_count", err, "user_id", userID, "channel_id", channelID)
	}
	return &models.UnreadCount{ChannelID: channelID, UnreadCount: n}, nil
}
