package service

import (
	"context"

	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

// ReadStateService tracks how far each user has read in each channel.
type ReadStateService struct {
	store   database.Store
	metrics *metrics.Metrics
}

// NewReadStateService creates a ReadStateService.
func NewReadStateService(store database.Store, m *metrics.Metrics) *ReadStateService {
	return &ReadStateService{store: store, metrics: m}
}

// RecordSeen sets the user's watermark in a channel. The message ID is taken
// as given: it is not checked against the channel, and a value lower than the
// current watermark replaces it.
func (s *ReadStateService) RecordSeen(ctx context.Context, userID int64, channelID, lastMessageID *int64) error {
	if channelID == nil || *channelID <= 0 {
		return InvalidArgument("INVALID_ARGUMENT", "channel id is required")
	}
	if lastMessageID == nil || *lastMessageID <= 0 {
		return InvalidArgument("INVALID_ARGUMENT", "message id is required")
	}

	err := s.store.WithTx(ctx, func(r database.Repositories) error {
		ch, err := r.Channels().GetByID(ctx, *channelID)
		if err != nil {
			return err
		}
		if ch == nil {
			return NotFound("NOT_FOUND", "channel not found")
		}
		return r.ReadStates().Upsert(ctx, userID, *channelID, *lastMessageID)
	})
	if err != nil {
		return txError(s.metrics, "record_seen", err, "user_id", userID, "channel_id", *channelID)
	}

	s.metrics.ReadRecorded()
	return nil
}

// GetWatermark returns the last message the user marked as seen in the
// channel, or nil if they never did.
func (s *ReadStateService) GetWatermark(ctx context.Context, userID, channelID int64) (*int64, error) {
	rs, err := s.store.ReadStates().GetByUserAndChannel(ctx, userID, channelID)
	if err != nil {
		return nil, storageFailure(s.metrics, "get_watermark", err, "user_id", userID, "channel_id", channelID)
	}
	if rs == nil {
		return nil, nil
	}
	id := rs.LastMessageID
	return &id, nil
}

// GetReadStates returns all read states for a user.
func (s *ReadStateService) GetReadStates(ctx context.Context, userID int64) ([]models.ReadState, error) {
	states, err := s.store.ReadStates().GetByUser(ctx, userID)
	if err != nil {
		return nil, storageFailure(s.metrics, "get_read_states", err, "user_id", userID)
	}
	if states == nil {
		states = []models.ReadState{}
	}
	return states, nil
}
