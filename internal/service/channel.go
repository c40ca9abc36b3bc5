package service

import (
	"context"

	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
)

const maxChannelNameLen = 100

// ChannelService handles channel business logic.
type ChannelService struct {
	store     database.Store
	sanitizer Sanitizer
	metrics   *metrics.Metrics
}

// NewChannelService creates a ChannelService.
func NewChannelService(store database.Store, m *metrics.Metrics) *ChannelService {
	return &ChannelService{
		store:     store,
		sanitizer: defaultSanitizer(),
		metrics:   m,
	}
}

// CreateChannel creates a channel with a generated default name.
func (s *ChannelService) CreateChannel(ctx context.Context) (*models.Channel, error) {
	ch := &models.Channel{Name: defaultChannelName()}
	if err := s.store.Channels().Create(ctx, ch); err != nil {
		return nil, storageFailure(s.metrics, "create_channel", err)
	}
	s.metrics.ChannelCreated()
	return ch, nil
}

// ListChannels returns every channel. The order is not part of the contract.
func (s *ChannelService) ListChannels(ctx context.Context) ([]models.Channel, error) {
	channels, err := s.store.Channels().List(ctx)
	if err != nil {
		return nil, storageFailure(s.metrics, "list_channels", err)
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// GetChannel returns a single channel.
func (s *ChannelService) GetChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	ch, err := s.store.Channels().GetByID(ctx, channelID)
	if err != nil {
		return nil, storageFailure(s.metrics, "get_channel", err, "channel_id", channelID)
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}
	return ch, nil
}

// RenameChannel replaces the channel's display name. Blank names are rejected
// rather than stored.
func (s *ChannelService) RenameChannel(ctx context.Context, channelID int64, name string) (*models.Channel, error) {
	clean, ok := cleanText(s.sanitizer, name, 1, maxChannelNameLen)
	if !ok {
		return nil, InvalidArgument("INVALID_NAME", "channel name must be 1-100 characters")
	}

	ch, err := s.store.Channels().UpdateName(ctx, channelID, clean)
	if err != nil {
		return nil, storageFailure(s.metrics, "rename_channel", err, "channel_id", channelID)
	}
	if ch == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}
	return ch, nil
}
