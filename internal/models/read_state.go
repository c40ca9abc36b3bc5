package models

import "time"

// ReadState is the read watermark of one user in one channel: the ID of the
// last message the user acknowledged as seen.
type ReadState struct {
	UserID        int64     `json:"user_id"`
	ChannelID     int64     `json:"channel_id"`
	LastMessageID int64     `json:"last_message_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UnreadCount struct {
	ChannelID   int64 `json:"channel_id"`
	UnreadCount int   `json:"unread_count"`
}
