package models

import "time"

// Message is a single post in a channel. ReplyTo is set only for replies and
// always points at a top-level message in the same channel.
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	ReplyTo   *int64    `json:"reply_to"`
	CreatedAt time.Time `json:"created_at"`
}

// IsReply reports whether the message belongs to a thread.
func (m *Message) IsReply() bool {
	return m.ReplyTo != nil
}

type MessageWithAuthor struct {
	Message
	AuthorName string `json:"author_name"`
	ReplyCount int    `json:"reply_count"`
}
