package database

import (
	"context"
	"testing"

	"github.com/jiashuyu/belay/internal/models"
)

func TestMessageRepo_CreateAndGet(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool)
	repo := NewMessageRepository(pool)
	ctx := context.Background()

	author := createTestUser(t, users, "msg_author")
	ch := createTestChannel(t, channels)
	msg := createTestMessage(t, repo, ch.ID, author.ID, nil)

	got, err := repo.GetByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil after Create")
	}
	if got.Body != msg.Body {
		t.Errorf("Body = %q, want %q", got.Body, msg.Body)
	}
	if got.AuthorName != "msg_author" {
		t.Errorf("AuthorName = %q, want %q", got.AuthorName, "msg_author")
	}
	if got.ReplyTo != nil {
		t.Errorf("ReplyTo = %d, want nil", *got.ReplyTo)
	}
}

func TestMessageRepo_GetByID_NotFound(t *testing.T) {
	pool := testPool(t)
	repo := NewMessageRepository(pool)

	got, err := repo.GetByID(context.Background(), 999999999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestMessageRepo_TopLevelAndReplies(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool)
	repo := NewMessageRepository(pool)
	ctx := context.Background()

	author := createTestUser(t, users, "thread_author")
	ch := createTestChannel(t, channels)

	first := createTestMessage(t, repo, ch.ID, author.ID, nil)
	second := createTestMessage(t, repo, ch.ID, author.ID, nil)
	r1 := createTestMessage(t, repo, ch.ID, author.ID, &first.ID)
	r2 := createTestMessage(t, repo, ch.ID, author.ID, &first.ID)

	top, err := repo.GetTopLevelByChannelID(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetTopLevelByChannelID: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].ID != first.ID || top[1].ID != second.ID {
		t.Errorf("top ids = [%d %d], want [%d %d]", top[0].ID, top[1].ID, first.ID, second.ID)
	}
	if top[0].ReplyCount != 2 {
		t.Errorf("ReplyCount = %d, want 2", top[0].ReplyCount)
	}
	if top[1].ReplyCount != 0 {
		t.Errorf("ReplyCount = %d, want 0", top[1].ReplyCount)
	}

	replies, err := repo.GetReplies(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetReplies: %v", err)
	}
	if len(replies) != 2 || replies[0].ID != r1.ID || replies[1].ID != r2.ID {
		t.Fatalf("replies = %+v, want ids [%d %d]", replies, r1.ID, r2.ID)
	}
	for _, r := range replies {
		if r.ReplyTo == nil || *r.ReplyTo != first.ID {
			t.Errorf("reply %d ReplyTo = %v, want %d", r.ID, r.ReplyTo, first.ID)
		}
	}
}

func TestMessageRepo_Create_ReplyAcrossChannelsRejected(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool)
	repo := NewMessageRepository(pool)
	ctx := context.Background()

	author := createTestUser(t, users, "cross_author")
	a := createTestChannel(t, channels)
	b := createTestChannel(t, channels)
	parent := createTestMessage(t, repo, a.ID, author.ID, nil)

	reply := &models.Message{ChannelID: b.ID, AuthorID: author.ID, Body: "wrong channel", ReplyTo: &parent.ID}
	if err := repo.Create(ctx, reply); err == nil {
		t.Fatal("expected foreign key error for cross-channel reply, got nil")
	}
}

func TestMessageRepo_CountTopLevelAfter(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool)
	repo := NewMessageRepository(pool)
	ctx := context.Background()

	author := createTestUser(t, users, "count_author")
	ch := createTestChannel(t, channels)
	m1 := createTestMessage(t, repo, ch.ID, author.ID, nil)
	createTestMessage(t, repo, ch.ID, author.ID, nil)
	createTestMessage(t, repo, ch.ID, author.ID, nil)
	createTestMessage(t, repo, ch.ID, author.ID, &m1.ID)

	all, err := repo.CountTopLevelAfter(ctx, ch.ID, nil)
	if err != nil {
		t.Fatalf("CountTopLevelAfter nil: %v", err)
	}
	if all != 3 {
		t.Errorf("count(nil) = %d, want 3", all)
	}

	after, err := repo.CountTopLevelAfter(ctx, ch.ID, &m1.ID)
	if err != nil {
		t.Fatalf("CountTopLevelAfter: %v", err)
	}
	if after != 2 {
		t.Errorf("count(after m1) = %d, want 2", after)
	}
}

func TestMessageRepo_CountUnreadByUser(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	channels := NewChannelRepository(pool)
	reads := NewReadStateRepository(pool)
	repo := NewMessageRepository(pool)
	ctx := context.Background()

	reader := createTestUser(t, users, "unread_reader")
	ch := createTestChannel(t, channels)
	m1 := createTestMessage(t, repo, ch.ID, reader.ID, nil)
	createTestMessage(t, repo, ch.ID, reader.ID, nil)
	createTestMessage(t, repo, ch.ID, reader.ID, &m1.ID)

	countFor := func() int {
		t.Helper()
		counts, err := repo.CountUnreadByUser(ctx, reader.ID)
		if err != nil {
			t.Fatalf("CountUnreadByUser: %v", err)
		}
		for _, c := range counts {
			if c.ChannelID == ch.ID {
				return c.UnreadCount
			}
		}
		t.Fatalf("channel %d missing from unread counts", ch.ID)
		return 0
	}

	if got := countFor(); got != 2 {
		t.Errorf("unread before ack = %d, want 2", got)
	}
	if err := reads.Upsert(ctx, reader.ID, ch.ID, m1.ID); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got := countFor(); got != 1 {
		t.Errorf("unread after ack = %d, want 1", got)
	}
}
