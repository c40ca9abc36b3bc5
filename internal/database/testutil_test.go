package database

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jiashuyu/belay/internal/models"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// testPool returns a pgxpool.Pool connected to the test database with the
// schema migrated. It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	migrateOnce.Do(func() {
		_, migrateErr = Migrate(dsn)
	})
	if migrateErr != nil {
		t.Fatalf("migrating test database: %v", migrateErr)
	}
	pool, err := NewPostgresPool(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testSeq makes names and API keys unique across tests sharing a database.
var testSeq int64

func nextSeq() int64 {
	return atomic.AddInt64(&testSeq, 1)
}

func createTestUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$abc$def",
		APIKey:       "test-key-" + uuid.NewString(),
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return u
}

func createTestChannel(t *testing.T, repo ChannelRepository) *models.Channel {
	t.Helper()
	ch := &models.Channel{Name: fmt.Sprintf("test-channel-%d", nextSeq())}
	if err := repo.Create(context.Background(), ch); err != nil {
		t.Fatalf("creating test channel: %v", err)
	}
	return ch
}

func createTestMessage(t *testing.T, repo MessageRepository, channelID, authorID int64, replyTo *int64) *models.Message {
	t.Helper()
	msg := &models.Message{
		ChannelID: channelID,
		AuthorID:  authorID,
		Body:      fmt.Sprintf("message %d", nextSeq()),
		ReplyTo:   replyTo,
	}
	if err := repo.Create(context.Background(), msg); err != nil {
		t.Fatalf("creating test message: %v", err)
	}
	return msg
}
