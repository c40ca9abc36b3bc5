package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Users() UserRepository
	Channels() ChannelRepository
	Messages() MessageRepository
	ReadStates() ReadStateRepository
}

// Store is the handle services use to reach the database. Direct repository
// calls each acquire and release a pooled connection; WithTx and WithReadTx
// scope a single transaction to fn, committing when fn returns nil and
// rolling back otherwise.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
	WithReadTx(ctx context.Context, fn func(Repositories) error) error
}

type repositories struct {
	users      UserRepository
	channels   ChannelRepository
	messages   MessageRepository
	readStates ReadStateRepository
}

func newRepositories(db DBTX) *repositories {
	return &repositories{
		users:      NewUserRepository(db),
		channels:   NewChannelRepository(db),
		messages:   NewMessageRepository(db),
		readStates: NewReadStateRepository(db),
	}
}

func (r *repositories) Users() UserRepository           { return r.users }
func (r *repositories) Channels() ChannelRepository     { return r.channels }
func (r *repositories) Messages() MessageRepository     { return r.messages }
func (r *repositories) ReadStates() ReadStateRepository { return r.readStates }

var _ Store = (*pgStore)(nil)

type pgStore struct {
	*repositories
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{
		repositories: newRepositories(pool),
		pool:         pool,
	}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(newRepositories(tx))
	})
}

func (s *pgStore) WithReadTx(ctx context.Context, fn func(Repositories) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(newRepositories(tx))
	})
}
