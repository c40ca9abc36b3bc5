package database

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jiashuyu/belay/internal/models"
)

// ErrConstraint mirrors a foreign key or uniqueness violation in MemoryStore.
var ErrConstraint = errors.New("memory store: constraint violation")

// MemoryStore is an in-memory Store for tests. It allocates IDs from
// per-table counters the way BIGSERIAL does, and WithTx restores the previous
// state when fn fails.
type MemoryStore struct {
	mu      sync.Mutex
	state   *memoryState
	failErr error
}

type memoryState struct {
	nextUserID    int64
	nextChannelID int64
	nextMessageID int64
	users         map[int64]models.User
	channels      map[int64]models.Channel
	messages      map[int64]models.Message
	readStates    map[[2]int64]models.ReadState
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			users:      make(map[int64]models.User),
			channels:   make(map[int64]models.Channel),
			messages:   make(map[int64]models.Message),
			readStates: make(map[[2]int64]models.ReadState),
		},
	}
}

// SetMessageSequence makes the next allocated message ID equal to next.
func (s *MemoryStore) SetMessageSequence(next int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.nextMessageID = next - 1
}

// FailWith makes every subsequent repository call return err. Pass nil to
// clear it.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (st *memoryState) clone() memoryState {
	c := *st
	c.users = make(map[int64]models.User, len(st.users))
	for k, v := range st.users {
		c.users[k] = v
	}
	c.channels = make(map[int64]models.Channel, len(st.channels))
	for k, v := range st.channels {
		c.channels[k] = v
	}
	c.messages = make(map[int64]models.Message, len(st.messages))
	for k, v := range st.messages {
		c.messages[k] = v
	}
	c.readStates = make(map[[2]int64]models.ReadState, len(st.readStates))
	for k, v := range st.readStates {
		c.readStates[k] = v
	}
	return c
}

func (s *MemoryStore) handle(locked bool) *memoryHandle {
	return &memoryHandle{store: s, locked: locked}
}

func (s *MemoryStore) Users() UserRepository           { return memoryUsers{s.handle(false)} }
func (s *MemoryStore) Channels() ChannelRepository     { return memoryChannels{s.handle(false)} }
func (s *MemoryStore) Messages() MessageRepository     { return memoryMessages{s.handle(false)} }
func (s *MemoryStore) ReadStates() ReadStateRepository { return memoryReadStates{s.handle(false)} }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.state = snapshot
			panic(p)
		}
	}()
	if err := fn(txRepositories{s.handle(true)}); err != nil {
		*s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) WithReadTx(ctx context.Context, fn func(Repositories) error) error {
	return s.WithTx(ctx, fn)
}

type txRepositories struct {
	h *memoryHandle
}

func (t txRepositories) Users() UserRepository           { return memoryUsers{t.h} }
func (t txRepositories) Channels() ChannelRepository     { return memoryChannels{t.h} }
func (t txRepositories) Messages() MessageRepository     { return memoryMessages{t.h} }
func (t txRepositories) ReadStates() ReadStateRepository { return memoryReadStates{t.h} }

// memoryHandle guards access to the store state. Inside WithTx the store lock
// is already held, so locked skips acquiring it again.
type memoryHandle struct {
	store  *MemoryStore
	locked bool
}

func (h *memoryHandle) begin() (*memoryState, func(), error) {
	if !h.locked {
		h.store.mu.Lock()
	}
	release := func() {
		if !h.locked {
			h.store.mu.Unlock()
		}
	}
	if h.store.failErr != nil {
		release()
		return nil, nil, h.store.failErr
	}
	return h.store.state, release, nil
}

type memoryUsers struct{ h *memoryHandle }

func (us memoryUsers) Create(ctx context.Context, user *models.User) error {
	st, release, err := us.h.begin()
	if err != nil {
		return err
	}
	defer release()

	for _, u := range st.users {
		if u.APIKey == user.APIKey {
			return ErrConstraint
		}
	}
	st.nextUserID++
	user.ID = st.nextUserID
	user.CreatedAt = time.Now()
	st.users[user.ID] = *user
	return nil
}

func (us memoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	st, release, err := us.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	u, ok := st.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (us memoryUsers) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	st, release, err := us.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	for _, u := range st.users {
		if u.APIKey == apiKey {
			return &u, nil
		}
	}
	return nil, nil
}

func (us memoryUsers) GetByName(ctx context.Context, name string) ([]models.User, error) {
	st, release, err := us.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	var users []models.User
	for _, u := range st.users {
		if u.Name == name {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (us memoryUsers) Update(ctx context.Context, user *models.User) error {
	st, release, err := us.h.begin()
	if err != nil {
		return err
	}
	defer release()

	u, ok := st.users[user.ID]
	if !ok {
		return nil
	}
	u.Name = user.Name
	u.PasswordHash = user.PasswordHash
	st.users[u.ID] = u
	return nil
}

type memoryChannels struct{ h *memoryHandle }

func (c memoryChannels) Create(ctx context.Context, ch *models.Channel) error {
	st, release, err := c.h.begin()
	if err != nil {
		return err
	}
	defer release()

	st.nextChannelID++
	ch.ID = st.nextChannelID
	ch.CreatedAt = time.Now()
	st.channels[ch.ID] = *ch
	return nil
}

func (c memoryChannels) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	st, release, err := c.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	ch, ok := st.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (c memoryChannels) List(ctx context.Context) ([]models.Channel, error) {
	st, release, err := c.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	var channels []models.Channel
	for _, ch := range st.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return channels, nil
}

func (c memoryChannels) UpdateName(ctx context.Context, id int64, name string) (*models.Channel, error) {
	st, release, err := c.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	ch, ok := st.channels[id]
	if !ok {
		return nil, nil
	}
	ch.Name = name
	st.channels[id] = ch
	return &ch, nil
}

type memoryMessages struct{ h *memoryHandle }

func (m memoryMessages) Create(ctx context.Context, msg *models.Message) error {
	st, release, err := m.h.begin()
	if err != nil {
		return err
	}
	defer release()

	if _, ok := st.channels[msg.ChannelID]; !ok {
		return ErrConstraint
	}
	if _, ok := st.users[msg.AuthorID]; !ok {
		return ErrConstraint
	}
	if msg.ReplyTo != nil {
		parent, ok := st.messages[*msg.ReplyTo]
		if !ok || parent.ChannelID != msg.ChannelID {
			return ErrConstraint
		}
	}
	st.nextMessageID++
	msg.ID = st.nextMessageID
	msg.CreatedAt = time.Now()
	st.messages[msg.ID] = *msg
	return nil
}

func (st *memoryState) withAuthor(msg models.Message) models.MessageWithAuthor {
	full := models.MessageWithAuthor{Message: msg, AuthorName: st.users[msg.AuthorID].Name}
	for _, other := range st.messages {
		if other.ReplyTo != nil && *other.ReplyTo == msg.ID {
			full.ReplyCount++
		}
	}
	return full
}

func (st *memoryState) selectMessages(match func(models.Message) bool) []models.MessageWithAuthor {
	var out []models.MessageWithAuthor
	for _, msg := range st.messages {
		if match(msg) {
			out = append(out, st.withAuthor(msg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m memoryMessages) GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error) {
	st, release, err := m.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	msg, ok := st.messages[id]
	if !ok {
		return nil, nil
	}
	full := st.withAuthor(msg)
	return &full, nil
}

func (m memoryMessages) GetTopLevelByChannelID(ctx context.Context, channelID int64) ([]models.MessageWithAuthor, error) {
	st, release, err := m.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	return st.selectMessages(func(msg models.Message) bool {
		return msg.ChannelID == channelID && msg.ReplyTo == nil
	}), nil
}

func (m memoryMessages) GetReplies(ctx context.Context, parentID int64) ([]models.MessageWithAuthor, error) {
	st, release, err := m.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	return st.selectMessages(func(msg models.Message) bool {
		return msg.ReplyTo != nil && *msg.ReplyTo == parentID
	}), nil
}

func (st *memoryState) countTopLevelAfter(channelID int64, after *int64) int {
	n := 0
	for _, msg := range st.messages {
		if msg.ChannelID != channelID || msg.ReplyTo != nil {
			continue
		}
		if after == nil || msg.ID > *after {
			n++
		}
	}
	return n
}

func (m memoryMessages) CountTopLevelAfter(ctx context.Context, channelID int64, after *int64) (int, error) {
	st, release, err := m.h.begin()
	if err != nil {
		return 0, err
	}
	defer release()

	return st.countTopLevelAfter(channelID, after), nil
}

func (m memoryMessages) CountUnreadByUser(ctx context.Context, userID int64) ([]models.UnreadCount, error) {
	st, release, err := m.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	counts := make([]models.UnreadCount, 0, len(st.channels))
	for id := range st.channels {
		var after *int64
		if rs, ok := st.readStates[[2]int64{userID, id}]; ok {
			last := rs.LastMessageID
			after = &last
		}
		counts = append(counts, models.UnreadCount{ChannelID: id, UnreadCount: st.countTopLevelAfter(id, after)})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ChannelID < counts[j].ChannelID })
	return counts, nil
}

type memoryReadStates struct{ h *memoryHandle }

func (rs memoryReadStates) Upsert(ctx context.Context, userID, channelID, lastMessageID int64) error {
	st, release, err := rs.h.begin()
	if err != nil {
		return err
	}
	defer release()

	if _, ok := st.channels[channelID]; !ok {
		return ErrConstraint
	}
	if _, ok := st.users[userID]; !ok {
		return ErrConstraint
	}
	st.readStates[[2]int64{userID, channelID}] = models.ReadState{
		UserID:        userID,
		ChannelID:     channelID,
		LastMessageID: lastMessageID,
		UpdatedAt:     time.Now(),
	}
	return nil
}

func (rs memoryReadStates) GetByUser(ctx context.Context, userID int64) ([]models.ReadState, error) {
	st, release, err := rs.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	var states []models.ReadState
	for key, s := range st.readStates {
		if key[0] == userID {
			states = append(states, s)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ChannelID < states[j].ChannelID })
	return states, nil
}

func (rs memoryReadStates) GetByUserAndChannel(ctx context.Context, userID, channelID int64) (*models.ReadState, error) {
	st, release, err := rs.h.begin()
	if err != nil {
		return nil, err
	}
	defer release()

	s, ok := st.readStates[[2]int64{userID, channelID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

var _ Store = (*MemoryStore)(nil)
