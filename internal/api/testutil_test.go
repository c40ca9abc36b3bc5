package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jiashuyu/belay/internal/auth"
	"github.com/jiashuyu/belay/internal/database"
	"github.com/jiashuyu/belay/internal/metrics"
	"github.com/jiashuyu/belay/internal/models"
	"github.com/jiashuyu/belay/internal/ratelimit"
	redisclient "github.com/jiashuyu/belay/internal/redis"
	"github.com/jiashuyu/belay/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID int64) {
	c.Set("user_id", userID)
}

func newTestRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if got := decodeError(t, rec).Error.Code; got != code {
		t.Fatalf("expected error code %q, got %q", code, got)
	}
}

// ---------------------------------------------------------------------------
// Test environment backed by the in-memory store
// ---------------------------------------------------------------------------

type testEnv struct {
	store   *database.MemoryStore
	metrics *metrics.Metrics

	authSvc *service.AuthService

	auth       *AuthHandler
	users      *UserHandler
	channels   *ChannelHandler
	messages   *MessageHandler
	readStates *ReadStateHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := database.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	authSvc := service.NewAuthService(store, m)
	return &testEnv{
		store:      store,
		metrics:    m,
		authSvc:    authSvc,
		auth:       NewAuthHandler(authSvc),
		users:      NewUserHandler(service.NewUserService(store, m)),
		channels:   NewChannelHandler(service.NewChannelService(store, m)),
		messages:   NewMessageHandler(service.NewMessageService(store, m)),
		readStates: NewReadStateHandler(service.NewReadStateService(store, m), service.NewUnreadService(store, m)),
	}
}

func (env *testEnv) seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, PasswordHash: "x", APIKey: "key-" + name}
	if err := env.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

func (env *testEnv) seedChannel(t *testing.T) *models.Channel {
	t.Helper()
	ch := &models.Channel{Name: "general"}
	if err := env.store.Channels().Create(context.Background(), ch); err != nil {
		t.Fatalf("seeding channel: %v", err)
	}
	return ch
}

func (env *testEnv) seedMessage(t *testing.T, channelID, authorID int64, replyTo *int64) *models.Message {
	t.Helper()
	msg := &models.Message{ChannelID: channelID, AuthorID: authorID, Body: "hello", ReplyTo: replyTo}
	if err := env.store.Messages().Create(context.Background(), msg); err != nil {
		t.Fatalf("seeding message: %v", err)
	}
	return msg
}

// server wires the full router with an in-memory limiter.
func (env *testEnv) server(t *testing.T, staticDir string) *echo.Echo {
	t.Helper()
	limiter := ratelimit.NewMemory(ratelimit.CleanupOpts{})
	t.Cleanup(limiter.Close)

	e := echo.New()
	e.Use(env.metrics.Middleware())
	SetupRouter(e, &Dependencies{
		Auth:           env.auth,
		Users:          env.users,
		Channels:       env.channels,
		Messages:       env.messages,
		ReadStates:     env.readStates,
		AuthMiddleware: auth.Middleware(env.authSvc),
		Limiter:        limiter,
		RateLimitAuth:  100,
		RateLimitAPI:   1000,
		Metrics:        env.metrics,
		StaticDir:      staticDir,
	})
	return e
}

func do(e *echo.Echo, method, path, apiKey, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if apiKey != "" {
		req.Header.Set(echo.HeaderAuthorization, apiKey)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

