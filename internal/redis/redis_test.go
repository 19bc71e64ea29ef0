package redis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/sessions"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRateLimiterAllowAuth(t *testing.T) {
	_, client := setupRedis(t)
	limiter := NewRateLimiter(client, RateLimitConfig{AuthLimit: 2, AuthWindow: time.Minute})
	ctx := context.Background()

	first, err := limiter.AllowAuth(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, 2, first.Limit)

	second, err := limiter.AllowAuth(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.AllowAuth(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)

	other, err := limiter.AllowAuth(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "limits are per IP")

	require.NoError(t, limiter.ResetAuth(ctx, "10.0.0.1"))
	afterReset, err := limiter.AllowAuth(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, afterReset.Allowed)
}

func newTestSessionStore(client *goredis.Client) *SessionStore {
	opts := &sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true}
	return NewSessionStore(client, opts, []byte("0123456789abcdef0123456789abcdef"), []byte("abcdef0123456789abcdef0123456789"))
}

func TestSessionStoreRoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	store := newTestSessionStore(client)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, "sid")
	require.NoError(t, err)
	assert.True(t, session.IsNew)

	session.Values["user_id"] = "42"
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, session))
	require.NotEmpty(t, session.ID)
	assert.True(t, mr.Exists(sessionKeyPrefix+session.ID))
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+session.ID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotContains(t, cookies[0].Value, "42")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := store.New(next, "sid")
	require.NoError(t, err)
	assert.False(t, loaded.IsNew)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "42", loaded.Values["user_id"])
}

func TestSessionStoreDelete(t *testing.T) {
	mr, client := setupRedis(t)
	store := newTestSessionStore(client)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, "sid")
	require.NoError(t, err)
	session.Values["user_id"] = "42"
	require.NoError(t, store.Save(req, httptest.NewRecorder(), session))
	id := session.ID

	session.Options.MaxAge = -1
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, session))

	assert.False(t, mr.Exists(sessionKeyPrefix+id))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestSessionStoreExpiredSessionGetsFreshID(t *testing.T) {
	mr, client := setupRedis(t)
	store := newTestSessionStore(client)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.New(req, "sid")
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(req, rec, session))

	mr.FastForward(2 * time.Hour)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	loaded, err := store.New(next, "sid")
	require.NoError(t, err)
	assert.True(t, loaded.IsNew)
	assert.Empty(t, loaded.ID)
}

func TestSessionStoreRejectsForgedCookie(t *testing.T) {
	_, client := setupRedis(t)
	store := newTestSessionStore(client)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})

	session, err := store.New(req, "sid")
	assert.Error(t, err)
	assert.True(t, session.IsNew)
}

func TestSessionStoreDeleteByID(t *testing.T) {
	mr, client := setupRedis(t)
	store := newTestSessionStore(client)
	require.NoError(t, mr.Set("session:abc", "payload"))

	require.NoError(t, store.Delete(context.Background(), "abc"))
	assert.False(t, mr.Exists("session:abc"))
	require.NoError(t, store.Delete(context.Background(), "missing"))
	require.NoError(t, store.Ping(context.Background()))
}
