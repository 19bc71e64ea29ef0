package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vonout/Backend/config"
	"github.com/vonout/Backend/internal/realtime"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:             "127.0.0.1",
		Port:             0,
		AppMode:          TestMode,
		Profile:          config.ProfileStandalone,
		FrontendOrigin:   "http://localhost:5173",
		SessionMaxAge:    time.Hour,
		AuthRateLimit:    20,
		WSIdleTimeout:    time.Minute,
		WSMaxConnections: 10,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	s, err := New(cfg, logger.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func get(s *Server, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewWithoutDiscordCredentials(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(s, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string  `json:"status"`
		Uptime float64 `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.GreaterOrEqual(t, body.Uptime, 0.0)
}

func TestNewTwiceYieldsIndependentServers(t *testing.T) {
	cfg := testConfig()
	a := newTestServer(t, cfg)
	b := newTestServer(t, cfg)

	assert.NotSame(t, a.Engine(), b.Engine())
	assert.NotSame(t, a.discord, b.discord)
	assert.Equal(t, http.StatusOK, get(a, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, get(b, "/health", nil).Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := get(newTestServer(t, testConfig()), "/health", nil)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(s, "/health", http.Header{"Origin": {"http://localhost:5173"}})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = get(s, "/health", http.Header{"Origin": {"https://status.example"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestServerlessProfileHasNoRealtime(t *testing.T) {
	cfg := testConfig()
	cfg.Profile = config.ProfileServerless
	s := newTestServer(t, cfg)
	assert.Nil(t, s.hub)

	rec := get(s, "/realtime", http.Header{
		"Connection":            {"Upgrade"},
		"Upgrade":               {"websocket"},
		"Sec-Websocket-Version": {"13"},
		"Sec-Websocket-Key":     {"dGhlIHNhbXBsZSBub25jZQ=="},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusOK, get(s, "/health", nil).Code)
}

func TestRealtimeHello(t *testing.T) {
	s := newTestServer(t, testConfig())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/realtime", nil)
	require.NoError(t, err)
	defer ws.Close()

	var hello realtime.HelloMessage
	require.NoError(t, ws.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.InDelta(t, time.Now().UnixMilli(), hello.Now, 5000)
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(s, "/api/guilds", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(s, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRedirectsWithoutCredentials(t *testing.T) {
	rec := get(newTestServer(t, testConfig()), "/auth/login", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://discord.com/api/v10/oauth2/authorize?"))
}

func TestReleaseModeRequiresCookieSecret(t *testing.T) {
	cfg := testConfig()
	cfg.AppMode = ReleaseMode

	_, err := New(cfg, logger.NewNop())
	assert.ErrorIs(t, err, ErrCookieSecretRequired)

	cfg.CookieSecret = "operator-secret"
	s, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	s.Close()
}

func TestAuthRateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.AuthRateLimit = 2
	s := newTestServer(t, cfg, WithRedisClient(client))

	assert.Equal(t, http.StatusUnauthorized, get(s, "/auth/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(s, "/auth/me", nil).Code)
	rec := get(s, "/auth/me", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, http.StatusOK, get(s, "/health", nil).Code)
}

func TestAuthRateLimitDefaultsWhenUnset(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.AuthRateLimit = 0
	s := newTestServer(t, cfg, WithRedisClient(client))

	rec := get(s, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "20", rec.Header().Get("X-RateLimit-Limit"))
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := New(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestRunFailsWhenPortTaken(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	s := newTestServer(t, cfg)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
