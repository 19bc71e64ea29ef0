package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vonout/Backend/config"
	"github.com/vonout/Backend/internal/cookies"
	"github.com/vonout/Backend/internal/discord"
	"github.com/vonout/Backend/internal/handler"
	"github.com/vonout/Backend/internal/middleware"
	"github.com/vonout/Backend/internal/realtime"
	"github.com/vonout/Backend/internal/redis"
	"github.com/vonout/Backend/internal/repository"
	"github.com/vonout/Backend/internal/services"
	"github.com/vonout/Backend/internal/session"
	"github.com/vonout/Backend/pkg/database"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 5 * time.Second
	connectTimeout  = 5 * time.Second
)

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

var ErrCookieSecretRequired = errors.New("COOKIE_SECRET is required in release mode")

// Server is a fully registered application that is not listening yet.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger

	discord   *discord.Client
	hub       *realtime.Hub
	redis     *goredis.Client
	db        *pgxpool.Pool
	ownsRedis bool
}

type options struct {
	discord *discord.Client
	redis   *goredis.Client
}

type Option func(*options)

// WithDiscordClient replaces the client built from the config.
func WithDiscordClient(c *discord.Client) Option {
	return func(o *options) {
		o.discord = c
	}
}

// WithRedisClient uses an existing Redis connection instead of REDIS_URL.
// The caller keeps ownership of it.
func WithRedisClient(c *goredis.Client) Option {
	return func(o *options) {
		o.redis = c
	}
}

// New builds the application: every middleware and route is registered here,
// in order, before anything listens. Missing Discord credentials do not fail
// construction; only the calls that need them do.
func New(cfg *config.Config, l *logger.Logger, opts ...Option) (*Server, error) {
	if l == nil {
		l = logger.NewNop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if cfg.CookieSecret == "" && cfg.AppMode == ReleaseMode {
		return nil, ErrCookieSecretRequired
	}
	secret, generated, err := cookies.ResolveSecret(cfg.CookieSecret)
	if err != nil {
		return nil, err
	}
	if generated {
		l.Warnf("COOKIE_SECRET not set, using a random secret; sessions will not survive a restart")
	}
	keys, err := cookies.DeriveKeys(secret)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		logger: l,
	}

	s.redis = o.redis
	if s.redis == nil && cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		s.redis, err = redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			return nil, err
		}
		s.ownsRedis = true
	}

	var users repository.UserRepository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		s.db, err = database.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			s.Close()
			return nil, err
		}
		users = repository.NewUserRepository(s.db)
	}

	s.discord = o.discord
	if s.discord == nil {
		s.discord = discord.New(discord.ClientConfig{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			BotToken:     cfg.DiscordBotToken,
			RedirectURL:  cfg.DiscordRedirectURI,
		})
	}
	if !s.discord.Configured() {
		l.Warnf("Discord OAuth credentials missing; /auth/callback will answer 503")
	}

	secure := cfg.AppMode == ReleaseMode
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.LoggingMiddleware(l))
	engine.Use(middleware.ErrorHandler(l))

	engine.Use(middleware.SecurityHeadersMiddleware(middleware.DefaultCSP))
	engine.Use(middleware.CORSMiddleware(cfg.FrontendOrigin))
	engine.Use(middleware.SignedCookiesMiddleware(cookies.NewSigner(keys, cfg.SessionMaxAge, secure)))
	engine.Use(middleware.FormBodyMiddleware(middleware.DefaultBodyLimit))

	if cfg.Profile.SupportsWebSocket() {
		s.hub = realtime.NewHub(cfg.WSMaxConnections)
		ws := realtime.NewHandler(s.hub, realtime.Config{
			FrontendOrigin: cfg.FrontendOrigin,
			IdleTimeout:    cfg.WSIdleTimeout,
		}, l)
		engine.GET("/realtime", ws.Handle)
	}

	store := session.NewStore(keys, session.Options(cfg.SessionMaxAge, secure), s.redis)
	engine.Use(session.Middleware(store, l))

	authService := services.NewAuthService(s.discord, users, keys.Hash)
	s.registerRoutes(engine, authService)

	s.engine = engine
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes(engine *gin.Engine, authService *services.AuthService) {
	health := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService, s.config.FrontendOrigin, s.logger)
	apiHandler := handler.NewAPIHandler(authService, s.discord)

	engine.GET("/health", health.Health)

	auth := engine.Group("/auth")
	if s.redis != nil {
		limits := redis.DefaultRateLimitConfig()
		if s.config.AuthRateLimit > 0 {
			limits.AuthLimit = s.config.AuthRateLimit
		}
		limiter := redis.NewRateLimiter(s.redis, limits)
		auth.Use(middleware.AuthRateLimitMiddleware(limiter))
	}
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authHandler.Me)
	}

	api := engine.Group("/api", middleware.RequireSession())
	{
		api.GET("/me", apiHandler.Me)
		api.GET("/guilds", apiHandler.Guilds)
		api.GET("/guilds/:id", apiHandler.Guild)
	}
}

// Handler returns the registered application for embedding in another HTTP
// host.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run listens on HOST:PORT and serves until ctx is cancelled, then shuts down
// gracefully. A listen failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Infof("Backend listening on http://%s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("Shutting down, waiting up to %s for open requests", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
		return err
	}
	s.logger.Infof("Server stopped gracefully")
	return nil
}

// Close drops realtime connections and the connections New opened.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.CloseAll()
	}
	if s.redis != nil && s.ownsRedis {
		if err := s.redis.Close(); err != nil {
			s.logger.Warnf("failed to close redis: %s", err)
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}
