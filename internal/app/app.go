package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/microblog/internal/cache"
	"github.com/simp-lee/microblog/internal/config"
	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/module/auth"
	"github.com/simp-lee/microblog/internal/module/comment"
	"github.com/simp-lee/microblog/internal/module/post"
	"github.com/simp-lee/microblog/internal/module/user"
	"github.com/simp-lee/microblog/internal/notify"
	"github.com/simp-lee/microblog/internal/security"
)

const (
	defaultServerTimeout = 30 * time.Second
	defaultNotifyDelay   = 2 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config

	limiter *middleware.IPRateLimiter
	redis   *redis.Client
	tasks   *asynq.Client
	inline  *notify.InlineDispatcher

	closeOnce sync.Once
}

// Option customizes New.
type Option func(*options)

type options struct {
	logOpts     []logger.Option
	redisClient *redis.Client
}

// WithLoggerOptions appends options to the ones built from the log config.
func WithLoggerOptions(opts ...logger.Option) Option {
	return func(o *options) { o.logOpts = append(o.logOpts, opts...) }
}

// WithRedisClient makes the cache use client instead of dialing redis.addr.
// The App closes it on shutdown.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      2 * timeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// Wiring order: logger, database and schema, credential and token services,
// cache, notifier, repositories, services, handlers, middleware and routes.
// Everything opened before a failure is closed again.
func New(cfg *config.Config, opts ...Option) (a *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log, err := config.SetupLogger(&cfg.Log, o.logOpts...)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	a = &App{cfg: cfg, logger: log, redis: o.redisClient}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}

	a.db, err = config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	if err := config.Migrate(a.db); err != nil {
		return nil, err
	}
	log.Info("database schema ready")

	hasher, err := security.NewPasswordHasher(security.HasherConfig{
		Algorithm:  cfg.Auth.Password.Algorithm,
		BcryptCost: cfg.Auth.Password.BcryptCost,
	})
	if err != nil {
		return nil, fmt.Errorf("setup password hasher: %w", err)
	}

	var tokenOpts []security.TokenOption
	if cfg.Auth.Issuer != "" {
		tokenOpts = append(tokenOpts, security.WithIssuer(cfg.Auth.Issuer))
	}
	tokens, err := security.NewJWTService(cfg.Auth.JWTSecret, config.DurationOr(cfg.Auth.TokenExpiry, 30*time.Minute), tokenOpts...)
	if err != nil {
		return nil, fmt.Errorf("setup token service: %w", err)
	}

	postCache := a.setupCache()
	notifier := a.setupNotifier()

	// Manual dependency injection: repository → service → handler.
	userRepo := user.NewUserRepository(a.db)
	postRepo := post.NewPostRepository(a.db)
	commentRepo := comment.NewCommentRepository(a.db)

	authSvc := auth.NewService(userRepo, hasher, tokens)
	userSvc := user.NewUserService(userRepo)
	postSvc := post.NewPostService(postRepo, postCache, config.DurationOr(cfg.Cache.TTL, post.DefaultCacheTTL), notifier)
	commentSvc := comment.NewCommentService(commentRepo, postRepo)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log.Logger),
		middleware.Recovery(log.Logger),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, &cfg.Server.CORS)),
	)
	if rl := cfg.Server.RateLimit; rl.Enabled {
		a.limiter = middleware.NewIPRateLimiter(rl.RPS, rl.Burst, config.DurationOr(rl.IdleTTL, 0))
		engine.Use(middleware.RateLimit(a.limiter))
	}

	checks := map[string]HealthCheck{}
	if cfg.Cache.Enabled {
		if pinger, ok := postCache.(interface{ Ping(context.Context) error }); ok {
			checks["cache"] = pinger.Ping
		}
	}

	if err := RegisterRoutes(engine, &RouteDeps{
		Modules: []Module{
			auth.NewModule(auth.NewHandler(authSvc)),
			user.NewModule(user.NewUserHandler(userSvc)),
			post.NewModule(post.NewPostHandler(postSvc)),
			comment.NewModule(comment.NewCommentHandler(commentSvc)),
		},
		Resolver: auth.NewResolver(tokens, userRepo),
		DB:       a.db,
		Checks:   checks,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	a.engine = engine
	return a, nil
}

func (a *App) setupCache() domain.JSONCache {
	if !a.cfg.Cache.Enabled {
		return cache.Nop{}
	}
	if a.redis == nil {
		a.redis = cache.NewRedisClient(redisOptions(&a.cfg.Redis))
	}
	a.logger.Info("post cache enabled",
		slog.String("redis_addr", a.cfg.Redis.Addr),
		slog.String("ttl", a.cfg.Cache.TTL),
	)
	return cache.NewRedisCache(a.redis, a.cfg.Cache.Prefix)
}

func (a *App) setupNotifier() domain.PostNotifier {
	if a.cfg.Notify.Driver == config.NotifyAsynq {
		a.tasks = asynq.NewClient(AsynqRedisOpt(&a.cfg.Redis))
		a.logger.Info("new post notifications go to the task queue",
			slog.String("queue", a.cfg.Notify.Queue),
		)
		return notify.NewAsynqDispatcher(a.tasks, a.cfg.Notify.Queue)
	}

	handler := notify.NewHandler(a.logger.Logger, config.DurationOr(a.cfg.Notify.Delay, defaultNotifyDelay))
	a.inline = notify.NewInlineDispatcher(handler)
	return a.inline
}

func redisOptions(cfg *config.RedisConfig) cache.RedisOptions {
	return cache.RedisOptions{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: config.DurationOr(cfg.DialTimeout, 0),
	}
}

// AsynqRedisOpt returns the task queue connection for cfg. The API server
// and the worker must use the same one.
func AsynqRedisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: config.DurationOr(cfg.DialTimeout, 0),
	}
}

func resolveCORSConfig(mode string, cfg *config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	switch {
	case len(cfg.AllowOrigins) > 0:
		corsConfig.AllowOrigins = cfg.AllowOrigins
	case mode == gin.ReleaseMode:
		// no allowlist in release mode: deny cross-origin requests
		corsConfig.AllowOrigins = []string{}
	}
	if len(cfg.AllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowHeaders
	}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	if maxAge := config.DurationOr(cfg.MaxAge, 0); maxAge > 0 {
		corsConfig.MaxAge = strconv.Itoa(int(maxAge.Seconds()))
	}
	return corsConfig
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts the server down gracefully, waits for in-process notifications and
// then releases every resource New acquired.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, config.DurationOr(a.cfg.Server.Timeout, defaultServerTimeout))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown error", slog.Any("error", err))
		}
	}

	a.close()
	return runErr
}

// Close releases the App's resources without serving. It is for callers
// that only use Handler.
func (a *App) Close() {
	if a != nil {
		a.close()
	}
}

func (a *App) close() {
	a.closeOnce.Do(a.release)
}

func (a *App) release() {
	if a.inline != nil {
		a.inline.Wait()
	}
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.tasks != nil {
		if err := a.tasks.Close(); err != nil {
			a.logger.Error("task client close error", slog.Any("error", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.Any("error", err))
		}
	}
	if a.db != nil {
		if err := config.CloseDatabase(a.db); err != nil {
			a.logger.Error("database close error", slog.Any("error", err))
		} else {
			a.logger.Info("database connection closed")
		}
	}

	a.logger.Info("server stopped")
	if err := a.logger.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
}
