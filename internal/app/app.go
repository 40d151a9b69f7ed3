package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/linernotes/linernotes/internal/auth"
	"github.com/linernotes/linernotes/internal/config"
	"github.com/linernotes/linernotes/internal/cron"
	"github.com/linernotes/linernotes/internal/event"
	handler "github.com/linernotes/linernotes/internal/handler/http"
	"github.com/linernotes/linernotes/internal/identity"
	"github.com/linernotes/linernotes/internal/repository/postgres"
	redisrepo "github.com/linernotes/linernotes/internal/repository/redis"
	"github.com/linernotes/linernotes/internal/service"
	"github.com/linernotes/linernotes/migrations"
	"github.com/linernotes/linernotes/pkg/database"
	"github.com/linernotes/linernotes/pkg/health"
	pkgkafka "github.com/linernotes/linernotes/pkg/kafka"
	"github.com/linernotes/linernotes/pkg/middleware"
	"github.com/linernotes/linernotes/pkg/tracing"
)

const (
	// processedEventTTL bounds how long reconcile event ids are remembered.
	processedEventTTL = 24 * time.Hour
	// sessionTokenExpiry only matters for locally issued tokens.
	sessionTokenExpiry = 15 * time.Minute
)

// App wires together all dependencies and runs the linernotes server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	reconcile      *pkgkafka.Consumer
	cron           *cron.Manager
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Setup(ctx, cfg.Tracing(handler.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, handler.ServiceName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	// Initialize Redis for the profile cache and event deduplication.
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Identity directory behind the Redis profile cache.
	directory, directoryCheck := newDirectory(cfg, pool, logger)
	cachedDirectory := identity.NewCachedDirectory(
		directory,
		redisrepo.NewProfileCache(rdb, cfg.ProfileCacheTTL),
		logger,
	)
	resolver := identity.NewResolver(cachedDirectory, logger)

	// Event sink: Kafka when enabled, otherwise events are dropped.
	var (
		producer *pkgkafka.Producer
		sink     event.Sink = event.DiscardSink{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		sink = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, domain events will be dropped")
	}
	eventProducer := event.NewProducer(sink, logger)

	// Build the dependency graph.
	reviewRepo := postgres.NewReviewRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	likeRepo := postgres.NewLikeRepository(pool)
	followRepo := postgres.NewFollowRepository(pool)
	counterRepo := postgres.NewCounterRepository(pool)
	libraryRepo := postgres.NewLibraryRepository(pool)

	reactionService := service.NewReactionService(likeRepo, reviewRepo, commentRepo, counterRepo, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, resolver, reactionService, eventProducer, logger)
	commentService := service.NewCommentService(commentRepo, reviewRepo, counterRepo, resolver, reactionService, eventProducer, logger)
	followService := service.NewFollowService(followRepo, resolver, eventProducer, logger)
	feedService := service.NewFeedService(followService, reviewService, resolver, reactionService, cfg.FeedMaxPageSize, logger)
	profileService := service.NewProfileService(resolver, followRepo, reviewRepo, logger)
	libraryService := service.NewLibraryService(libraryRepo, eventProducer, logger)
	reconcileService := service.NewReconcileService(counterRepo, logger)

	// Counter reconciliation: on demand from Kafka, periodically from cron.
	var (
		dlq       *pkgkafka.DLQProducer
		reconcile *pkgkafka.Consumer
	)
	if cfg.KafkaEnabled {
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		store := pkgkafka.NewRedisIdempotencyStore(rdb, "linernotes:processed:", processedEventTTL)
		reconcile = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   event.TopicCounterReconcileRequest,
		}, pkgkafka.IdempotentHandler(store, event.NewReconcileHandler(reconcileService, logger), logger), logger).
			WithDLQ(dlq)
	}
	cronManager := cron.NewManager(reconcileService, cfg.ReconcileSchedule, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if directoryCheck != nil {
		healthHandler.RegisterNonCritical("identity_directory", directoryCheck)
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// Session tokens are issued by the auth subsystem; this service only validates them.
	sessions := auth.NewSessionTokens(cfg.JWTSecret, sessionTokenExpiry)

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment
	rateCfg := middleware.DefaultRateLimitConfig()
	rateCfg.PerSecond = cfg.WriteRateLimit
	rateCfg.Burst = cfg.WriteRateBurst

	router := handler.NewRouter(handler.Services{
		Feed:      feedService,
		Reviews:   reviewService,
		Comments:  commentService,
		Reactions: reactionService,
		Follows:   followService,
		Profiles:  profileService,
		Library:   libraryService,
		Counters:  cronManager,
	}, sessions.Validate, healthHandler, logger, handler.RouterConfig{
		CORS:              corsCfg,
		RateLimit:         rateCfg,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		FeedMaxPageSize:   cfg.FeedMaxPageSize,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		dlq:            dlq,
		reconcile:      reconcile,
		cron:           cronManager,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newDirectory selects the identity directory backend. The returned checker
// is nil when the backend shares the database pool.
func newDirectory(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (identity.Directory, health.Checker) {
	if cfg.IdentityDirectory == config.DirectoryHTTP {
		logger.Info("using remote identity directory", slog.String("url", cfg.IdentityDirectoryURL))
		dir := identity.NewHTTPDirectory(cfg.IdentityDirectoryURL, cfg.IdentityTimeout, logger)
		return dir, dir.Healthy
	}
	return postgres.NewProfileRepository(pool), nil
}
