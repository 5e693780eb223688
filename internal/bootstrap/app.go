package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mochi-server/internal/ai"
	appsvc "mochi-server/internal/app"
	"mochi-server/internal/cache"
	"mochi-server/internal/catalog"
	"mochi-server/internal/config"
	"mochi-server/internal/pkg/jwtutil"
	mysqlClient "mochi-server/internal/platform/mysql"
	rabbitmqClient "mochi-server/internal/platform/rabbitmq"
	redisClient "mochi-server/internal/platform/redis"
	"mochi-server/internal/repository"
	"mochi-server/internal/worker"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	MoodWorker *worker.MoodLogPersistWorker

	Verifier *jwtutil.Verifier
	Auth     *appsvc.AuthService
	Personas *appsvc.PersonaService
	Chat     *appsvc.ChatService
	Moods    *appsvc.MoodService

	StartedAt time.Time
}

// Infra holds the connections services are built on. Redis and MQConn may be
// nil.
type Infra struct {
	MySQL    *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Streamer ai.Streamer
}

// New connects every configured dependency, migrates the schema and starts the
// mood log worker.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := repository.AutoMigrate(mysqlDB); err != nil {
		_ = mysqlClient.Close(mysqlDB)
		return nil, err
	}
	infra := Infra{MySQL: mysqlDB}

	a := &App{Config: cfg, Logger: logger, MySQL: mysqlDB}
	fail := func(err error) (*App, error) {
		_ = a.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		infra.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return fail(err)
		}
		a.Redis = infra.Redis
	} else {
		logger.Info("redis disabled, history cache off")
	}

	if cfg.RabbitMQ.URL != "" {
		infra.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return fail(err)
		}
		a.MQConn = infra.MQConn
	} else {
		logger.Info("rabbitmq disabled, mood logs are written synchronously")
	}

	infra.Streamer, err = ai.NewStreamer(ctx, cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("build model provider failed: %w", err))
	}

	a = Wire(cfg, logger, infra)
	if a.MQConn != nil {
		a.MoodWorker = worker.NewMoodLogPersistWorker(
			a.MQConn,
			repository.NewMoodLogRepository(a.MySQL),
			cfg.RabbitMQ.MoodLogPersistQueue,
			logger,
		)
		if err := a.MoodWorker.Start(ctx); err != nil {
			return fail(fmt.Errorf("start mood log worker failed: %w", err))
		}
	}

	logger.Info("app initialized",
		zap.String("env", cfg.App.Env),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("history_cache", a.Redis != nil),
		zap.Bool("mood_queue", a.MQConn != nil),
	)
	return a, nil
}

// Wire builds the services on top of already open connections.
func Wire(cfg *config.Config, logger *zap.Logger, infra Infra) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(infra.MySQL)
	personaRepo := repository.NewPersonaRepository(infra.MySQL)
	sessionRepo := repository.NewSessionRepository(infra.MySQL)
	messageRepo := repository.NewMessageRepository(infra.MySQL)
	moodRepo := repository.NewMoodLogRepository(infra.MySQL)

	var historyCache appsvc.HistoryCache
	if infra.Redis != nil {
		historyCache = cache.NewHistoryCache(
			infra.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	var moodPublisher appsvc.MoodLogPublisher
	if infra.MQConn != nil {
		moodPublisher = rabbitmqClient.NewMoodLogPublisher(infra.MQConn, cfg.RabbitMQ.MoodLogPersistQueue)
	}

	personas := appsvc.NewPersonaService(catalog.Default(), personaRepo)
	store := appsvc.NewDBSessionStore(sessionRepo, messageRepo, historyCache, logger)

	return &App{
		Config: cfg,
		Logger: logger,
		MySQL:  infra.MySQL,
		Redis:  infra.Redis,
		MQConn: infra.MQConn,

		Verifier: jwtutil.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Auth: appsvc.NewAuthService(
			userRepo,
			cfg.Auth.JWTSecret,
			cfg.Auth.JWTIssuer,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Personas: personas,
		Chat:     appsvc.NewChatService(store, personas, infra.Streamer, cfg.Chat, logger.Named("chat")),
		Moods:    appsvc.NewMoodService(moodRepo, moodPublisher),

		StartedAt: time.Now(),
	}
}

func (a *App) Close() error {
	var errs []error
	if a.MoodWorker != nil {
		a.MoodWorker.Close()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		errs = append(errs, a.MQConn.Close())
	}
	if a.MySQL != nil {
		errs = append(errs, mysqlClient.Close(a.MySQL))
	}
	return errors.Join(errs...)
}
