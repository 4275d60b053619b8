package app

import (
	"context"
	"time"

	"neighborly/config"
	"neighborly/db"
	"neighborly/events"
	"neighborly/logger"
	"neighborly/notify"
	"neighborly/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Ctx = gin.Context
type H = gin.H

const NotifyChannel = "nb:notify"

// App holds the process-wide dependencies.
type App struct {
	Router    *gin.Engine
	DB        *gorm.DB
	RDB       *redis.Client
	Repo      *db.Repo
	Log       *zap.Logger
	Config    config.Config
	Publisher events.Publisher
	Relay     *events.Relay
	Hub       *notify.Hub

	appSess *session.AppSessionStore
	tokens  *session.Tokens
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }
func (a *App) Tokens() *session.Tokens               { return a.tokens }

func MustNew(cfg config.Config, log *zap.Logger) *App {
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	dbConn, err := db.ConnectDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	var pub events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:     cfg.KafkaBrokers,
			TopicPrefix: cfg.KafkaTopicPrefix,
			ClientID:    cfg.KafkaClientID,
		}, log)
		if err != nil {
			log.Fatal("kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.Error(err))
		}
		pub = kp
	} else {
		log.Info("KAFKA_BROKERS not set, outbox events go to the log")
		pub = events.NewLogPublisher(log)
	}

	repo := db.NewRepo(dbConn)
	SyncAdmins(ctx, cfg, repo, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(RequestID(), logger.GinMiddleware(log), Recovery(log), ErrorHandler(log))
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:    r,
		DB:        dbConn,
		RDB:       rdb,
		Repo:      repo,
		Log:       log,
		Config:    cfg,
		Publisher: pub,
		Relay:     events.NewRelay(repo, pub, log, cfg.OutboxInterval, cfg.OutboxBatch),
		Hub:       notify.NewHub(rdb, NotifyChannel, cfg.WebOrigin, log),
		appSess:   session.NewAppSessionStore(rdb, cfg.SessionTTL),
		tokens:    session.NewTokens(cfg.SessionSecret, cfg.SessionTTL),
	}
}

func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.Log.Warn("close publisher", zap.Error(err))
	}
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
