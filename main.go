package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"culturalevents/config"
	"culturalevents/db"
	"culturalevents/importer"
	"culturalevents/middlewares"
	"culturalevents/models"
	"culturalevents/routes"
	"culturalevents/sessions"
	"culturalevents/utils"
)

func main() {
	cfg := config.Load()

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	// Mongo
	mg, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mg.Disconnect(context.Background()) }()
	database := mg.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB))

	users := models.NewMongoUserRepository(database.Collection(db.UsersCollection))
	venues := models.NewMongoVenueRepository(database.Collection(db.VenuesCollection))
	events := models.NewMongoEventRepository(database.Collection(db.EventsCollection))
	comments := models.NewMongoCommentRepository(database.Collection(db.CommentsCollection))

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	inv := utils.NewCacheInvalidator(rdb)

	// Postgres is optional and only keeps the import run ledger
	var runs models.ImportRunRepository
	if cfg.PostgresDSN != "" {
		var sqldb *sql.DB
		sqldb, err = db.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer sqldb.Close()
		runs = models.NewSQLImportRunRepository(sqldb)
		logger.Info("Import run ledger enabled")
	}

	if err := models.SeedDemoUsers(ctx, users, logger); err != nil {
		logger.Fatal("Failed to seed demo users", zap.Error(err))
	}

	opts := []importer.Option{importer.WithPurger(inv)}
	if runs != nil {
		opts = append(opts, importer.WithRunRepository(runs))
	}
	syncer := importer.New(venues, events,
		importer.FileSource{VenuesPath: cfg.VenuesXML, EventsPath: cfg.EventsXML},
		logger, opts...)

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := gin.New()
	server.Use(gin.Recovery())
	server.Use(middlewares.RequestLogger(logger))

	stopLimiters := routes.RegisterRoutes(server, routes.Deps{
		Users:    users,
		Venues:   venues,
		Events:   events,
		Comments: comments,
		Runs:     runs,
		Sessions: sessions.NewRedisStore(rdb, cfg.SessionTTL),
		Redis:    rdb,
		Sync:     syncer,
		Logger:   logger,
	}, routes.Options{
		SessionSecret: cfg.SessionSecret,
		CookieName:    "sid",
		CookieSecure:  cfg.CookieSecure,
		SessionTTL:    cfg.SessionTTL,
		CacheTTL:      cfg.CacheTTL,
		CommentQuota:  cfg.CommentQuota,
		LoginRPS:      cfg.LoginRPS,
		LoginBurst:    cfg.LoginBurst,
	})
	defer stopLimiters()
	routes.RegisterStatic(server, cfg.StaticDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors.AllowAll().Handler(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func initLogger(level string) *zap.Logger {
	var logLevel zapcore.Level
	switch level {
	case "debug":
		logLevel = zap.DebugLevel
	case "warn":
		logLevel = zap.WarnLevel
	case "error":
		logLevel = zap.ErrorLevel
	default:
		logLevel = zap.InfoLevel
	}

	zcfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(logLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("could not initialise logger: %v", err)
	}
	return logger
}
