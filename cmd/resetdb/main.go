// Command resetdb drops the whole catalog database. There is no prompt.
package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"culturalevents/config"
	"culturalevents/db"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Database(cfg.MongoDB).Drop(ctx); err != nil {
		logger.Fatal("Failed to drop database", zap.String("database", cfg.MongoDB), zap.Error(err))
	}
	logger.Info("Database dropped", zap.String("database", cfg.MongoDB))
}
