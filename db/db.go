package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Collection names.
const (
	UsersCollection    = "users"
	VenuesCollection   = "venues"
	EventsCollection   = "events"
	CommentsCollection = "comments"
)

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique keys the repositories rely on for upserts
// and the lookup index for venue comments.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	indexes := map[string][]mongo.IndexModel{
		UsersCollection:  {unique("username")},
		VenuesCollection: {unique("venueId")},
		EventsCollection: {unique("eventId")},
		CommentsCollection: {
			{Keys: bson.D{{Key: "venue", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := database.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// OpenPostgres connects to the import run ledger and creates its table.
func OpenPostgres(dsn string) (*sql.DB, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	sqldb.SetMaxOpenConns(10)
	sqldb.SetMaxIdleConns(5)

	if err := createTables(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

func createTables(sqldb *sql.DB) error {
	createImportRunsTable := `
	CREATE TABLE IF NOT EXISTS import_runs (
		id BIGSERIAL PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		venues_upserted INT NOT NULL DEFAULT 0,
		venues_skipped INT NOT NULL DEFAULT 0,
		events_upserted INT NOT NULL DEFAULT 0,
		events_skipped INT NOT NULL DEFAULT 0,
		error TEXT NULL
	);`
	if _, err := sqldb.Exec(createImportRunsTable); err != nil {
		return fmt.Errorf("create import_runs table: %w", err)
	}
	return nil
}
