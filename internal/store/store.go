// Package store opens the book repository named by DB_DSN.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"bookexchange/internal/book"
	"bookexchange/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Open connects the book repository selected by the DSN scheme. The
// returned close func releases the underlying connection pool.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (book.Repository, func(), error) {
	u, err := url.Parse(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse DB_DSN: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		pool, err := openPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connection OK", "store", "postgres", "dsn", redactDSN(cfg.DSN))
		return book.NewPostgresRepo(pool, cfg.Timeout, logger), pool.Close, nil

	case "mongodb", "mongodb+srv":
		client, err := openMongo(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		repo := book.NewMongoRepo(client, cfg.Name, cfg.Timeout, logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		logger.Info("database connection OK", "store", "mongodb", "dsn", redactDSN(cfg.DSN), "database", cfg.Name)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warn("mongo disconnect failed", "error", err)
			}
		}
		return repo, closeFn, nil

	case "memory":
		logger.Warn("using in-memory book store; data is lost on restart")
		return book.NewMemoryRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DSN scheme %q", u.Scheme)
	}
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", redactDSN(dsn), err)
	}
	return pool, nil
}

func openMongo(ctx context.Context, dsn string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("cannot ping mongodb (%s): %w", redactDSN(dsn), err)
	}
	return client, nil
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
