package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hand_hockey/internal/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Connect открывает пул соединений и ждет, пока база ответит на ping.
// База в docker-compose поднимается дольше приложения, поэтому несколько попыток с паузой.
func Connect(ctx context.Context, url string, minConns, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	log := logger.With("component", "db")
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Info("database connected", "max_conns", cfg.MaxConns, "attempt", attempt)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		log.Warn("database not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("connect to database after %d attempts: %w", connectAttempts, lastErr)
}
