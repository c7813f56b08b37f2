package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"liquorstock/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service wraps the shared connection pool.
type Service struct {
	db *sql.DB
}

// New opens a pgx-backed connection pool for the configured database.
func New(cfg config.DatabaseConfig) (*Service, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.Schema,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Service{db: db}, nil
}

// DB exposes the underlying pool.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Health reports basic pool statistics for the health endpoint and startup log.
func (s *Service) Health() map[string]string {
	stats := s.db.Stats()
	return map[string]string{
		"status":           "up",
		"open_connections": fmt.Sprintf("%d", stats.OpenConnections),
		"in_use":           fmt.Sprintf("%d", stats.InUse),
		"idle":             fmt.Sprintf("%d", stats.Idle),
	}
}

// Close releases the connection pool.
func (s *Service) Close() error {
	return s.db.Close()
}
