package dbkeeper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drstein77/productpruner/internal/models"
	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

var (
	ErrEmptyDSN           = errors.New("database dsn is empty")
	ErrMigrationsNotFound = errors.New("migrations directory not found")
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// DBKeeper keeps the journal of delete attempts in Postgres.
type DBKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

func NewDBKeeper(ctx context.Context, dsn func() string, log Log) (*DBKeeper, error) {
	addr := dsn()
	if addr == "" {
		return nil, ErrEmptyDSN
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN", zap.Error(err))
		return nil, fmt.Errorf("unable to parse database dsn: %w", err)
	}

	if err := migrateUp(config.ConnConfig); err != nil {
		log.Error("Error while performing migration", zap.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database", zap.Error(err))
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	log.Info("Connected to deletion journal")

	return &DBKeeper{
		pool: pool,
		log:  log,
	}, nil
}

func migrateUp(connConfig *pgx.ConnConfig) error {
	path, err := findMigrations()
	if err != nil {
		return err
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("error getting migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error while performing migration: %w", err)
	}
	return nil
}

// findMigrations looks for the migrations directory in the working
// directory and then in each parent, so tests and binaries both find it.
func findMigrations() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("error getting current directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, migrationsDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.ToSlash(candidate), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrMigrationsNotFound
		}
		dir = parent
	}
}

// RecordDeletion stores one delete attempt.
func (kp *DBKeeper) RecordDeletion(ctx context.Context, d models.Deletion) error {
	if kp == nil || kp.pool == nil {
		return fmt.Errorf("database connection pool is nil")
	}

	if d.DeletedAt.IsZero() {
		d.DeletedAt = time.Now().UTC()
	}

	_, err := kp.pool.Exec(ctx, `
		INSERT INTO deletions (product_id, product_name, success, status_code, reason, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ProductID.String(), d.ProductName, d.Success, d.StatusCode, d.Reason, d.DeletedAt)
	if err != nil {
		kp.log.Error("Failed to record deletion", zap.Error(err))
		return fmt.Errorf("failed to record deletion: %w", err)
	}
	return nil
}

// Deletions returns journal entries for productID, newest first.
func (kp *DBKeeper) Deletions(ctx context.Context, productID models.ProductID) ([]models.Deletion, error) {
	if kp == nil || kp.pool == nil {
		return nil, fmt.Errorf("database connection pool is nil")
	}

	rows, err := kp.pool.Query(ctx, `
		SELECT product_id, product_name, success, status_code, reason, deleted_at
		FROM deletions
		WHERE product_id = $1
		ORDER BY deleted_at DESC, id DESC
	`, productID.String())
	if err != nil {
		kp.log.Error("Failed to execute query", zap.Error(err))
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var deletions []models.Deletion
	for rows.Next() {
		var (
			d  models.Deletion
			id string
		)
		if err := rows.Scan(&id, &d.ProductName, &d.Success, &d.StatusCode, &d.Reason, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		d.ProductID = models.ProductID(id)
		deletions = append(deletions, d)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", rows.Err())
	}
	return deletions, nil
}

func (kp *DBKeeper) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}

	return true
}

func (kp *DBKeeper) Close() bool {
	if kp != nil && kp.pool != nil {
		kp.pool.Close()
		kp.log.Info("Database connection pool closed")
		return true
	}
	return false
}
