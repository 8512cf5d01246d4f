package database

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"time"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/staffing-api/internal/config"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Connect открывает пул соединений с PostgreSQL, повторяя попытки,
// пока база не станет доступной
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	tries := cfg.ConnectTries
	if tries <= 0 {
		tries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
			TranslateError: true,
			NowFunc:        func() time.Time { return time.Now().UTC() },
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.PingContext(ctx); err == nil {
					sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
					sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
					sqlDB.SetConnMaxLifetime(time.Hour)
					return db, nil
				}
			} else {
				err = dbErr
			}
		}
		lastErr = err
		log.Warn("database is not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", tries),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return nil, errors.Wrapf(lastErr, "connect to database after %d attempts", tries)
}

func provider(db *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded migrations")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, errors.Wrap(err, "create migration provider")
	}
	return p, nil
}

// Migrate применяет все новые миграции
func Migrate(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	p, err := provider(db)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "run migrations")
	}
	for _, r := range results {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Rollback откатывает последнюю применённую миграцию
func Rollback(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	p, err := provider(db)
	if err != nil {
		return err
	}
	r, err := p.Down(ctx)
	if err != nil {
		return errors.Wrap(err, "rollback migration")
	}
	log.Info("migration rolled back", zap.Int64("version", r.Source.Version))
	return nil
}

// MigrationStatus описывает состояние одной миграции
type MigrationStatus struct {
	Version   int64
	Applied   bool
	AppliedAt time.Time
}

// Status возвращает состояние всех известных миграций
func Status(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	p, err := provider(db)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "migration status")
	}
	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version:   s.Source.Version,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}
