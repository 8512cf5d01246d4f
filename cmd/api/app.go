package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/staffing-api/internal/config"
	"github.com/staffing-api/internal/database"
	"github.com/staffing-api/internal/domain"
	"github.com/staffing-api/internal/events"
	"github.com/staffing-api/internal/logger"
	"github.com/staffing-api/internal/repository"
	"github.com/staffing-api/internal/scheduler"
	"github.com/staffing-api/internal/service"
)

// app - собранные зависимости процесса
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *gorm.DB
	repos     *repository.Repositories
	clock     domain.Clock
	publisher events.Publisher
	rdb       *redis.Client
	closers   []func() error
}

func bootstrap(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		repos:     repository.New(db),
		clock:     domain.Clock{Location: loc},
		publisher: events.NopPublisher{},
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	return a, nil
}

// withMessaging подключает RabbitMQ и Redis, если они настроены
func (a *app) withMessaging(ctx context.Context) error {
	if a.cfg.RabbitMQ.URL != "" {
		pub, err := events.NewAMQPPublisher(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
		a.log.Info("event publishing enabled", zap.String("exchange", a.cfg.RabbitMQ.Exchange))
	}

	if a.cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return errors.Wrap(err, "connect to redis")
		}
		a.rdb = rdb
		a.closers = append(a.closers, rdb.Close)
	}
	return nil
}

func (a *app) serviceDeps() service.Deps {
	return service.Deps{Repos: a.repos, Clock: a.clock, Events: a.publisher, Log: a.log}
}

func (a *app) passes() []scheduler.Pass {
	return scheduler.DefaultPasses(scheduler.Deps{
		Repos:  a.repos,
		Clock:  a.clock,
		Events: a.publisher,
		Log:    a.log.Named("scheduler"),
	})
}

func (a *app) locker() scheduler.Locker {
	if a.rdb != nil {
		return scheduler.NewRedisLocker(a.rdb)
	}
	return scheduler.NewMemoryLocker()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
