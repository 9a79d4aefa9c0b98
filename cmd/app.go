package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/config"
	"github.com/example/campsite/internal/db"
	"github.com/example/campsite/internal/logging"
	"github.com/example/campsite/internal/migrate"
	"github.com/example/campsite/internal/store/memory"
	"github.com/example/campsite/internal/store/postgres"
	"github.com/example/campsite/internal/tracing"
)

// app is everything a command needs to talk to the calendar.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	conn      db.Conn // nil for the memory store
	engine    *booking.Engine
	projector *booking.Projector

	shutdownTracing func(context.Context) error
}

func (a *app) Close() {
	if a.conn != nil {
		a.conn.Close()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) ping(ctx context.Context) error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Ping(ctx)
}

func openApp(ctx context.Context, migrateUp bool) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	opts := []booking.Option{
		booking.WithLocation(cfg.Location),
		booking.WithLogger(logger.Named("booking")),
		booking.WithTxTimeout(cfg.TxTimeout),
	}
	if cfg.Tracing == config.TracingLog {
		tp := tracing.NewProvider(logger.Named("trace"), Version)
		a.shutdownTracing = tracing.Install(tp)
		opts = append(opts, booking.WithTracerProvider(tp))
	}

	var store booking.Store
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store; reservations are lost on exit")
		store = memory.New()
	} else {
		conn, err := db.Connect(ctx, cfg.StoreDriver, cfg.DatabaseURL, cfg.MaxConns)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.conn = conn

		if err := conn.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if migrateUp {
			if err := migrate.Up(ctx, conn, logger); err != nil {
				a.Close()
				return nil, err
			}
		}
		store = postgres.New(conn, postgres.WithLogger(logger.Named("store")))
	}

	if a.engine, err = booking.NewEngine(store, opts...); err != nil {
		a.Close()
		return nil, err
	}
	if a.projector, err = booking.NewProjector(store, opts...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
