package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/reservation_series/internal/config"
	"github.com/Freeeeeet/reservation_series/internal/repository"
	"github.com/Freeeeeet/reservation_series/internal/service"
	"github.com/Freeeeeet/reservation_series/internal/session"
	"github.com/Freeeeeet/reservation_series/internal/submission"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App собирает зависимости приложения
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool

	Units        *repository.ReservationUnitRepository
	Reservations *repository.ReservationRepository
	Series       *repository.RecurringSeriesRepository

	Drafts    *session.Manager
	Recurring *service.RecurringReservationService
}

// New подключается к базе и создаёт сервисы
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Connected to database")

	units := repository.NewReservationUnitRepository(pool)
	reservations := repository.NewReservationRepository(pool, logger)
	series := repository.NewRecurringSeriesRepository(pool, logger)

	client := service.NewMutationClient(series, reservations, service.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Timeout:          cfg.BreakerTimeout,
	}, logger)

	orchestrator := submission.NewOrchestrator(client, logger, submission.Config{
		FirstPassSize: cfg.FirstPassSize,
		RetryDelay:    cfg.RetryDelay,
	})

	drafts := session.NewManager(cfg.DraftTTL)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		Units:        units,
		Reservations: reservations,
		Series:       series,
		Drafts:       drafts,
		Recurring:    service.NewRecurringReservationService(units, reservations, orchestrator, drafts, cfg.Location(), logger),
	}, nil
}

// Migrator создаёт мигратор поверх пула приложения
func (a *App) Migrator() (*Migrator, error) {
	return NewMigrator(a.Pool, a.Config.MigrationsPath, a.Logger)
}

// Close закрывает пул соединений
func (a *App) Close() {
	a.Pool.Close()
}
