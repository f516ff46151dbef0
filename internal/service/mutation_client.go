package service

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/submission"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/mo"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type seriesCreator interface {
	Create(ctx context.Context, series *model.RecurringSeries) error
}

type staffReservationCreator interface {
	CreateStaff(ctx context.Context, input model.StaffReservationInput) (int64, error)
}

// BreakerConfig настройки circuit breaker для записи в хранилище
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// MutationClient реализует submission.MutationClient поверх репозиториев.
// Ошибки хранилища переводятся в сетевые (можно повторить) и ошибки данных.
type MutationClient struct {
	series       seriesCreator
	reservations staffReservationCreator
	breaker      *gobreaker.CircuitBreaker[int64]
	logger       *zap.Logger
}

func NewMutationClient(series seriesCreator, reservations staffReservationCreator, cfg BreakerConfig, logger *zap.Logger) *MutationClient {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "reservation-store",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Ошибки данных не говорят о недоступности хранилища
		IsSuccessful: func(err error) bool {
			return err == nil || submission.KindOf(err) != submission.FailureNetwork
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &MutationClient{
		series:       series,
		reservations: reservations,
		breaker:      gobreaker.NewCircuitBreaker[int64](settings),
		logger:       logger,
	}
}

// CreateRecurringSeries создаёт родительскую запись серии
func (c *MutationClient) CreateRecurringSeries(ctx context.Context, meta model.SeriesMetadata) mo.Result[int64] {
	if strings.TrimSpace(meta.Name) == "" {
		return mo.Err[int64](submission.ValidationError("name", "series name is required"))
	}
	if meta.ReservationUnitID <= 0 {
		return mo.Err[int64](submission.ValidationError("reservationUnit", "reservation unit is required"))
	}

	series := &model.RecurringSeries{
		ExtUUID:        uuid.New(),
		SeriesMetadata: meta,
	}

	id, err := c.breaker.Execute(func() (int64, error) {
		if err := c.series.Create(ctx, series); err != nil {
			return 0, classify(err)
		}
		return series.ID, nil
	})

	return c.result(id, err)
}

// CreateStaffReservation создаёт одну бронь серии
func (c *MutationClient) CreateStaffReservation(ctx context.Context, input model.StaffReservationInput) mo.Result[int64] {
	id, err := c.breaker.Execute(func() (int64, error) {
		id, err := c.reservations.CreateStaff(ctx, input)
		if err != nil {
			return 0, classify(err)
		}
		return id, nil
	})

	return c.result(id, err)
}

func (c *MutationClient) result(id int64, err error) mo.Result[int64] {
	if err == nil {
		return mo.Ok(id)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Reservation store call rejected by circuit breaker",
			zap.String("state", c.breaker.State().String()))
	}
	return mo.Err[int64](classify(err))
}

// classify переводит ошибку хранилища в submission.MutationError
func classify(err error) error {
	if err == nil {
		return nil
	}

	var merr *submission.MutationError
	if errors.As(err, &merr) {
		return err
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return submission.NetworkError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if isTransientPgCode(pgErr.Code) {
			return submission.NetworkError(err)
		}
		field := pgErr.ColumnName
		if field == "" {
			field = pgErr.ConstraintName
		}
		return &submission.MutationError{
			Kind:    submission.FailureValidation,
			Field:   field,
			Message: pgErr.Message,
			Err:     err,
		}
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return submission.NetworkError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return submission.NetworkError(err)
	}

	return &submission.MutationError{Kind: submission.FailureValidation, Err: err}
}

// isTransientPgCode коды SQLSTATE, после которых запрос имеет смысл повторить
func isTransientPgCode(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"): // connection exception
		return true
	case strings.HasPrefix(code, "53"): // insufficient resources
		return true
	case strings.HasPrefix(code, "57P"): // admin shutdown, crash shutdown
		return true
	case code == "40001", code == "40P01": // serialization failure, deadlock
		return true
	default:
		return false
	}
}
