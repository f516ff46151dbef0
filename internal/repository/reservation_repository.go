package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReservationRepository управляет бронями в базе данных
type ReservationRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewReservationRepository(pool *pgxpool.Pool, logger *zap.Logger) *ReservationRepository {
	return &ReservationRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// ListInRange возвращает активные брони объекта, пересекающие [from, to)
func (r *ReservationRepository) ListInRange(ctx context.Context, unitID int64, from, to time.Time) ([]model.ExistingBookedInterval, error) {
	query := `
		SELECT begin_at, end_at, buffer_before_seconds, buffer_after_seconds, type
		FROM reservations
		WHERE reservation_unit_id = $1
		  AND NOT (state = ANY($4))
		  AND begin_at < $3
		  AND end_at > $2
		ORDER BY begin_at
	`

	inactive := make([]string, 0, len(model.InactiveStates))
	for _, st := range model.InactiveStates {
		inactive = append(inactive, string(st))
	}

	rows, err := r.Query(ctx, query, unitID, from, to, inactive)
	if err != nil {
		return nil, fmt.Errorf("list reservations in range: %w", err)
	}
	defer rows.Close()

	var intervals []model.ExistingBookedInterval
	for rows.Next() {
		var interval model.ExistingBookedInterval
		var before, after int64
		err := rows.Scan(
			&interval.Begin,
			&interval.End,
			&before,
			&after,
			&interval.Type,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation interval: %w", err)
		}
		interval.BufferBefore = base.FromSeconds(before)
		interval.BufferAfter = base.FromSeconds(after)
		intervals = append(intervals, interval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations in range: %w", err)
	}

	r.logger.Debug("Loaded existing reservations",
		zap.Int64("reservation_unit_id", unitID),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("count", len(intervals)))

	return intervals, nil
}

// CreateStaff создаёт одну бронь серии и возвращает её ID
func (r *ReservationRepository) CreateStaff(ctx context.Context, input model.StaffReservationInput) (int64, error) {
	query := `
		INSERT INTO reservations (
			reservation_unit_id, recurring_series_id, begin_at, end_at, type, state,
			buffer_before_seconds, buffer_after_seconds, name, description, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	var id int64
	err := r.QueryRow(
		ctx,
		query,
		input.ReservationUnitID,
		input.RecurringSeriesID,
		input.Begin,
		input.End,
		input.Type,
		model.ReservationStateConfirmed,
		base.Seconds(input.BufferBefore),
		base.Seconds(input.BufferAfter),
		input.Name,
		input.Description,
		metadata,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("create staff reservation: %w", err)
	}

	return id, nil
}

// GetBySeriesID получает все брони серии
func (r *ReservationRepository) GetBySeriesID(ctx context.Context, seriesID int64) ([]*model.Reservation, error) {
	query := `
		SELECT id, reservation_unit_id, recurring_series_id, begin_at, end_at, type, state,
		       buffer_before_seconds, buffer_after_seconds, name, description, metadata, created_at
		FROM reservations
		WHERE recurring_series_id = $1
		ORDER BY begin_at
	`

	rows, err := r.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get reservations by series: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		res := &model.Reservation{}
		var before, after int64
		err := rows.Scan(
			&res.ID,
			&res.ReservationUnitID,
			&res.RecurringSeriesID,
			&res.Begin,
			&res.End,
			&res.Type,
			&res.State,
			&before,
			&after,
			&res.Name,
			&res.Description,
			&res.Metadata,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.BufferBefore = base.FromSeconds(before)
		res.BufferAfter = base.FromSeconds(after)
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations by series: %w", err)
	}

	return reservations, nil
}
