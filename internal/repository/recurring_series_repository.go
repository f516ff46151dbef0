package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RecurringSeriesRepository управляет сериями повторяющихся броней в базе данных
type RecurringSeriesRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewRecurringSeriesRepository создаёт новый репозиторий
func NewRecurringSeriesRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecurringSeriesRepository {
	return &RecurringSeriesRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Create создаёт новую серию
func (r *RecurringSeriesRepository) Create(ctx context.Context, series *model.RecurringSeries) error {
	query := `
		INSERT INTO recurring_series (
			ext_uuid, name, description, reservation_unit_id, weekdays, begin_date, end_date,
			begin_time, end_time, recurrence_in_days, buffer_before_seconds, buffer_after_seconds, type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx,
		query,
		series.ExtUUID,
		series.Name,
		series.Description,
		series.ReservationUnitID,
		series.Weekdays,
		series.BeginDate,
		series.EndDate,
		series.BeginTime,
		series.EndTime,
		series.RecurrenceInDays,
		base.Seconds(series.Buffers.Before),
		base.Seconds(series.Buffers.After),
		series.Type,
	).Scan(&series.ID, &series.CreatedAt)

	if err != nil {
		return fmt.Errorf("create recurring series: %w", err)
	}

	r.logger.Debug("Recurring series row inserted",
		zap.Int64("recurring_series_id", series.ID),
		zap.String("ext_uuid", series.ExtUUID.String()))

	return nil
}

// GetByID получает серию по ID
func (r *RecurringSeriesRepository) GetByID(ctx context.Context, id int64) (*model.RecurringSeries, error) {
	query := `
		SELECT id, ext_uuid, name, description, reservation_unit_id, weekdays, begin_date, end_date,
		       begin_time, end_time, recurrence_in_days, buffer_before_seconds, buffer_after_seconds, type, created_at
		FROM recurring_series
		WHERE id = $1
	`

	series := &model.RecurringSeries{}
	var before, after int64
	err := r.QueryRow(ctx, query, id).Scan(
		&series.ID,
		&series.ExtUUID,
		&series.Name,
		&series.Description,
		&series.ReservationUnitID,
		&series.Weekdays,
		&series.BeginDate,
		&series.EndDate,
		&series.BeginTime,
		&series.EndTime,
		&series.RecurrenceInDays,
		&before,
		&after,
		&series.Type,
		&series.CreatedAt,
	)

	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring series by id: %w", err)
	}

	series.Buffers = model.Buffers{Before: base.FromSeconds(before), After: base.FromSeconds(after)}

	return series, nil
}
