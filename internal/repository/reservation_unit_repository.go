package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationUnitRepository struct {
	*base.Repository
}

func NewReservationUnitRepository(pool *pgxpool.Pool) *ReservationUnitRepository {
	return &ReservationUnitRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает описание объекта по ID, nil если не найден
func (r *ReservationUnitRepository) GetByID(ctx context.Context, id int64) (*model.ReservationUnit, error) {
	query := `
		SELECT id, name, min_reservation_interval_seconds, buffer_before_seconds, buffer_after_seconds, metadata_fields, is_active
		FROM reservation_units
		WHERE id = $1
	`

	var unit model.ReservationUnit
	var interval, before, after int64
	err := r.QueryRow(ctx, query, id).Scan(
		&unit.ID,
		&unit.Name,
		&interval,
		&before,
		&after,
		&unit.MetadataFields,
		&unit.IsActive,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation unit by id: %w", err)
	}

	unit.MinReservationInterval = base.FromSeconds(interval)
	unit.BufferBefore = base.FromSeconds(before)
	unit.BufferAfter = base.FromSeconds(after)

	return &unit, nil
}
