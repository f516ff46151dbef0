package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/collision"
	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/recurrence"
	"github.com/Freeeeeet/reservation_series/internal/session"
	"github.com/Freeeeeet/reservation_series/internal/submission"
	"go.uber.org/zap"
)

var (
	ErrUnitNotFound    = errors.New("reservation unit not found")
	ErrUnitInactive    = errors.New("reservation unit is not active")
	ErrDraftNotFound   = errors.New("no draft series for staff user")
	ErrNothingToSubmit = errors.New("draft has no reservations to submit")
	ErrUnknownType     = errors.New("unknown reservation type")
)

type ReservationUnitReader interface {
	GetByID(ctx context.Context, id int64) (*model.ReservationUnit, error)
}

type ExistingReservationsReader interface {
	ListInRange(ctx context.Context, unitID int64, from, to time.Time) ([]model.ExistingBookedInterval, error)
}

type Submitter interface {
	Submit(ctx context.Context, req submission.Request) (int64, []model.ReservationInstance, error)
}

// PlanRequest параметры новой серии
type PlanRequest struct {
	ReservationUnitID int64                 `json:"reservation_unit_id"`
	Input             recurrence.Input      `json:"input"`
	Type              model.ReservationType `json:"type,omitempty"`
}

// PlanResult вхождения серии с отметками пересечений
type PlanResult struct {
	Reservations []model.ReservationInstance `json:"reservations"`
	Validation   recurrence.Validation       `json:"validation"`
	Overlapping  int                         `json:"overlapping"`
}

// SeriesDetails данные, которые сотрудник вводит перед отправкой
type SeriesDetails struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SubmissionSummary итог отправки серии
type SubmissionSummary struct {
	SeriesID           int64                       `json:"series_id"`
	Succeeded          int                         `json:"succeeded"`
	Failed             int                         `json:"failed"`
	SkippedOverlapping int                         `json:"skipped_overlapping"`
	Results            []model.ReservationInstance `json:"results"`
}

type RecurringReservationService struct {
	units        ReservationUnitReader
	reservations ExistingReservationsReader
	submitter    Submitter
	drafts       *session.Manager
	location     *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

func NewRecurringReservationService(
	units ReservationUnitReader,
	reservations ExistingReservationsReader,
	submitter Submitter,
	drafts *session.Manager,
	location *time.Location,
	logger *zap.Logger,
) *RecurringReservationService {
	if location == nil {
		location = time.UTC
	}
	return &RecurringReservationService{
		units:        units,
		reservations: reservations,
		submitter:    submitter,
		drafts:       drafts,
		location:     location,
		now:          time.Now,
		logger:       logger,
	}
}

// Plan генерирует вхождения серии, отмечает пересечения с существующими бронями
// и сохраняет результат как черновик сотрудника. Предыдущий черновик удаляется сразу,
// даже если новый план не удался.
func (s *RecurringReservationService) Plan(ctx context.Context, staffID int64, req PlanRequest) (*PlanResult, error) {
	s.drafts.Clear(staffID)

	unit, err := s.units.GetByID(ctx, req.ReservationUnitID)
	if err != nil {
		return nil, fmt.Errorf("get reservation unit: %w", err)
	}
	if unit == nil {
		return nil, ErrUnitNotFound
	}
	if !unit.IsActive {
		return nil, ErrUnitInactive
	}

	in := req.Input
	if in.MinimumInterval == 0 {
		in.MinimumInterval = unit.MinReservationInterval
	}
	resType := req.Type
	if resType == "" {
		resType = model.ReservationTypeStaff
	}
	if !resType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, resType)
	}

	generated := recurrence.Generate(in, recurrence.WithClock(s.now))
	if !generated.Validation.Valid() {
		s.logger.Info("Series input rejected",
			zap.Int64("staff_id", staffID),
			zap.Int64("reservation_unit_id", unit.ID),
			zap.String("issues", generated.Validation.Error()))
		return &PlanResult{Reservations: generated.Reservations, Validation: generated.Validation}, nil
	}

	instances := generated.Reservations
	if len(instances) > 0 {
		from, to := s.span(instances)
		existing, err := s.reservations.ListInRange(ctx, unit.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("list existing reservations: %w", err)
		}

		instances = collision.Filter(instances, existing,
			collision.WithLocation(s.location),
			collision.WithBuffers(unit.Buffers()),
			collision.WithReservationType(resType))
	}

	s.drafts.Set(staffID, session.Draft{
		ReservationUnitID: unit.ID,
		Input:             in,
		Type:              resType,
		Buffers:           unit.Buffers(),
		MetadataFields:    unit.MetadataFields,
		Instances:         instances,
	})

	overlapping := collision.Overlapping(instances)

	s.logger.Info("Series planned",
		zap.Int64("staff_id", staffID),
		zap.Int64("reservation_unit_id", unit.ID),
		zap.Int("instances", len(instances)),
		zap.Int("overlapping", overlapping))

	return &PlanResult{
		Reservations: instances,
		Validation:   generated.Validation,
		Overlapping:  overlapping,
	}, nil
}

// span возвращает интервал [начало первого дня, конец последнего дня) в часовом поясе объекта
func (s *RecurringReservationService) span(instances []model.ReservationInstance) (time.Time, time.Time) {
	first := instances[0].Date
	last := instances[len(instances)-1].Date
	from := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.location)
	to := time.Date(last.Year(), last.Month(), last.Day()+1, 0, 0, 0, 0, s.location)
	return from, to
}

// RemoveInstances убирает из черновика вхождения на указанные даты.
// Возвращает количество удалённых вхождений.
func (s *RecurringReservationService) RemoveInstances(staffID int64, dates []time.Time) (int, error) {
	removed := 0
	ok := s.drafts.Update(staffID, func(d *session.Draft) {
		before := len(d.Instances)
		d.Instances = slices.DeleteFunc(d.Instances, func(r model.ReservationInstance) bool {
			return slices.ContainsFunc(dates, func(date time.Time) bool {
				return sameDay(r.Date, date)
			})
		})
		removed = before - len(d.Instances)
	})
	if !ok {
		return 0, ErrDraftNotFound
	}

	s.logger.Debug("Instances removed from draft",
		zap.Int64("staff_id", staffID),
		zap.Int("removed", removed))

	return removed, nil
}

// CurrentPlan возвращает текущий черновик сотрудника с числом оставшихся пересечений
func (s *RecurringReservationService) CurrentPlan(staffID int64) (*PlanResult, error) {
	draft, ok := s.drafts.Get(staffID)
	if !ok {
		return nil, ErrDraftNotFound
	}

	return &PlanResult{
		Reservations: draft.Instances,
		Overlapping:  collision.Overlapping(draft.Instances),
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SubmitDraft отправляет черновик сотрудника. Пересекающиеся вхождения не отправляются.
// Черновик удаляется только если серия была создана.
func (s *RecurringReservationService) SubmitDraft(ctx context.Context, staffID int64, details SeriesDetails) (*SubmissionSummary, error) {
	draft, ok := s.drafts.Get(staffID)
	if !ok {
		return nil, ErrDraftNotFound
	}

	pending := make([]model.ReservationInstance, 0, len(draft.Instances))
	for _, r := range draft.Instances {
		if !r.IsOverlapping {
			pending = append(pending, r)
		}
	}
	skipped := len(draft.Instances) - len(pending)
	if len(pending) == 0 {
		return nil, ErrNothingToSubmit
	}

	meta := recurrence.SeriesMetadata(draft.Input, draft.ReservationUnitID, details.Name, details.Description)
	meta.Type = draft.Type
	meta.Buffers = draft.Buffers.ForType(draft.Type)

	seriesID, results, err := s.submitter.Submit(ctx, submission.Request{
		Series:            meta,
		Instances:         pending,
		ReservationUnitID: draft.ReservationUnitID,
		MetadataFields:    draft.MetadataFields,
		Details:           details.Metadata,
		Buffers:           draft.Buffers,
		Location:          s.location,
	})
	if err != nil {
		return nil, fmt.Errorf("submit series: %w", err)
	}

	s.drafts.Clear(staffID)

	summary := &SubmissionSummary{
		SeriesID:           seriesID,
		SkippedOverlapping: skipped,
		Results:            results,
	}
	for _, r := range results {
		if r.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	s.logger.Info("Series submitted",
		zap.Int64("staff_id", staffID),
		zap.Int64("recurring_series_id", seriesID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped_overlapping", skipped))

	return summary, nil
}
