// Package submission создаёт серию повторяющихся броней на бэкенде.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/collision"
	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/samber/mo"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	DefaultFirstPassSize = 10
	DefaultRetryDelay    = 250 * time.Millisecond
)

// MutationClient удалённые операции создания серии и отдельных броней
type MutationClient interface {
	CreateRecurringSeries(ctx context.Context, series model.SeriesMetadata) mo.Result[int64]
	CreateStaffReservation(ctx context.Context, input model.StaffReservationInput) mo.Result[int64]
}

// ContinuePolicy решает по результатам первого прохода, запускать ли второй
type ContinuePolicy func(firstPass []model.ReservationInstance) bool

// AlwaysContinue всегда запускает второй проход
func AlwaysContinue([]model.ReservationInstance) bool {
	return true
}

// AbortOnTotalFailure останавливает отправку, если в первом проходе не создано ни одной брони
func AbortOnTotalFailure(firstPass []model.ReservationInstance) bool {
	for _, r := range firstPass {
		if r.Succeeded() {
			return true
		}
	}
	return len(firstPass) == 0
}

type Config struct {
	FirstPassSize int
	RetryDelay    time.Duration
	Continue      ContinuePolicy
}

// Request всё, что нужно для создания серии
type Request struct {
	Series            model.SeriesMetadata
	Instances         []model.ReservationInstance
	ReservationUnitID int64
	MetadataFields    []string          // поля объекта, которые переносятся в каждую бронь
	Details           map[string]string // значения полей брони
	Buffers           model.Buffers
	Location          *time.Location
}

type Orchestrator struct {
	client MutationClient
	logger *zap.Logger
	cfg    Config
}

func NewOrchestrator(client MutationClient, logger *zap.Logger, cfg Config) *Orchestrator {
	if cfg.FirstPassSize <= 0 {
		cfg.FirstPassSize = DefaultFirstPassSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Continue == nil {
		cfg.Continue = AlwaysContinue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

// Submit создаёт родительскую серию, затем по одной брони на каждое вхождение.
// Ошибка возвращается только если не удалось создать серию, в этом случае брони не создаются.
// Результат всегда той же длины и в том же порядке, что и req.Instances.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (int64, []model.ReservationInstance, error) {
	seriesID, err := o.client.CreateRecurringSeries(ctx, req.Series).Get()
	if err != nil {
		o.logger.Error("Failed to create recurring series",
			zap.Int64("reservation_unit_id", req.ReservationUnitID),
			zap.String("name", req.Series.Name),
			zap.Error(err))
		return 0, nil, fmt.Errorf("%w: %w", ErrSeriesCreation, err)
	}

	o.logger.Info("Recurring series created",
		zap.Int64("recurring_series_id", seriesID),
		zap.Int64("reservation_unit_id", req.ReservationUnitID),
		zap.Int("instances", len(req.Instances)))

	create := o.creator(req, seriesID)
	results := make([]model.ReservationInstance, len(req.Instances))

	// Первый проход небольшой: системные ошибки видны до отправки всей серии
	first := min(o.cfg.FirstPassSize, len(req.Instances))
	copy(results, RunInBatches(ctx, req.Instances[:first], first, create))

	rest := req.Instances[first:]
	if len(rest) > 0 {
		if o.cfg.Continue(results[:first]) {
			secondPass := func(ctx context.Context, i int, r model.ReservationInstance) model.ReservationInstance {
				return create(ctx, first+i, r)
			}
			copy(results[first:], RunInBatches(ctx, rest, len(rest), secondPass))
		} else {
			o.logger.Warn("Second pass skipped after first pass results",
				zap.Int64("recurring_series_id", seriesID),
				zap.Int("skipped", len(rest)))
			for i, r := range rest {
				r.ReservationPk = nil
				r.Error = ErrNotAttempted.Error()
				results[first+i] = r
			}
		}
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	o.logger.Info("Recurring series submitted",
		zap.Int64("recurring_series_id", seriesID),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(results)-succeeded))

	return seriesID, results, nil
}

// creator возвращает функцию создания одной брони с одним повтором при сетевой ошибке
func (o *Orchestrator) creator(req Request, seriesID int64) func(context.Context, int, model.ReservationInstance) model.ReservationInstance {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	resType := req.Series.Type
	if resType == "" {
		resType = model.ReservationTypeStaff
	}
	buffers := req.Buffers.ForType(resType)
	metadata := flattenMetadata(req.MetadataFields, req.Details)

	return func(ctx context.Context, index int, instance model.ReservationInstance) model.ReservationInstance {
		result := instance
		result.ReservationPk = nil
		result.Error = ""

		interval, ok := collision.InstanceInterval(instance, loc)
		if !ok {
			result.Error = fmt.Sprintf("invalid reservation time %s-%s", instance.StartTime, instance.EndTime)
			return result
		}

		input := model.StaffReservationInput{
			ReservationUnitID: req.ReservationUnitID,
			RecurringSeriesID: seriesID,
			Begin:             interval.Start,
			End:               interval.End,
			Type:              resType,
			BufferBefore:      buffers.Before,
			BufferAfter:       buffers.After,
			Name:              req.Series.Name,
			Description:       req.Series.Description,
			Metadata:          metadata,
		}

		var pk int64
		attempt := 0
		backoff := retry.WithMaxRetries(1, retry.NewConstant(o.cfg.RetryDelay))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempt++
			id, err := o.client.CreateStaffReservation(ctx, input).Get()
			if err == nil {
				pk = id
				return nil
			}
			if KindOf(err) == FailureNetwork {
				o.logger.Warn("Network error while creating reservation",
					zap.Int("index", index),
					zap.Int("attempt", attempt),
					zap.Time("begin", input.Begin),
					zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		})
		if err != nil {
			o.logger.Error("Failed to create reservation",
				zap.Int64("recurring_series_id", seriesID),
				zap.Int("index", index),
				zap.Time("begin", input.Begin),
				zap.Error(err))
			result.Error = err.Error()
			return result
		}

		result.ReservationPk = &pk
		return result
	}
}

// flattenMetadata оставляет только поля, разрешённые для объекта
func flattenMetadata(fields []string, details map[string]string) map[string]string {
	if len(fields) == 0 || len(details) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := details[f]; ok {
			out[f] = v
		}
	}
	return out
}
