// Package recurrence разворачивает шаблон повторяющейся брони в список конкретных дат.
package recurrence

import (
	"slices"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
)

const (
	// firstWindowDays длина первой недели, в которой ищутся опорные дни
	firstWindowDays = 7
	endOfDay        = 23*time.Hour + 59*time.Minute + 59*time.Second
)

// Result список вхождений и результат валидации
type Result struct {
	Reservations []model.ReservationInstance `json:"reservations"`
	Validation   Validation                  `json:"validation"`
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Generate проверяет входные данные и генерирует вхождения серии.
// Никогда не возвращает ошибку: невалидный ввод даёт пустой список и ошибки в Validation,
// вырожденный диапазон даёт пустой список.
func Generate(in Input, opts ...Option) Result {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	validation := Validate(in)
	if !validation.Valid() {
		return Result{Reservations: []model.ReservationInstance{}, Validation: validation}
	}

	return Result{
		Reservations: generate(in, o.now()),
		Validation:   validation,
	}
}

func generate(in Input, now time.Time) []model.ReservationInstance {
	out := []model.ReservationInstance{}

	step := in.Pattern.StepDays()
	if step <= 0 || in.StartDate.IsZero() || in.EndDate.IsZero() {
		return out
	}

	// Прошедшие даты не генерируем
	start := calendarDay(in.StartDate)
	if today := calendarDay(now.UTC()); today.After(start) {
		start = today
	}
	end := calendarDay(in.EndDate).Add(endOfDay)
	if end.Before(start) {
		return out
	}

	windowEnd := start.AddDate(0, 0, firstWindowDays-1)
	if windowEnd.After(end) {
		windowEnd = end
	}

	selected := make(map[int]bool, len(in.Weekdays))
	for _, d := range in.Weekdays {
		selected[d] = true
	}

	// Опорными считаются только дни первой недели, дальше шагаем от них
	for anchor := start; !anchor.After(windowEnd); anchor = anchor.AddDate(0, 0, 1) {
		if !selected[model.MondayIndex(anchor.Weekday())] {
			continue
		}
		for day := anchor; !day.After(end); day = day.AddDate(0, 0, step) {
			out = append(out, model.ReservationInstance{
				Date:      day,
				StartTime: in.StartTime,
				EndTime:   in.EndTime,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b model.ReservationInstance) int {
		return a.Date.Compare(b.Date)
	})

	return out
}

// calendarDay возвращает календарную дату t как полночь по UTC
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SeriesMetadata собирает данные родительской записи серии из параметров генерации
func SeriesMetadata(in Input, unitID int64, name, description string) model.SeriesMetadata {
	return model.SeriesMetadata{
		Name:              name,
		Description:       description,
		ReservationUnitID: unitID,
		Weekdays:          slices.Clone(in.Weekdays),
		BeginDate:         calendarDay(in.StartDate),
		EndDate:           calendarDay(in.EndDate),
		BeginTime:         in.StartTime,
		EndTime:           in.EndTime,
		RecurrenceInDays:  in.Pattern.StepDays(),
	}
}
