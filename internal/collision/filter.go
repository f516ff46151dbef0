// Package collision помечает сгенерированные вхождения, пересекающиеся с существующими бронями.
package collision

import (
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/recurrence"
)

type options struct {
	location *time.Location
	buffers  model.Buffers
	resType  model.ReservationType
}

type Option func(*options)

// WithLocation задаёт часовой пояс, в котором трактуется "HH:MM" вхождения
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithBuffers задаёт буферы создаваемых броней
func WithBuffers(b model.Buffers) Option {
	return func(o *options) {
		o.buffers = b
	}
}

// WithReservationType задаёт тип создаваемых броней, у блокирующих буферов нет
func WithReservationType(t model.ReservationType) Option {
	return func(o *options) {
		o.resType = t
	}
}

// Interval абсолютный интервал с буферами
type Interval struct {
	Start   time.Time
	End     time.Time
	Buffers model.Buffers
}

// Collides проверяет пересечение нового интервала a с существующим b.
// Буферы не складываются: в каждом зазоре берётся максимум из двух обращённых друг к другу.
func Collides(a, b Interval) bool {
	aEndBuffer := max(a.Buffers.After, b.Buffers.Before)
	bEndBuffer := max(a.Buffers.Before, b.Buffers.After)

	if a.Start.Before(b.Start) && !a.End.Add(aEndBuffer).After(b.Start) {
		return false
	}
	if !a.Start.Before(b.End.Add(bEndBuffer)) && a.End.After(b.End) {
		return false
	}
	return true
}

// InstanceInterval переводит вхождение в абсолютный интервал
func InstanceInterval(r model.ReservationInstance, loc *time.Location) (Interval, bool) {
	startOffset, err := recurrence.ClockOffset(r.StartTime)
	if err != nil {
		return Interval{}, false
	}
	endOffset, err := recurrence.ClockOffset(r.EndTime)
	if err != nil {
		return Interval{}, false
	}

	return Interval{
		Start: wallClock(r.Date, startOffset, loc),
		End:   wallClock(r.Date, endOffset, loc),
	}, true
}

// wallClock собирает момент из календарной даты и времени на часах в loc.
// В дни перевода часов сутки не равны 24 часам, поэтому время задаётся часами и минутами.
func wallClock(day time.Time, offset time.Duration, loc *time.Location) time.Time {
	hour := int(offset / time.Hour)
	minute := int(offset % time.Hour / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// Filter помечает IsOverlapping у вхождений, пересекающихся с existing.
// Порядок и количество элементов не меняются; при пустом existing вход возвращается как есть.
func Filter(instances []model.ReservationInstance, existing []model.ExistingBookedInterval, opts ...Option) []model.ReservationInstance {
	if len(existing) == 0 {
		return instances
	}

	o := options{location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	booked := make([]Interval, 0, len(existing))
	for _, e := range existing {
		booked = append(booked, Interval{
			Start:   e.Begin,
			End:     e.End,
			Buffers: model.Buffers{Before: e.BufferBefore, After: e.BufferAfter}.ForType(e.Type),
		})
	}
	ownBuffers := o.buffers.ForType(o.resType)

	out := make([]model.ReservationInstance, len(instances))
	for i, r := range instances {
		out[i] = r

		interval, ok := InstanceInterval(r, o.location)
		if !ok {
			continue
		}
		interval.Buffers = ownBuffers

		for _, b := range booked {
			if Collides(interval, b) {
				out[i].IsOverlapping = true
				break
			}
		}
	}

	return out
}

// Overlapping возвращает количество помеченных вхождений
func Overlapping(instances []model.ReservationInstance) int {
	n := 0
	for _, r := range instances {
		if r.IsOverlapping {
			n++
		}
	}
	return n
}
