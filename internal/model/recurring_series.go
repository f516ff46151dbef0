package model

import (
	"time"

	"github.com/google/uuid"
)

type RepeatPattern string

const (
	RepeatWeekly   RepeatPattern = "weekly"
	RepeatBiweekly RepeatPattern = "biweekly"
)

// StepDays возвращает шаг между вхождениями в днях, 0 для неизвестного шаблона
func (p RepeatPattern) StepDays() int {
	switch p {
	case RepeatWeekly:
		return 7
	case RepeatBiweekly:
		return 14
	default:
		return 0
	}
}

// MondayIndex переводит time.Weekday (0 = Sunday) в индекс с понедельника (0 = Monday)
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// SeriesMetadata данные для создания родительской записи серии
type SeriesMetadata struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	ReservationUnitID int64           `json:"reservation_unit_id"`
	Weekdays          []int           `json:"weekdays"` // 0 = Monday, 6 = Sunday
	BeginDate         time.Time       `json:"begin_date"`
	EndDate           time.Time       `json:"end_date"`
	BeginTime         string          `json:"begin_time"`
	EndTime           string          `json:"end_time"`
	RecurrenceInDays  int             `json:"recurrence_in_days"`
	Buffers           Buffers         `json:"buffers"`
	Type              ReservationType `json:"type"`
}

// RecurringSeries сохранённая серия повторяющихся броней
type RecurringSeries struct {
	ID        int64     `json:"id"`
	ExtUUID   uuid.UUID `json:"ext_uuid"`
	CreatedAt time.Time `json:"created_at"`
	SeriesMetadata
}
