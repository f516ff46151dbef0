package model

import "time"

type ReservationType string

const (
	ReservationTypeStaff   ReservationType = "staff"
	ReservationTypeBehalf  ReservationType = "behalf"
	ReservationTypeBlocked ReservationType = "blocked"
	ReservationTypeNormal  ReservationType = "normal"
)

// Valid сообщает, известен ли тип брони
func (t ReservationType) Valid() bool {
	switch t {
	case ReservationTypeStaff, ReservationTypeBehalf, ReservationTypeBlocked, ReservationTypeNormal:
		return true
	default:
		return false
	}
}

type ReservationState string

const (
	ReservationStateConfirmed ReservationState = "confirmed"
	ReservationStateDenied    ReservationState = "denied"
	ReservationStateCancelled ReservationState = "cancelled"
)

// InactiveStates состояния, в которых бронь не занимает время объекта
var InactiveStates = []ReservationState{ReservationStateDenied, ReservationStateCancelled}

// Buffers буферное время до и после брони
type Buffers struct {
	Before time.Duration `json:"buffer_before"`
	After  time.Duration `json:"buffer_after"`
}

// ForType обнуляет буферы для блокирующих броней
func (b Buffers) ForType(t ReservationType) Buffers {
	if t == ReservationTypeBlocked {
		return Buffers{}
	}
	return b
}

// ReservationInstance одно конкретное вхождение повторяющейся брони.
// Date всегда полночь по UTC, время хранится строкой "HH:MM".
type ReservationInstance struct {
	Date          time.Time `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	IsOverlapping bool      `json:"is_overlapping,omitempty"`
	ReservationPk *int64    `json:"reservation_pk,omitempty"` // заполняется после успешного создания
	Error         string    `json:"error,omitempty"`          // заполняется при окончательной ошибке
}

// Succeeded сообщает, была ли бронь создана на бэкенде
func (r ReservationInstance) Succeeded() bool {
	return r.ReservationPk != nil
}

// ExistingBookedInterval уже существующая бронь на том же объекте
type ExistingBookedInterval struct {
	Begin        time.Time       `json:"begin"`
	End          time.Time       `json:"end"`
	BufferBefore time.Duration   `json:"buffer_before"`
	BufferAfter  time.Duration   `json:"buffer_after"`
	Type         ReservationType `json:"type"`
}

// StaffReservationInput данные для создания одной брони серии
type StaffReservationInput struct {
	ReservationUnitID int64             `json:"reservation_unit_id"`
	RecurringSeriesID int64             `json:"recurring_series_id"`
	Begin             time.Time         `json:"begin"`
	End               time.Time         `json:"end"`
	Type              ReservationType   `json:"type"`
	BufferBefore      time.Duration     `json:"buffer_before"`
	BufferAfter       time.Duration     `json:"buffer_after"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Reservation бронь в хранилище
type Reservation struct {
	ID                int64             `json:"id"`
	ReservationUnitID int64             `json:"reservation_unit_id"`
	RecurringSeriesID *int64            `json:"recurring_series_id"`
	Begin             time.Time         `json:"begin"`
	End               time.Time         `json:"end"`
	Type              ReservationType   `json:"type"`
	State             ReservationState  `json:"state"`
	BufferBefore      time.Duration     `json:"buffer_before"`
	BufferAfter       time.Duration     `json:"buffer_after"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}
