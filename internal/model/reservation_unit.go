package model

import "time"

// ReservationUnit описание бронируемого объекта
type ReservationUnit struct {
	ID                     int64         `json:"id"`
	Name                   string        `json:"name"`
	MinReservationInterval time.Duration `json:"min_reservation_interval"` // шаг времени начала и конца
	BufferBefore           time.Duration `json:"buffer_before"`
	BufferAfter            time.Duration `json:"buffer_after"`
	MetadataFields         []string      `json:"metadata_fields"` // поля, которые переносятся в каждую бронь
	IsActive               bool          `json:"is_active"`
}

// Buffers возвращает буферы объекта
func (u *ReservationUnit) Buffers() Buffers {
	return Buffers{Before: u.BufferBefore, After: u.BufferAfter}
}
