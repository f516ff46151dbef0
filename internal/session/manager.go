// Package session хранит черновики серий, которые сотрудник ещё не отправил.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/reservation_series/internal/model"
	"github.com/Freeeeeet/reservation_series/internal/recurrence"
)

const DefaultTTL = 2 * time.Hour

// Draft сгенерированная, но ещё не отправленная серия
type Draft struct {
	ReservationUnitID int64
	Input             recurrence.Input
	Type              model.ReservationType
	Buffers           model.Buffers
	MetadataFields    []string
	Instances         []model.ReservationInstance
	UpdatedAt         time.Time
}

func (d *Draft) clone() *Draft {
	c := *d
	c.MetadataFields = slices.Clone(d.MetadataFields)
	c.Instances = slices.Clone(d.Instances)
	c.Input.Weekdays = slices.Clone(d.Input.Weekdays)
	return &c
}

// Manager управляет черновиками сотрудников
type Manager struct {
	mu     sync.RWMutex
	drafts map[int64]*Draft // staffID -> Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер черновиков. ttl <= 0 означает DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		drafts: make(map[int64]*Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *Manager) expired(d *Draft) bool {
	return m.now().Sub(d.UpdatedAt) > m.ttl
}

// Get получает копию черновика сотрудника
func (m *Manager) Get(staffID int64) (*Draft, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, exists := m.drafts[staffID]
	if !exists || m.expired(d) {
		return nil, false
	}
	return d.clone(), true
}

// Set сохраняет черновик, заменяя предыдущий
func (m *Manager) Set(staffID int64, draft Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := draft.clone()
	d.UpdatedAt = m.now()
	m.drafts[staffID] = d
}

// Update меняет черновик на месте. Возвращает false, если черновика нет или он истёк.
func (m *Manager) Update(staffID int64, fn func(d *Draft)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, exists := m.drafts[staffID]
	if !exists {
		return false
	}
	if m.expired(d) {
		delete(m.drafts, staffID)
		return false
	}

	fn(d)
	d.UpdatedAt = m.now()
	return true
}

// Clear удаляет черновик сотрудника
func (m *Manager) Clear(staffID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.drafts, staffID)
}

// PurgeExpired удаляет истёкшие черновики и возвращает их количество
func (m *Manager) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, d := range m.drafts {
		if m.expired(d) {
			delete(m.drafts, id)
			n++
		}
	}
	return n
}

// Len возвращает количество хранимых черновиков, включая истёкшие
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.drafts)
}
