package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

// MemoryStore is an in-process noshow.Store used by tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]struct{}
	appts    map[uuid.UUID]noshow.AppointmentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[uuid.UUID]struct{}),
		appts:    make(map[uuid.UUID]noshow.AppointmentRecord),
	}
}

func (m *MemoryStore) AddPatient(id uuid.UUID) {
	m.mu.Lock()
	m.patients[id] = struct{}{}
	m.mu.Unlock()
}

// AddAppointment stores the record and registers its patient. A nil record
// id is replaced with a fresh one.
func (m *MemoryStore) AddAppointment(rec noshow.AppointmentRecord) noshow.AppointmentRecord {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.mu.Lock()
	m.patients[rec.PatientID] = struct{}{}
	m.appts[rec.ID] = rec
	m.mu.Unlock()
	return rec
}

func (m *MemoryStore) GetAppointment(_ context.Context, id uuid.UUID) (noshow.AppointmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.appts[id]
	if !ok {
		return noshow.AppointmentRecord{}, noshow.ErrAppointmentNotFound
	}
	return rec, nil
}

func (m *MemoryStore) PatientExists(_ context.Context, patientID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.patients[patientID]
	return ok, nil
}

func (m *MemoryStore) PatientAppointments(_ context.Context, patientID uuid.UUID) ([]noshow.AppointmentRecord, error) {
	return m.filter(func(r noshow.AppointmentRecord) bool {
		return r.PatientID == patientID && r.Outcome.Resolved()
	}), nil
}

func (m *MemoryStore) ResolvedAppointments(_ context.Context) ([]noshow.AppointmentRecord, error) {
	return m.filter(func(r noshow.AppointmentRecord) bool {
		return r.Outcome.Resolved()
	}), nil
}

func (m *MemoryStore) ScheduledBetween(_ context.Context, from, to time.Time) ([]noshow.AppointmentRecord, error) {
	return m.filter(func(r noshow.AppointmentRecord) bool {
		return !r.Outcome.Resolved() && !r.ScheduledAt.Before(from) && r.ScheduledAt.Before(to)
	}), nil
}

func (m *MemoryStore) UpdateOutcome(_ context.Context, id uuid.UUID, outcome noshow.Outcome) (noshow.AppointmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.appts[id]
	if !ok {
		return noshow.AppointmentRecord{}, fmt.Errorf("update outcome: %w", noshow.ErrAppointmentNotFound)
	}
	rec.Outcome = outcome
	m.appts[id] = rec
	return rec, nil
}

// filter returns matching records ordered by schedule time, then id.
func (m *MemoryStore) filter(keep func(noshow.AppointmentRecord) bool) []noshow.AppointmentRecord {
	m.mu.RLock()
	out := make([]noshow.AppointmentRecord, 0, len(m.appts))
	for _, r := range m.appts {
		if keep(r) {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
