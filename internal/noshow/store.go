package noshow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the read/write surface of the appointment corpus. Implementations
// return ErrAppointmentNotFound (possibly wrapped) for unknown appointments.
type Store interface {
	// GetAppointment returns a single appointment, resolved or not.
	GetAppointment(ctx context.Context, id uuid.UUID) (AppointmentRecord, error)

	// PatientExists reports whether the patient is known, independent of
	// whether they have any appointments.
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)

	// PatientAppointments returns the patient's appointments with a resolved
	// outcome, oldest first.
	PatientAppointments(ctx context.Context, patientID uuid.UUID) ([]AppointmentRecord, error)

	// ResolvedAppointments returns every appointment with a resolved outcome.
	ResolvedAppointments(ctx context.Context) ([]AppointmentRecord, error)

	// ScheduledBetween returns unresolved appointments scheduled in [from, to).
	ScheduledBetween(ctx context.Context, from, to time.Time) ([]AppointmentRecord, error)

	// UpdateOutcome records the outcome and returns the updated record.
	UpdateOutcome(ctx context.Context, id uuid.UUID, outcome Outcome) (AppointmentRecord, error)
}
