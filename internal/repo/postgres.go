package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

// Appointment status values as stored in the appointments table. Every
// status other than scheduled is a resolved outcome.
const (
	statusScheduled = "scheduled"
	statusCompleted = "completed"
	statusCancelled = "cancelled"
	statusNoShow    = "no_show"
)

// AppointmentStore reads and writes appointments in PostgreSQL.
type AppointmentStore struct {
	db *sql.DB
}

func NewAppointmentStore(db *sql.DB) *AppointmentStore {
	return &AppointmentStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const apptCols = `id, patient_id, therapist_id, start_time, end_time, appointment_type, status, created_at`

func scanAppointment(row scanner) (noshow.AppointmentRecord, error) {
	var (
		rec             noshow.AppointmentRecord
		start, end      time.Time
		apptType, state string
	)
	if err := row.Scan(&rec.ID, &rec.PatientID, &rec.TherapistID, &start, &end, &apptType, &state, &rec.CreatedAt); err != nil {
		return noshow.AppointmentRecord{}, err
	}

	t, err := noshow.ParseAppointmentType(apptType)
	if err != nil {
		return noshow.AppointmentRecord{}, fmt.Errorf("appointment %s: %w", rec.ID, err)
	}
	rec.Type = t
	rec.ScheduledAt = start
	rec.Duration = end.Sub(start)
	rec.Outcome = outcomeFromStatus(state)
	return rec, nil
}

func outcomeFromStatus(status string) noshow.Outcome {
	switch status {
	case statusCompleted:
		return noshow.OutcomeCompleted
	case statusCancelled:
		return noshow.OutcomeCancelled
	case statusNoShow:
		return noshow.OutcomeNoShow
	default:
		return noshow.OutcomeUnknown
	}
}

func statusFromOutcome(o noshow.Outcome) (string, error) {
	switch o {
	case noshow.OutcomeCompleted:
		return statusCompleted, nil
	case noshow.OutcomeCancelled:
		return statusCancelled, nil
	case noshow.OutcomeNoShow:
		return statusNoShow, nil
	default:
		return "", fmt.Errorf("%w: %q", noshow.ErrInvalidOutcome, string(o))
	}
}

func (s *AppointmentStore) GetAppointment(ctx context.Context, id uuid.UUID) (noshow.AppointmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id)
	rec, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return noshow.AppointmentRecord{}, noshow.ErrAppointmentNotFound
	}
	if err != nil {
		return noshow.AppointmentRecord{}, fmt.Errorf("get appointment: %w", err)
	}
	return rec, nil
}

func (s *AppointmentStore) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, patientID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check patient: %w", err)
	}
	return exists, nil
}

func (s *AppointmentStore) PatientAppointments(ctx context.Context, patientID uuid.UUID) ([]noshow.AppointmentRecord, error) {
	return s.query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE patient_id = $1 AND status <> $2
		ORDER BY start_time, id`,
		patientID, statusScheduled)
}

func (s *AppointmentStore) ResolvedAppointments(ctx context.Context) ([]noshow.AppointmentRecord, error) {
	return s.query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE status <> $1
		ORDER BY start_time, id`,
		statusScheduled)
}

func (s *AppointmentStore) ScheduledBetween(ctx context.Context, from, to time.Time) ([]noshow.AppointmentRecord, error) {
	return s.query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE status = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time, id`,
		statusScheduled, from, to)
}

func (s *AppointmentStore) UpdateOutcome(ctx context.Context, id uuid.UUID, outcome noshow.Outcome) (noshow.AppointmentRecord, error) {
	status, err := statusFromOutcome(outcome)
	if err != nil {
		return noshow.AppointmentRecord{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE appointments SET
			status = $2,
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+apptCols,
		id, status)
	rec, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return noshow.AppointmentRecord{}, noshow.ErrAppointmentNotFound
	}
	if err != nil {
		return noshow.AppointmentRecord{}, fmt.Errorf("update appointment status: %w", err)
	}
	return rec, nil
}

func (s *AppointmentStore) query(ctx context.Context, q string, args ...any) ([]noshow.AppointmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []noshow.AppointmentRecord
	for rows.Next() {
		rec, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}
