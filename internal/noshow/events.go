package noshow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/simorq_noshow/pkg/constants"
)

// OutcomeEvent announces that an appointment outcome changed, so every
// replica can drop the patient's cached history.
type OutcomeEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Outcome       Outcome   `json:"outcome"`
}

func OutcomeSubject(patientID uuid.UUID) string {
	return constants.SubjectOutcomePrefix + "." + patientID.String()
}

type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, ev OutcomeEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishOutcome(context.Context, OutcomeEvent) error { return nil }

// NATSPublisher publishes outcome events on core NATS.
type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

func (p *NATSPublisher) PublishOutcome(_ context.Context, ev OutcomeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode outcome event: %w", err)
	}
	if err := p.nc.Publish(OutcomeSubject(ev.PatientID), data); err != nil {
		return fmt.Errorf("publish outcome event: %w", err)
	}
	return nil
}

// DecodeOutcomeEvent parses a message published by NATSPublisher.
func DecodeOutcomeEvent(data []byte) (OutcomeEvent, error) {
	var ev OutcomeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return OutcomeEvent{}, fmt.Errorf("decode outcome event: %w", err)
	}
	if ev.PatientID == uuid.Nil {
		return OutcomeEvent{}, fmt.Errorf("decode outcome event: missing patient_id")
	}
	return ev, nil
}
