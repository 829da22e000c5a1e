package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

type NoShowHandler struct {
	svc          noshow.Service
	maxBatchSize int
}

// NewNoShowHandler caps batch requests at maxBatchSize ids; zero disables the
// cap.
func NewNoShowHandler(svc noshow.Service, maxBatchSize int) *NoShowHandler {
	return &NoShowHandler{svc: svc, maxBatchSize: maxBatchSize}
}

func mapNoShowError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, noshow.ErrAppointmentNotFound):
		return notFound(c, "appointment not found")
	case errors.Is(err, noshow.ErrPatientNotFound):
		return notFound(c, "patient not found")
	case errors.Is(err, noshow.ErrInvalidOutcome):
		return badRequest(c, err.Error())
	case errors.Is(err, noshow.ErrInvalidAppointmentType):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// GET /appointments/:id/prediction
func (h *NoShowHandler) Predict(c fiber.Ctx) error {
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	p, err := h.svc.Predict(c.Context(), apptID)
	if err != nil {
		return mapNoShowError(c, err)
	}
	return ok(c, p)
}

type batchItemResponse struct {
	AppointmentID uuid.UUID                `json:"appointment_id"`
	Prediction    *noshow.NoShowPrediction `json:"prediction,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

// batchItemError keeps internal failure detail out of responses.
func batchItemError(err error) string {
	switch {
	case errors.Is(err, noshow.ErrAppointmentNotFound):
		return "appointment not found"
	case errors.Is(err, noshow.ErrPatientNotFound):
		return "patient not found"
	default:
		return "prediction failed"
	}
}

// POST /predictions/batch
func (h *NoShowHandler) BatchPredict(c fiber.Ctx) error {
	var body struct {
		AppointmentIDs []string `json:"appointment_ids"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if h.maxBatchSize > 0 && len(body.AppointmentIDs) > h.maxBatchSize {
		return badRequest(c, "too many appointment_ids")
	}

	ids := make([]uuid.UUID, 0, len(body.AppointmentIDs))
	for _, raw := range body.AppointmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "invalid appointment id: "+raw)
		}
		ids = append(ids, id)
	}

	items := h.svc.BatchPredict(c.Context(), ids)

	out := make([]batchItemResponse, len(items))
	for i, it := range items {
		out[i] = batchItemResponse{AppointmentID: it.AppointmentID, Prediction: it.Prediction}
		if it.Err != nil {
			out[i].Prediction = nil
			out[i].Error = batchItemError(it.Err)
		}
	}
	return ok(c, out)
}

// GET /patients/:id/history
func (h *NoShowHandler) PatientHistory(c fiber.Ctx) error {
	patientID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid patient id")
	}

	hist, err := h.svc.PatientHistory(c.Context(), patientID)
	if err != nil {
		return mapNoShowError(c, err)
	}
	return ok(c, hist)
}

// GET /analytics
func (h *NoShowHandler) Analytics(c fiber.Ctx) error {
	a, err := h.svc.Analytics(c.Context())
	if err != nil {
		return mapNoShowError(c, err)
	}
	return ok(c, a)
}

// PATCH /appointments/:id/outcome
func (h *NoShowHandler) UpdateOutcome(c fiber.Ctx) error {
	apptID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	outcome, err := noshow.ParseOutcome(body.Outcome)
	if err != nil {
		return badRequest(c, "outcome must be one of completed, no_show, cancelled")
	}

	if err := h.svc.UpdateOutcome(c.Context(), apptID, outcome); err != nil {
		return mapNoShowError(c, err)
	}
	return ok(c, fiber.Map{
		"appointment_id": apptID,
		"outcome":        outcome,
		"updated_at":     time.Now().UTC(),
	})
}
