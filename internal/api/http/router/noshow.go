package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_noshow/internal/api/http/handler"
)

func (r *Router) registerNoShowRoutes(api fiber.Router, h *handler.NoShowHandler) {
	ns := api.Group("/noshow")

	ns.Get("/analytics", h.Analytics)
	ns.Post("/predictions/batch", h.BatchPredict)
	ns.Get("/patients/:id/history", h.PatientHistory)

	appt := ns.Group("/appointments/:id")
	appt.Get("/prediction", h.Predict)
	appt.Patch("/outcome", h.UpdateOutcome)
}
