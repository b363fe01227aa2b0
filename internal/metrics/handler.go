package metrics

import (
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func rangeFromQuery(c *fiber.Ctx) (Range, error) {
	var r Range
	if raw := c.Query("startDate"); raw != "" {
		d, err := validation.ParseDate(raw)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "startDate debe tener formato YYYY-MM-DD")
		}
		r.Start = d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := validation.ParseDate(raw)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "endDate debe tener formato YYYY-MM-DD")
		}
		r.End = d
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return r, fiber.NewError(fiber.StatusBadRequest, "endDate no puede ser anterior a startDate")
	}
	return r, nil
}

// GET /api/metrics?startDate=&endDate=
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := rangeFromQuery(c)
		if err != nil {
			return err
		}
		report, err := h.svc.Compute(c.UserContext(), r)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}
