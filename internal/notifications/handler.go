package notifications

import "github.com/gofiber/fiber/v2"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/notifications
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := h.svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/notifications/status
func (h *Handler) Status() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := h.svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"hasUnread": len(list) > 0})
	}
}

// POST /api/notifications/mark-as-read
// Notifications are derived, so there is no read state to store.
func (h *Handler) MarkAsRead() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "Notificaciones marcadas como leídas"})
	}
}
