package layaway

import (
	"errors"
	"fmt"
	"strconv"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	NewPaymentAmount decimal.Decimal `json:"new_payment_amount"`
}

type Handler struct {
	svc   *Service
	audit *audit.Recorder
}

func NewHandler(svc *Service, rec *audit.Recorder) *Handler {
	return &Handler{svc: svc, audit: rec}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "ID de plan inválido")
	}
	return uint(id), nil
}

func planError(err error) error {
	var stockErr *inventory.StockError
	switch {
	case errors.As(err, &stockErr):
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(
			"Stock insuficiente para el producto %s (talla %s). Disponible: %d, solicitado: %d",
			stockErr.Name, stockErr.Size, stockErr.Available, stockErr.Requested))
	case errors.Is(err, inventory.ErrInsufficientStock):
		return fiber.NewError(fiber.StatusBadRequest, "Stock insuficiente para uno de los productos")
	case errors.Is(err, inventory.ErrProductNotFound):
		return fiber.NewError(fiber.StatusBadRequest, "Uno de los productos no existe o está inactivo")
	case errors.Is(err, ErrPlanNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Plan Separe no encontrado")
	case errors.Is(err, ErrInvalidPayment):
		return fiber.NewError(fiber.StatusBadRequest, "El monto del abono debe ser mayor a 0")
	case errors.Is(err, ErrPaymentExceedsBalance):
		return fiber.NewError(fiber.StatusBadRequest, "El abono no puede superar el saldo pendiente")
	case errors.Is(err, ErrPlanCompleted):
		return fiber.NewError(fiber.StatusBadRequest, "El plan ya está pagado en su totalidad")
	}
	return err
}

// GET /api/layaway?search=&status=active|overdue|completed|all
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		plans, err := h.svc.List(c.UserContext(), c.Query("search"), c.Query("status"))
		if errors.Is(err, ErrUnknownStatus) {
			return fiber.NewError(fiber.StatusBadRequest, "Estado de plan inválido")
		}
		if err != nil {
			return err
		}
		return c.JSON(plans)
	}
}

// GET /api/layaway/:id
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		plan, err := h.svc.Get(c.UserContext(), id)
		if err != nil {
			return planError(err)
		}
		return c.JSON(plan)
	}
}

// POST /api/layaway
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		deadline, errs := body.Validate(h.svc.now())
		if !errs.Empty() {
			return errs.Respond(c)
		}

		userID := auth.CurrentUserID(c)
		plan, err := h.svc.Create(c.UserContext(), userID, body, deadline)
		if err != nil {
			return planError(err)
		}

		h.audit.Recordf(c.UserContext(), userID, "Creó el Plan Separe #%d para %s", plan.ID, plan.CustomerName)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"msg":  "Plan Separe creado exitosamente",
			"id":   plan.ID,
			"plan": plan,
		})
	}
}

// PUT /api/layaway/:id
func (h *Handler) AddPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body PaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		userID := auth.CurrentUserID(c)
		plan, err := h.svc.AddPayment(c.UserContext(), userID, id, body.NewPaymentAmount)
		if err != nil {
			return planError(err)
		}

		h.audit.Recordf(c.UserContext(), userID, "Registró un abono de %s al Plan Separe #%d",
			body.NewPaymentAmount.StringFixed(2), plan.ID)
		return c.JSON(fiber.Map{
			"msg":  "Abono registrado exitosamente",
			"plan": plan,
		})
	}
}

// DELETE /api/layaway/:id
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		plan, err := h.svc.Delete(c.UserContext(), id)
		if err != nil {
			return planError(err)
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Eliminó el Plan Separe #%d de %s", plan.ID, plan.CustomerName)
		return c.JSON(fiber.Map{"msg": "Plan Separe eliminado y stock restaurado"})
	}
}
