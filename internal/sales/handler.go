package sales

import (
	"errors"
	"fmt"
	"strconv"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/inventory"
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Counter is satisfied by telemetry.Metrics.
type Counter interface {
	SaleCompleted()
}

type Handler struct {
	svc     *Service
	audit   *audit.Recorder
	metrics Counter
}

func NewHandler(svc *Service, rec *audit.Recorder, metrics Counter) *Handler {
	return &Handler{svc: svc, audit: rec, metrics: metrics}
}

// POST /api/sales
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if errs := body.Validate(); !errs.Empty() {
			return errs.Respond(c)
		}

		userID := auth.CurrentUserID(c)
		res, err := h.svc.Create(c.UserContext(), userID, body)
		if err != nil {
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
			case errors.Is(err, ErrTotalMismatch):
				return fiber.NewError(fiber.StatusBadRequest, "El total no coincide con la suma de los productos")
			}
			return err
		}

		if h.metrics != nil {
			h.metrics.SaleCompleted()
		}
		h.audit.Recordf(c.UserContext(), userID, "Registró la venta #%d por un total de %s", res.Sale.ID, res.FinalAmount.StringFixed(2))

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"msg":          "Venta registrada exitosamente",
			"sale_id":      res.Sale.ID,
			"final_amount": res.FinalAmount,
		})
	}
}

// GET /api/sales?page=1&limit=15&userId=&startDate=&endDate=
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f Filter
		if raw := c.Query("userId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "userId inválido")
			}
			f.UserID = uint(id)
		}
		if raw := c.Query("startDate"); raw != "" {
			d, err := validation.ParseDate(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "startDate debe tener formato YYYY-MM-DD")
			}
			f.Start = d
		}
		if raw := c.Query("endDate"); raw != "" {
			d, err := validation.ParseDate(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "endDate debe tener formato YYYY-MM-DD")
			}
			f.End = d
		}

		page := database.ParsePage(c.Query("page"), c.Query("limit"), 15)
		res, err := h.svc.List(c.UserContext(), f, page)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/sales/:id
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID de venta inválido")
		}

		sale, err := h.svc.Get(c.UserContext(), uint(id))
		if errors.Is(err, ErrSaleNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}
		if err != nil {
			return err
		}
		return c.JSON(sale)
	}
}
