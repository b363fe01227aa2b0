package financial

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateEntryRequest struct {
	EntryDate string          `json:"entry_date"`
	Concept   string          `json:"concept"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
}

type Handler struct {
	svc   *Service
	audit *audit.Recorder
}

func NewHandler(svc *Service, rec *audit.Recorder) *Handler {
	return &Handler{svc: svc, audit: rec}
}

// filterFromQuery reads startDate, endDate and search. Both dates are inclusive.
func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	var f Filter
	if raw := c.Query("startDate"); raw != "" {
		d, err := validation.ParseDate(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "startDate debe tener formato YYYY-MM-DD")
		}
		f.Start = d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := validation.ParseDate(raw)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "endDate debe tener formato YYYY-MM-DD")
		}
		f.End = d
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return f, fiber.NewError(fiber.StatusBadRequest, "endDate no puede ser anterior a startDate")
	}
	f.Search = strings.TrimSpace(c.Query("search"))
	return f, nil
}

// GET /api/reports/financial-ledger?page=1&limit=15&startDate=&endDate=&search=
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		page := database.ParsePage(c.Query("page"), c.Query("limit"), 15)

		res, err := h.svc.List(c.UserContext(), f, page)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/reports/financial-ledger
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		errs := validation.Errors{}
		entryDate, err := validation.ParseDate(body.EntryDate)
		if err != nil {
			errs.Add("entry_date", "La fecha es obligatoria y debe tener formato YYYY-MM-DD")
		}
		body.Concept = strings.TrimSpace(body.Concept)
		if body.Concept == "" {
			errs.Add("concept", "El concepto es obligatorio")
		}
		if body.Income.IsNegative() {
			errs.Add("income", "El ingreso no puede ser negativo")
		}
		if body.Expense.IsNegative() {
			errs.Add("expense", "El egreso no puede ser negativo")
		}
		if !errs.Empty() {
			return errs.Respond(c)
		}

		userID := auth.CurrentUserID(c)
		entry, err := h.svc.CreateManual(c.UserContext(), userID, ManualEntryInput{
			EntryDate: entryDate,
			Concept:   body.Concept,
			Income:    body.Income,
			Expense:   body.Expense,
		})
		switch {
		case errors.Is(err, ErrFutureDate):
			return fiber.NewError(fiber.StatusBadRequest, "La fecha no puede ser futura")
		case errors.Is(err, ErrEmptyAmount):
			return fiber.NewError(fiber.StatusBadRequest, "Debe indicar un ingreso o un egreso")
		case err != nil:
			return err
		}

		kind, amount := "ingreso", entry.Income
		if entry.Income.IsZero() {
			kind, amount = "egreso", entry.Expense
		}
		h.audit.Recordf(c.UserContext(), userID, "Registró un %s manual de %s: %s", kind, amount.StringFixed(2), entry.Concept)

		return c.Status(fiber.StatusCreated).JSON(entry)
	}
}

// GET /api/reports/export/excel
func (h *Handler) ExportExcel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		entries, sum, err := h.svc.All(c.UserContext(), f)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := WriteXLSX(&buf, entries, sum); err != nil {
			return fmt.Errorf("render xlsx: %w", err)
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment(exportName("xlsx"))
		return c.Send(buf.Bytes())
	}
}

// GET /api/reports/export/pdf
func (h *Handler) ExportPDF() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}
		entries, sum, err := h.svc.All(c.UserContext(), f)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := WritePDF(&buf, entries, sum, describePeriod(f)); err != nil {
			return fmt.Errorf("render pdf: %w", err)
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Attachment(exportName("pdf"))
		return c.Send(buf.Bytes())
	}
}

func exportName(ext string) string {
	return fmt.Sprintf("reporte-financiero-%s.%s", time.Now().Format("20060102"), ext)
}

func describePeriod(f Filter) string {
	switch {
	case !f.Start.IsZero() && !f.End.IsZero():
		return fmt.Sprintf("Del %s al %s", f.Start.Format(validation.DateLayout), f.End.Format(validation.DateLayout))
	case !f.Start.IsZero():
		return "Desde " + f.Start.Format(validation.DateLayout)
	case !f.End.IsZero():
		return "Hasta " + f.End.Format(validation.DateLayout)
	}
	return ""
}
