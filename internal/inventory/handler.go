package inventory

import (
	"errors"
	"strconv"
	"strings"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const duplicateImportMsg = "El archivo contiene una o más referencias de producto que ya existen."

type BulkImportRequest struct {
	Products []ImportRow `json:"products"`
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
		return 0, fiber.NewError(fiber.StatusBadRequest, "ID de producto inválido")
	}
	return uint(id), nil
}

func productError(err error) error {
	var dup *DuplicateError
	switch {
	case errors.As(err, &dup):
		return fiber.NewError(fiber.StatusBadRequest, "Ya existe un producto activo con la misma referencia y talla")
	case errors.Is(err, ErrProductNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
	}
	return err
}

// bindProduct decodes and checks a product body. A quantity that is not
// an integer is reported as a field error rather than a malformed body.
func bindProduct(c *fiber.Ctx) (ProductInput, validation.Errors, error) {
	var body ProductInput
	if err := c.BodyParser(&body); err != nil {
		if errors.Is(err, ErrInvalidCount) {
			return body, validation.Errors{"quantity": quantityMsg}, nil
		}
		return body, nil, fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
	}
	body.Normalize()
	return body, body.Validate(), nil
}

// GET /api/products?search=&page=1&limit=15
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := database.ParsePage(c.Query("page"), c.Query("limit"), 15)
		res, err := h.svc.List(c.UserContext(), c.Query("search"), page)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/products/brands
func (h *Handler) Brands() fiber.Handler {
	return func(c *fiber.Ctx) error {
		brands, err := h.svc.Brands(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(brands)
	}
}

// GET /api/products/:id
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		p, err := h.svc.Get(c.UserContext(), id)
		if err != nil {
			return productError(err)
		}
		return c.JSON(p)
	}
}

// GET /api/products/reference/:ref
func (h *Handler) ByReference() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := strings.TrimSpace(c.Params("ref"))
		products, err := h.svc.ByReference(c.UserContext(), ref)
		if err != nil {
			return productError(err)
		}
		return c.JSON(products)
	}
}

// POST /api/products (admin)
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, errs, err := bindProduct(c)
		if err != nil {
			return err
		}
		if !errs.Empty() {
			return errs.Respond(c)
		}

		p, outcome, err := h.svc.Create(c.UserContext(), body)
		if err != nil {
			return productError(err)
		}

		userID := auth.CurrentUserID(c)
		if outcome == Reactivated {
			h.audit.Recordf(c.UserContext(), userID, "Reactivó el producto: %s (Ref: %s)", p.Name, p.Reference)
			return c.JSON(p)
		}
		h.audit.Recordf(c.UserContext(), userID, "Creó el producto: %s (Ref: %s)", p.Name, p.Reference)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// PUT /api/products/:id (admin)
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		body, errs, err := bindProduct(c)
		if err != nil {
			return err
		}
		if !errs.Empty() {
			return errs.Respond(c)
		}

		p, err := h.svc.Update(c.UserContext(), id, body)
		if err != nil {
			return productError(err)
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Actualizó el producto: %s (ID: %d)", p.Name, p.ID)
		return c.JSON(p)
	}
}

// DELETE /api/products/:id (admin)
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		p, err := h.svc.Deactivate(c.UserContext(), id)
		if err != nil {
			return productError(err)
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Desactivó el producto: %s (ID: %d)", p.Name, p.ID)
		return c.JSON(fiber.Map{"msg": "Producto desactivado correctamente"})
	}
}

// POST /api/products/bulk-import (admin)
func (h *Handler) BulkImport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BulkImportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		return h.importRows(c, body.Products, "un archivo Excel")
	}
}

// POST /api/products/bulk-import/xlsx (admin, multipart field "file")
func (h *Handler) BulkImportWorkbook() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Debe adjuntar un archivo")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Solo se permiten archivos .xlsx")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		rows, err := ParseWorkbook(file)
		if errors.Is(err, ErrMissingColumns) {
			return fiber.NewError(fiber.StatusBadRequest,
				"El archivo debe tener exactamente las siguientes columnas: "+strings.Join(ImportColumns, ", "))
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No se pudo procesar el archivo Excel. Verifique el formato.")
		}
		return h.importRows(c, rows, fileHeader.Filename)
	}
}

func (h *Handler) importRows(c *fiber.Ctx, rows []ImportRow, source string) error {
	if len(rows) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No se proporcionaron productos válidos para importar.")
	}

	inputs, err := ToInputs(rows)
	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			return fiber.NewError(fiber.StatusBadRequest, rowErr.Error())
		}
		return err
	}

	res, err := h.svc.BulkImport(c.UserContext(), inputs)
	if errors.Is(err, ErrDuplicateProduct) {
		return fiber.NewError(fiber.StatusBadRequest, duplicateImportMsg)
	}
	if err != nil {
		return err
	}

	h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Importó masivamente %d productos desde %s.", len(inputs), source)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":         strconv.Itoa(len(inputs)) + " productos han sido importados exitosamente.",
		"created":     res.Created,
		"reactivated": res.Reactivated,
	})
}
