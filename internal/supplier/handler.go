package supplier

import (
	"errors"
	"strconv"
	"strings"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/auth"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const duplicateNITMsg = "Ya existe un proveedor con ese NIT"

var ErrDuplicateNIT = errors.New("supplier nit already registered")

func translate(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrDuplicateNIT
	}
	return err
}

func supplierError(err error) error {
	if errors.Is(err, ErrDuplicateNIT) {
		return fiber.NewError(fiber.StatusBadRequest, duplicateNITMsg)
	}
	return err
}

type SupplierRequest struct {
	CompanyName   string `json:"company_name" validate:"required"`
	ContactPerson string `json:"contact_person"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email" validate:"required,email"`
	Address       string `json:"address"`
	NIT           string `json:"nit" validate:"required,number"`
}

var supplierMessages = validation.Messages{
	"company_name":   "El nombre de la empresa es obligatorio",
	"nit.required":   "El NIT es obligatorio",
	"nit":            "El NIT debe contener solo números, sin espacios ni guiones",
	"email.required": "El correo es obligatorio",
	"email":          "El correo no es válido",
}

func (r *SupplierRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.ContactPerson = strings.TrimSpace(r.ContactPerson)
	r.ContactNumber = strings.TrimSpace(r.ContactNumber)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Address = strings.TrimSpace(r.Address)
	r.NIT = strings.TrimSpace(r.NIT)
}

func (r SupplierRequest) Validate() validation.Errors {
	return validation.Struct(r, supplierMessages)
}

func (r SupplierRequest) applyTo(s *models.Supplier) {
	s.CompanyName = r.CompanyName
	s.ContactPerson = r.ContactPerson
	s.ContactNumber = r.ContactNumber
	s.Email = r.Email
	s.Address = r.Address
	s.NIT = r.NIT
}

type Handler struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewHandler(db *gorm.DB, rec *audit.Recorder) *Handler {
	return &Handler{db: db, audit: rec}
}

func (h *Handler) find(c *fiber.Ctx) (*models.Supplier, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "ID de proveedor inválido")
	}
	var s models.Supplier
	if err := h.db.WithContext(c.UserContext()).First(&s, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Proveedor no encontrado")
		}
		return nil, err
	}
	return &s, nil
}

// GET /api/suppliers?search=
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := h.db.WithContext(c.UserContext()).Model(&models.Supplier{})
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + search + "%"
			q = q.Where("company_name ILIKE ? OR nit ILIKE ? OR contact_person ILIKE ?", like, like, like)
		}

		suppliers := make([]models.Supplier, 0)
		if err := q.Order("company_name ASC").Find(&suppliers).Error; err != nil {
			return err
		}
		return c.JSON(suppliers)
	}
}

// GET /api/suppliers/:id
func (h *Handler) Get() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := h.find(c)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// POST /api/suppliers
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		body.Normalize()
		if errs := body.Validate(); !errs.Empty() {
			return errs.Respond(c)
		}

		var s models.Supplier
		body.applyTo(&s)
		if err := h.db.WithContext(c.UserContext()).Create(&s).Error; err != nil {
			return supplierError(translate(err))
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Creó el proveedor: %s", s.CompanyName)
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// PUT /api/suppliers/:id
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := h.find(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		body.Normalize()
		if errs := body.Validate(); !errs.Empty() {
			return errs.Respond(c)
		}

		body.applyTo(s)
		if err := h.db.WithContext(c.UserContext()).Save(s).Error; err != nil {
			return supplierError(translate(err))
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Actualizó el proveedor: %s (ID: %d)", s.CompanyName, s.ID)
		return c.JSON(s)
	}
}

// DELETE /api/suppliers/:id
func (h *Handler) Delete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := h.find(c)
		if err != nil {
			return err
		}
		if err := h.db.WithContext(c.UserContext()).Delete(s).Error; err != nil {
			return err
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Eliminó el proveedor: %s (ID: %d)", s.CompanyName, s.ID)
		return c.JSON(fiber.Map{"msg": "Proveedor eliminado correctamente"})
	}
}
