package users

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
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const duplicateUserMsg = "El correo o nombre de usuario ya existe"

var ErrDuplicateUser = errors.New("email or username already registered")

type CreateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Username string          `json:"username" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role" validate:"oneof=admin normal"`
}

// UpdateUserRequest leaves the password unchanged when it is blank.
// Role is checked by Validate since it only applies when editing someone else.
type UpdateUserRequest struct {
	FullName string          `json:"full_name" validate:"required"`
	Username string          `json:"username" validate:"required"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

var userMessages = validation.Messages{
	"full_name": "El nombre completo es obligatorio",
	"username":  "El nombre de usuario es obligatorio",
	"email":     "El correo no es válido",
	"role":      "El rol debe ser admin o normal",
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func normalizeIdentity(fullName, username, email *string) {
	*fullName = strings.TrimSpace(*fullName)
	*username = strings.TrimSpace(*username)
	*email = strings.ToLower(strings.TrimSpace(*email))
}

func (r *CreateUserRequest) Normalize() {
	normalizeIdentity(&r.FullName, &r.Username, &r.Email)
}

func (r CreateUserRequest) Validate() validation.Errors {
	errs := validation.Struct(r, userMessages)
	if !validation.StrongPassword(r.Password) {
		errs.Add("password", validation.PasswordPolicyMessage)
	}
	return errs
}

func (r *UpdateUserRequest) Normalize() {
	normalizeIdentity(&r.FullName, &r.Username, &r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// Validate checks the payload. Role is only required when editing someone else.
func (r UpdateUserRequest) Validate(self bool) validation.Errors {
	errs := validation.Struct(r, userMessages)
	if !self && !r.Role.Valid() {
		errs.Add("role", "El rol debe ser admin o normal")
	}
	if r.Password != "" && !validation.StrongPassword(r.Password) {
		errs.Add("password", validation.PasswordPolicyMessage)
	}
	return errs
}

type Handler struct {
	db     *gorm.DB
	audit  *audit.Recorder
	photos *PhotoStore
	log    logrus.FieldLogger
}

func NewHandler(db *gorm.DB, rec *audit.Recorder, photos *PhotoStore, log logrus.FieldLogger) *Handler {
	return &Handler{db: db, audit: rec, photos: photos, log: log}
}

func translate(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func userError(err error) error {
	if errors.Is(err, ErrDuplicateUser) {
		return fiber.NewError(fiber.StatusBadRequest, duplicateUserMsg)
	}
	return err
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "ID de usuario inválido")
	}
	return uint(id), nil
}

func (h *Handler) load(c *fiber.Ctx, id uint) (*models.User, error) {
	var u models.User
	if err := h.db.WithContext(c.UserContext()).First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Usuario no encontrado")
		}
		return nil, err
	}
	return &u, nil
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GET /api/users?search=
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := h.db.WithContext(c.UserContext()).Model(&models.User{})
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + search + "%"
			q = q.Where("full_name ILIKE ? OR username ILIKE ? OR email ILIKE ?", like, like, like)
		}

		users := make([]models.User, 0)
		if err := q.Order("full_name ASC").Find(&users).Error; err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// POST /api/users
func (h *Handler) Create() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		body.Normalize()
		if errs := body.Validate(); !errs.Empty() {
			return errs.Respond(c)
		}

		hash, err := hashPassword(body.Password)
		if err != nil {
			return err
		}
		u := models.User{
			FullName:     body.FullName,
			Username:     body.Username,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			IsActive:     true,
		}
		if err := h.db.WithContext(c.UserContext()).Create(&u).Error; err != nil {
			return userError(translate(err))
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Creó el usuario '%s' (ID: %d)", u.FullName, u.ID)
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// PUT /api/users/:id
// Editing yourself never changes your own role.
func (h *Handler) Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		self := id == auth.CurrentUserID(c)

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		body.Normalize()
		if errs := body.Validate(self); !errs.Empty() {
			return errs.Respond(c)
		}

		u, err := h.load(c, id)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"full_name": body.FullName,
			"username":  body.Username,
			"email":     body.Email,
		}
		if !self {
			updates["role"] = body.Role
		}
		if body.Password != "" {
			hash, err := hashPassword(body.Password)
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
		}

		if err := h.db.WithContext(c.UserContext()).Model(u).Updates(updates).Error; err != nil {
			return userError(translate(err))
		}

		h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "Actualizó al usuario con ID: %d", u.ID)
		return c.JSON(u)
	}
}

func (h *Handler) setActive(c *fiber.Ctx, active bool) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if !active && id == auth.CurrentUserID(c) {
		return fiber.NewError(fiber.StatusBadRequest, "Acción no permitida: no puedes desactivarte a ti mismo")
	}

	u, err := h.load(c, id)
	if err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Model(u).Update("is_active", active).Error; err != nil {
		return err
	}

	verb := "Desactivó"
	if active {
		verb = "Activó"
	}
	h.audit.Recordf(c.UserContext(), auth.CurrentUserID(c), "%s al usuario con ID: %d", verb, u.ID)
	return c.JSON(u)
}

// DELETE /api/users/:id (soft)
func (h *Handler) Deactivate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.setActive(c, false)
	}
}

// PUT /api/users/activate/:id
func (h *Handler) Activate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.setActive(c, true)
	}
}

// PUT /api/users/update-password
func (h *Handler) UpdatePassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdatePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if body.OldPassword == "" {
			return fiber.NewError(fiber.StatusBadRequest, "La contraseña actual es obligatoria")
		}
		if !validation.StrongPassword(body.NewPassword) {
			errs := validation.Errors{}
			errs.Add("newPassword", validation.PasswordPolicyMessage)
			return errs.Respond(c)
		}

		u, err := h.load(c, auth.CurrentUserID(c))
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.OldPassword)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "La contraseña actual es incorrecta")
		}

		hash, err := hashPassword(body.NewPassword)
		if err != nil {
			return err
		}
		if err := h.db.WithContext(c.UserContext()).Model(u).Update("password_hash", hash).Error; err != nil {
			return err
		}

		h.audit.Record(c.UserContext(), u.ID, "Actualizó su propia contraseña")
		return c.JSON(fiber.Map{"msg": "Contraseña actualizada exitosamente"})
	}
}

// POST /api/users/upload-photo (multipart field profile_photo)
func (h *Handler) UploadPhoto() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("profile_photo")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "No se ha subido ningún archivo")
		}
		if fh.Size > MaxPhotoSize {
			return fiber.NewError(fiber.StatusBadRequest, "La imagen no puede superar los 5 MB")
		}

		u, err := h.load(c, auth.CurrentUserID(c))
		if err != nil {
			return err
		}

		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		url, err := h.photos.Save(f)
		switch {
		case errors.Is(err, ErrUnsupportedImage):
			return fiber.NewError(fiber.StatusBadRequest, "Solo se permiten imágenes JPEG o PNG")
		case errors.Is(err, ErrImageTooLarge):
			return fiber.NewError(fiber.StatusBadRequest, "La imagen no puede superar los 5 MB")
		case err != nil:
			return err
		}

		previous := u.ProfilePictureURL
		if err := h.db.WithContext(c.UserContext()).Model(u).Update("profile_picture_url", url).Error; err != nil {
			_ = h.photos.Remove(url)
			return err
		}
		if err := h.photos.Remove(previous); err != nil {
			h.log.WithError(err).WithField("user_id", u.ID).Warn("old profile photo not removed")
		}

		h.audit.Record(c.UserContext(), u.ID, "Actualizó su foto de perfil")
		return c.JSON(fiber.Map{
			"msg":               "Foto de perfil actualizada exitosamente",
			"profilePictureUrl": url,
		})
	}
}
