package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"gestionexus-backend/internal/audit"
	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMsg = "Credenciales incorrectas"
	forgotPasswordMsg     = "Si el correo está registrado, recibirá un enlace para restablecer la contraseña"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type UserProfile struct {
	ID                uint            `json:"id"`
	FullName          string          `json:"full_name"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	Role              models.UserRole `json:"role"`
	ProfilePictureURL string          `json:"profile_picture_url"`
}

type SessionResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

func NewUserProfile(u *models.User) UserProfile {
	return UserProfile{
		ID:                u.ID,
		FullName:          u.FullName,
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

type HandlerOptions struct {
	DB            *gorm.DB
	Tokens        *TokenIssuer
	Audit         *audit.Recorder
	Mailer        Mailer
	Log           logrus.FieldLogger
	FrontendURL   string
	ResetTokenTTL time.Duration
}

type Handler struct {
	HandlerOptions
	now func() time.Time
}

func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{HandlerOptions: opts, now: time.Now}
}

// POST /api/auth/login
func (h *Handler) Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		errs := validation.Errors{}
		if !validation.IsEmail(body.Email) {
			errs.Add("email", "El correo no es válido")
		}
		if body.Password == "" {
			errs.Add("password", "La contraseña es obligatoria")
		}
		if !errs.Empty() {
			return errs.Respond(c)
		}

		// Unknown email, inactive account and wrong password share one message.
		var user models.User
		err := h.DB.WithContext(c.UserContext()).Where("email = ?", body.Email).First(&user).Error
		if err != nil {
			if database.IsNotFound(err) {
				return fiber.NewError(fiber.StatusBadRequest, invalidCredentialsMsg)
			}
			return err
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusBadRequest, invalidCredentialsMsg)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, invalidCredentialsMsg)
		}

		token, err := h.Tokens.Generate(&user)
		if err != nil {
			return err
		}

		h.Audit.Record(c.UserContext(), user.ID, "Inició sesión")

		return c.JSON(SessionResponse{Token: token, User: NewUserProfile(&user)})
	}
}

// GET /api/auth/renew
func (h *Handler) Renew() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user models.User
		if err := h.DB.WithContext(c.UserContext()).First(&user, CurrentUserID(c)).Error; err != nil {
			if database.IsNotFound(err) {
				return fiber.NewError(fiber.StatusUnauthorized, "Token no válido")
			}
			return err
		}
		if !user.IsActive {
			return fiber.NewError(fiber.StatusUnauthorized, "Usuario inactivo")
		}

		token, err := h.Tokens.Generate(&user)
		if err != nil {
			return err
		}
		return c.JSON(SessionResponse{Token: token, User: NewUserProfile(&user)})
	}
}

// POST /api/auth/forgot-password
// The response never reveals whether the email is registered.
func (h *Handler) ForgotPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ForgotPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if !validation.IsEmail(body.Email) {
			errs := validation.Errors{}
			errs.Add("email", "El correo no es válido")
			return errs.Respond(c)
		}

		ctx := c.UserContext()
		var user models.User
		err := h.DB.WithContext(ctx).Where("email = ? AND is_active", body.Email).First(&user).Error
		if err != nil {
			if database.IsNotFound(err) {
				return c.JSON(fiber.Map{"msg": forgotPasswordMsg})
			}
			return err
		}

		token, err := newResetToken()
		if err != nil {
			return err
		}
		expires := h.now().Add(h.ResetTokenTTL)
		err = h.DB.WithContext(ctx).Model(&user).Updates(map[string]any{
			"reset_password_token":   token,
			"reset_password_expires": expires,
		}).Error
		if err != nil {
			return err
		}

		link := h.FrontendURL + "/reset-password/" + token
		if err := h.Mailer.SendPasswordReset(ctx, &user, link); err != nil {
			h.Log.WithError(err).WithField("user_id", user.ID).Error("send password reset")
		}

		return c.JSON(fiber.Map{"msg": forgotPasswordMsg})
	}
}

// POST /api/auth/reset-password/:token
func (h *Handler) ResetPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Params("token"))
		if token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Token no válido o expirado")
		}

		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Cuerpo de la petición inválido")
		}
		if !validation.StrongPassword(body.Password) {
			errs := validation.Errors{}
			errs.Add("password", validation.PasswordPolicyMessage)
			return errs.Respond(c)
		}

		ctx := c.UserContext()
		var user models.User
		err := h.DB.WithContext(ctx).
			Where("reset_password_token = ? AND reset_password_expires > ?", token, h.now()).
			First(&user).Error
		if err != nil {
			if database.IsNotFound(err) {
				return fiber.NewError(fiber.StatusBadRequest, "Token no válido o expirado")
			}
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		err = h.DB.WithContext(ctx).Model(&user).Updates(map[string]any{
			"password_hash":          string(hash),
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		}).Error
		if err != nil {
			return err
		}

		h.Audit.Record(ctx, user.ID, "Restableció su contraseña")

		return c.JSON(fiber.Map{"msg": "Contraseña actualizada correctamente"})
	}
}

func newResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
