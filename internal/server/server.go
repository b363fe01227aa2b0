// Package server builds the fiber application shared by the binary and
// the handler tests.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// NewApp returns a fiber app with the JSON error contract installed.
func NewApp(log logrus.FieldLogger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "gestionexus-backend",
		ErrorHandler: ErrorHandler(log),
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
}

// ErrorHandler renders *fiber.Error as {"msg": ...}. Anything else is
// logged with its cause and answered with a generic 500.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"msg": fe.Message})
		}

		log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.Locals("requestid"),
			"method":     c.Method(),
			"path":       c.Path(),
		}).Error("unexpected error")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"msg": "Error inesperado, hable con el administrador",
		})
	}
}
