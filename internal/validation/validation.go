// Package validation holds the request checks shared by the handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const DateLayout = "2006-01-02"

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Errors collects field-level messages. The zero value is ready to use.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(parts, "; ")
}

// Respond writes the 400 body used for field validation failures.
func (e Errors) Respond(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"msg":    "Datos inválidos",
		"errors": e,
	})
}

var validate = newValidator()

// newValidator reports fields by their JSON name so messages and the
// errors map use the names clients send.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Messages maps a failing field to its message. A "field.tag" key wins
// over a plain "field" key.
type Messages map[string]string

func (m Messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m[fe.Field()]; ok {
		return msg
	}
	return fmt.Sprintf("El campo %s no es válido", fe.Field())
}

// Struct runs the validate tags of v. It panics on a non-struct value,
// which is a programming error.
func Struct(v any, msgs Messages) Errors {
	errs := Errors{}
	err := validate.Struct(v)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		panic(err)
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), msgs.lookup(fe))
	}
	return errs
}

func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

// StrongPassword requires 8+ characters with upper, lower, digit and special characters.
func StrongPassword(s string) bool {
	return len(s) >= 8 &&
		upperRe.MatchString(s) &&
		lowerRe.MatchString(s) &&
		digitRe.MatchString(s) &&
		specialRe.MatchString(s)
}

const PasswordPolicyMessage = "La contraseña debe tener al menos 8 caracteres, una mayúscula, una minúscula, un número y un carácter especial"

// ParseDate parses a YYYY-MM-DD value as a calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// Today returns the current calendar date in UTC midnight form.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
