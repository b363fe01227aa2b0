package audit

import (
	"strconv"
	"time"

	"gestionexus-backend/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LogResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	FullName  string    `json:"full_name"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	Logs        []LogResponse `json:"logs"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

type Handler struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewHandler(db *gorm.DB, log logrus.FieldLogger) *Handler {
	return &Handler{db: db, log: log}
}

// GET /api/logs?page=1&limit=20&search=&month=5&year=2024 (admin)
func (h *Handler) List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := database.ParsePage(c.Query("page"), c.Query("limit"), 20)

		q := h.db.WithContext(c.UserContext()).
			Table("audit_logs AS l").
			Joins("JOIN users u ON u.id = l.user_id")

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("u.full_name ILIKE ? OR l.action ILIKE ?", like, like)
		}
		if month, err := strconv.Atoi(c.Query("month")); err == nil && month >= 1 && month <= 12 {
			q = q.Where("EXTRACT(MONTH FROM l.created_at) = ?", month)
		}
		if year, err := strconv.Atoi(c.Query("year")); err == nil && year > 0 {
			q = q.Where("EXTRACT(YEAR FROM l.created_at) = ?", year)
		}

		q = q.Session(&gorm.Session{})

		var total int64
		if err := q.Count(&total).Error; err != nil {
			h.log.WithError(err).Error("count audit logs")
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los registros")
		}

		logs := make([]LogResponse, 0)
		err := q.Select("l.id, l.user_id, u.full_name, l.action, l.created_at").
			Order("l.created_at DESC").
			Offset(page.Offset()).
			Limit(page.Limit).
			Scan(&logs).Error
		if err != nil {
			h.log.WithError(err).Error("list audit logs")
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los registros")
		}

		return c.JSON(ListResponse{
			Logs:        logs,
			TotalPages:  page.TotalPages(total),
			CurrentPage: page.Number,
		})
	}
}
