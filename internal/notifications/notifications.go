// Package notifications derives alerts from current inventory and layaway
// state. Nothing is persisted; every read recomputes the list.
package notifications

import (
	"context"
	"fmt"
	"time"

	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"gorm.io/gorm"
)

const (
	LowStockThreshold = 3
	DueSoonDays       = 3
)

type Type string

const (
	TypeStockAlert  Type = "stock_alert"
	TypePaymentDue  Type = "payment_due"
	TypePaymentSoon Type = "payment_soon"
)

type Notification struct {
	ID      string `json:"id"`
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func formatDay(t time.Time) string {
	return fmt.Sprintf("%d de %s", t.Day(), monthNames[t.Month()-1])
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// List returns low stock alerts first, then overdue plans, then plans due soon.
func (s *Service) List(ctx context.Context) ([]Notification, error) {
	db := s.db.WithContext(ctx)
	today := validation.Today(s.now())
	out := make([]Notification, 0)

	var products []models.Product
	err := db.Select("id", "name", "quantity").
		Where("is_active AND quantity < ?", LowStockThreshold).
		Order("quantity ASC, name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	for _, p := range products {
		out = append(out, Notification{
			ID:      fmt.Sprintf("stock-%d", p.ID),
			Type:    TypeStockAlert,
			Message: fmt.Sprintf("Reponer stock de '%s', quedan solo %d unidades.", p.Name, p.Quantity),
		})
	}

	var overdue []models.LayawayPlan
	err = db.Select("id", "customer_name", "deadline").
		Where("status = ? AND deadline < ?", models.LayawayActive, today).
		Order("deadline ASC, id ASC").
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("overdue layaway plans: %w", err)
	}
	for _, p := range overdue {
		out = append(out, Notification{
			ID:      fmt.Sprintf("overdue-%d", p.ID),
			Type:    TypePaymentDue,
			Message: fmt.Sprintf("¡El plan separe del cliente %s está VENCIDO!", p.CustomerName),
		})
	}

	var dueSoon []models.LayawayPlan
	err = db.Select("id", "customer_name", "deadline").
		Where("status = ? AND deadline BETWEEN ? AND ?", models.LayawayActive, today, today.AddDate(0, 0, DueSoonDays)).
		Order("deadline ASC, id ASC").
		Find(&dueSoon).Error
	if err != nil {
		return nil, fmt.Errorf("layaway plans due soon: %w", err)
	}
	for _, p := range dueSoon {
		out = append(out, Notification{
			ID:      fmt.Sprintf("duesoon-%d", p.ID),
			Type:    TypePaymentSoon,
			Message: fmt.Sprintf("El plazo de %s vence pronto (%s).", p.CustomerName, formatDay(p.Deadline)),
		})
	}

	return out, nil
}
