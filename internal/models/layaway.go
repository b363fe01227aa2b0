package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LayawayStatus string

const (
	LayawayActive    LayawayStatus = "active"
	LayawayCompleted LayawayStatus = "completed"
	// LayawayOverdue is never stored; it is derived from the deadline on read.
	LayawayOverdue LayawayStatus = "overdue"
)

type LayawayPlan struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	CustomerName    string              `gorm:"size:150;not null" json:"customer_name"`
	CustomerContact string              `gorm:"size:60" json:"customer_contact"`
	CustomerIDDoc   string              `gorm:"size:40;index" json:"customer_id_doc"`
	TotalValue      decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"total_value"`
	DownPayment     decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"down_payment"`
	BalanceDue      decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"balance_due"`
	Deadline        time.Time           `gorm:"type:date;not null;index" json:"deadline"`
	Status          LayawayStatus       `gorm:"size:20;not null;index" json:"status"`
	UserID          uint                `gorm:"not null" json:"user_id"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Details         []LayawayPlanDetail `json:"details,omitempty"`
}

// LayawayPlanDetail is a stock reservation held against a plan.
type LayawayPlanDetail struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	LayawayPlanID uint     `gorm:"not null;index" json:"layaway_plan_id"`
	ProductID     uint     `gorm:"not null;index" json:"product_id"`
	Product       *Product `json:"-"`
	Quantity      int      `gorm:"not null" json:"quantity"`
}

// EffectiveStatus reports overdue for active plans whose deadline is before today.
func (p LayawayPlan) EffectiveStatus(today time.Time) LayawayStatus {
	if p.Status != LayawayActive {
		return p.Status
	}
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	py, pm, pd := p.Deadline.Date()
	if time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC).Before(start) {
		return LayawayOverdue
	}
	return LayawayActive
}

// ApplyPayment adds amount to the collected total and recomputes the balance.
func (p *LayawayPlan) ApplyPayment(amount decimal.Decimal) {
	p.DownPayment = p.DownPayment.Add(amount)
	p.RecomputeBalance()
}

// RecomputeBalance keeps balance_due = total - down_payment, clamped at zero.
func (p *LayawayPlan) RecomputeBalance() {
	p.BalanceDue = p.TotalValue.Sub(p.DownPayment)
	if !p.BalanceDue.IsPositive() {
		p.BalanceDue = decimal.Zero
		p.Status = LayawayCompleted
	} else if p.Status == "" {
		p.Status = LayawayActive
	}
}
