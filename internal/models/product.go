package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Reference string          `gorm:"size:60;not null;index" json:"reference"`
	Category  string          `gorm:"size:80" json:"category"`
	Size      string          `gorm:"size:30;not null" json:"sizes"`
	Brand     string          `gorm:"size:80;index" json:"brand"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Cost      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cost"`
	IsActive  bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
