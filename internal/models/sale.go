package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale stores the pre-discount total; the discounted amount lives in the ledger.
type Sale struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	User        *User           `json:"-"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Discount    decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	Details     []SaleDetail    `json:"details,omitempty"`
}

// SaleDetail snapshots price and cost at sale time.
type SaleDetail struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;index" json:"sale_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   *Product        `json:"-"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	UnitCost  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_cost"`
}

// FinalAmount applies the percentage discount to a pre-discount total.
func FinalAmount(total, discount decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return total.Mul(hundred.Sub(discount)).Div(hundred).Round(2)
}
