package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialLedgerEntry is the single journal behind every money report.
// SaleID and LayawayPlanID point at the source record without a foreign key
// so that cancelling a plan never touches recorded income.
type FinancialLedgerEntry struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	EntryDate     time.Time       `gorm:"type:date;not null;index" json:"entry_date"`
	Concept       string          `gorm:"size:255;not null" json:"concept"`
	Income        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"income"`
	Expense       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"expense"`
	SaleID        *uint           `gorm:"index" json:"sale_id,omitempty"`
	LayawayPlanID *uint           `gorm:"index" json:"layaway_plan_id,omitempty"`
	UserID        *uint           `json:"user_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (FinancialLedgerEntry) TableName() string {
	return "financial_ledger"
}
