// Package metrics computes the business metrics shown on the admin
// metrics page. Request and process metrics live in telemetry.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const rankingLimit = 10

// Range bounds every sub-query. Zero dates are open bounds and End is inclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

// where returns a condition on col plus its arguments, or "TRUE" when unbounded.
func (r Range) where(col string) (string, []any) {
	var conds []string
	var args []any
	if !r.Start.IsZero() {
		conds = append(conds, col+" >= ?")
		args = append(args, r.Start)
	}
	if !r.End.IsZero() {
		conds = append(conds, col+" < ?")
		args = append(args, r.End.AddDate(0, 0, 1))
	}
	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

type DailyIncome struct {
	SaleDate   time.Time       `json:"sale_date"`
	DailyTotal decimal.Decimal `json:"daily_total"`
}

type EmployeeRank struct {
	FullName   string          `json:"full_name"`
	SalesCount int64           `json:"sales_count"`
	TotalSold  decimal.Decimal `json:"total_sold"`
}

type ProductQuantity struct {
	Name              string `json:"name"`
	TotalQuantitySold int64  `json:"total_quantity_sold"`
}

type ProductProfit struct {
	Name        string          `json:"name"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

type StagnantProduct struct {
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Cost  decimal.Decimal `json:"cost"`
	Price decimal.Decimal `json:"price"`
}

// Report keeps the field names the frontend reads. GrossProfit carries
// ledger income minus ledger expense.
type Report struct {
	TotalIncome              decimal.Decimal   `json:"totalIncome"`
	TotalExpense             decimal.Decimal   `json:"totalExpense"`
	GrossProfit              decimal.Decimal   `json:"grossProfit"`
	SalesCount               int64             `json:"salesCount"`
	SalesData                []DailyIncome     `json:"salesData"`
	EmployeeRanking          []EmployeeRank    `json:"employeeRanking"`
	ProductRankingByQuantity []ProductQuantity `json:"productRankingByQuantity"`
	MostProfitableProducts   []ProductProfit   `json:"mostProfitableProducts"`
	StagnantProducts         []StagnantProduct `json:"stagnantProducts"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Compute(ctx context.Context, r Range) (*Report, error) {
	db := s.db.WithContext(ctx)
	out := &Report{
		SalesData:                make([]DailyIncome, 0),
		EmployeeRanking:          make([]EmployeeRank, 0),
		ProductRankingByQuantity: make([]ProductQuantity, 0),
		MostProfitableProducts:   make([]ProductProfit, 0),
		StagnantProducts:         make([]StagnantProduct, 0),
	}

	ledgerCond, ledgerArgs := r.where("entry_date")
	salesCond, salesArgs := r.where("s.created_at")
	rankingArgs := append(append([]any{}, salesArgs...), rankingLimit)

	var totals struct {
		TotalIncome  decimal.Decimal
		TotalExpense decimal.Decimal
	}
	err := db.Raw(`
		SELECT COALESCE(SUM(income), 0) AS total_income, COALESCE(SUM(expense), 0) AS total_expense
		FROM financial_ledger
		WHERE `+ledgerCond, ledgerArgs...).Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("metrics ledger totals: %w", err)
	}
	out.TotalIncome = totals.TotalIncome
	out.TotalExpense = totals.TotalExpense
	out.GrossProfit = totals.TotalIncome.Sub(totals.TotalExpense)

	err = db.Raw(`SELECT COUNT(*) FROM sales s WHERE `+salesCond, salesArgs...).Scan(&out.SalesCount).Error
	if err != nil {
		return nil, fmt.Errorf("metrics sales count: %w", err)
	}

	err = db.Raw(`
		SELECT entry_date AS sale_date, SUM(income) AS daily_total
		FROM financial_ledger
		WHERE `+ledgerCond+`
		GROUP BY entry_date
		ORDER BY entry_date ASC`, ledgerArgs...).Scan(&out.SalesData).Error
	if err != nil {
		return nil, fmt.Errorf("metrics daily income: %w", err)
	}

	err = db.Raw(`
		SELECT u.full_name, COUNT(s.id) AS sales_count,
			SUM(ROUND(s.total_amount * (100 - s.discount) / 100, 2)) AS total_sold
		FROM sales s
		JOIN users u ON u.id = s.user_id
		WHERE `+salesCond+`
		GROUP BY u.id, u.full_name
		ORDER BY total_sold DESC`, salesArgs...).Scan(&out.EmployeeRanking).Error
	if err != nil {
		return nil, fmt.Errorf("metrics employee ranking: %w", err)
	}

	err = db.Raw(`
		SELECT p.name, SUM(sd.quantity) AS total_quantity_sold
		FROM sale_details sd
		JOIN sales s ON s.id = sd.sale_id
		JOIN products p ON p.id = sd.product_id
		WHERE `+salesCond+`
		GROUP BY p.id, p.name
		ORDER BY total_quantity_sold DESC
		LIMIT ?`, rankingArgs...).Scan(&out.ProductRankingByQuantity).Error
	if err != nil {
		return nil, fmt.Errorf("metrics product ranking: %w", err)
	}

	err = db.Raw(`
		SELECT p.name, SUM((sd.unit_price - sd.unit_cost) * sd.quantity) AS total_profit
		FROM sale_details sd
		JOIN sales s ON s.id = sd.sale_id
		JOIN products p ON p.id = sd.product_id
		WHERE `+salesCond+`
		GROUP BY p.id, p.name
		HAVING SUM((sd.unit_price - sd.unit_cost) * sd.quantity) > 0
		ORDER BY total_profit DESC
		LIMIT ?`, rankingArgs...).Scan(&out.MostProfitableProducts).Error
	if err != nil {
		return nil, fmt.Errorf("metrics profitable products: %w", err)
	}

	err = db.Raw(`
		SELECT p.name, p.quantity AS stock, p.cost, p.price
		FROM products p
		WHERE p.is_active AND NOT EXISTS (
			SELECT 1 FROM sale_details sd
			JOIN sales s ON s.id = sd.sale_id
			WHERE sd.product_id = p.id AND `+salesCond+`
		)
		ORDER BY p.name ASC`, salesArgs...).Scan(&out.StagnantProducts).Error
	if err != nil {
		return nil, fmt.Errorf("metrics stagnant products: %w", err)
	}

	return out, nil
}
