package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	topProductsLimit = 5
	recentSalesLimit = 5
)

type TopProduct struct {
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	TotalSold int64  `json:"totalSold"`
}

// RecentSale is one sale line, not a whole sale.
type RecentSale struct {
	ProductName string          `json:"productName"`
	CreatedAt   time.Time       `json:"created_at"`
	SaleTotal   decimal.Decimal `json:"saleTotal"`
}

type Stats struct {
	UserCount    int64        `json:"userCount"`
	ProductCount int64        `json:"productCount"`
	SalesCount   int64        `json:"salesCount"`
	TopProducts  []TopProduct `json:"topProducts"`
	RecentSales  []RecentSale `json:"recentSales"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	out := &Stats{
		TopProducts: make([]TopProduct, 0),
		RecentSales: make([]RecentSale, 0),
	}

	var counts struct {
		UserCount    int64
		ProductCount int64
		SalesCount   int64
	}
	err := db.Raw(`
		SELECT
			(SELECT COUNT(*) FROM users WHERE is_active) AS user_count,
			(SELECT COUNT(*) FROM products WHERE is_active) AS product_count,
			(SELECT COUNT(*) FROM sales) AS sales_count
	`).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	out.UserCount = counts.UserCount
	out.ProductCount = counts.ProductCount
	out.SalesCount = counts.SalesCount

	err = db.Raw(`
		SELECT p.name, p.quantity AS stock, SUM(sd.quantity) AS total_sold
		FROM sale_details sd
		JOIN products p ON p.id = sd.product_id
		GROUP BY p.id, p.name, p.quantity
		ORDER BY total_sold DESC, p.name ASC
		LIMIT ?
	`, topProductsLimit).Scan(&out.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard top products: %w", err)
	}

	err = db.Raw(`
		SELECT p.name AS product_name, s.created_at, sd.quantity * sd.unit_price AS sale_total
		FROM sale_details sd
		JOIN sales s ON s.id = sd.sale_id
		JOIN products p ON p.id = sd.product_id
		ORDER BY s.created_at DESC, sd.id DESC
		LIMIT ?
	`, recentSalesLimit).Scan(&out.RecentSales).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard recent sales: %w", err)
	}

	return out, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/dashboard
func (h *Handler) Stats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := h.svc.Stats(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}
