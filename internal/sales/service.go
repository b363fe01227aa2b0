package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/financial"
	"gestionexus-backend/internal/inventory"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrSaleNotFound  = errors.New("sale not found")
	ErrTotalMismatch = errors.New("total amount does not match line items")
)

type LineItem struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CreateSaleRequest struct {
	// TotalAmount is optional; when present it must equal the sum of the lines.
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Discount    decimal.Decimal  `json:"discount"`
	Products    []LineItem       `json:"products"`
}

func (r CreateSaleRequest) Validate() validation.Errors {
	errs := validation.Errors{}
	if len(r.Products) == 0 {
		errs.Add("products", "La lista de productos no puede estar vacía")
	}
	for i, it := range r.Products {
		if it.ProductID == 0 {
			errs.Add(fmt.Sprintf("products[%d].product_id", i), "El ID del producto es obligatorio")
		}
		if it.Quantity <= 0 {
			errs.Add(fmt.Sprintf("products[%d].quantity", i), "La cantidad del producto debe ser un entero positivo")
		}
		if it.UnitPrice.IsNegative() {
			errs.Add(fmt.Sprintf("products[%d].unit_price", i), "El precio unitario no puede ser negativo")
		}
	}
	if r.Discount.IsNegative() || r.Discount.GreaterThan(decimal.NewFromInt(100)) {
		errs.Add("discount", "El descuento debe estar entre 0 y 100")
	}
	return errs
}

// Subtotal is the pre-discount sum of quantity times unit price.
func (r CreateSaleRequest) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Products {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type Result struct {
	Sale        *models.Sale    `json:"sale"`
	FinalAmount decimal.Decimal `json:"final_amount"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Create registers a sale. Every product is row-locked and checked, cost is
// snapshotted into each line, stock is decremented and the discounted total
// is booked as income, all in one transaction.
func (s *Service) Create(ctx context.Context, sellerID uint, req CreateSaleRequest) (*Result, error) {
	total := req.Subtotal()
	if req.TotalAmount != nil && !req.TotalAmount.Round(2).Equal(total.Round(2)) {
		return nil, ErrTotalMismatch
	}

	sale := &models.Sale{
		UserID:      sellerID,
		TotalAmount: total,
		Discount:    req.Discount,
	}
	final := models.FinalAmount(total, req.Discount)

	stock := make([]inventory.StockRequest, 0, len(req.Products))
	for _, it := range req.Products {
		stock = append(stock, inventory.StockRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := inventory.LockForSale(tx, stock)
		if err != nil {
			return err
		}

		if err := tx.Omit("Details", "User").Create(sale).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		details := make([]models.SaleDetail, 0, len(req.Products))
		for _, it := range req.Products {
			details = append(details, models.SaleDetail{
				SaleID:    sale.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				UnitCost:  locked[it.ProductID].Cost,
			})
		}
		if err := tx.Omit("Product").Create(&details).Error; err != nil {
			return fmt.Errorf("insert sale details: %w", err)
		}
		sale.Details = details

		for _, it := range req.Products {
			if err := inventory.Decrement(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		saleID, uid := sale.ID, sellerID
		_, err = financial.Record(tx, financial.Entry{
			Date:    s.now(),
			Concept: fmt.Sprintf("Venta #%d", sale.ID),
			Income:  final,
			SaleID:  &saleID,
			UserID:  &uid,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{Sale: sale, FinalAmount: final}, nil
}

type Filter struct {
	UserID uint
	Start  time.Time
	End    time.Time
}

type Summary struct {
	ID          uint            `json:"id"`
	UserID      uint            `json:"user_id"`
	UserName    string          `json:"user_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Discount    decimal.Decimal `json:"discount"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ListResult struct {
	Sales       []Summary `json:"sales"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}

func (s *Service) List(ctx context.Context, f Filter, page database.Page) (*ListResult, error) {
	q := s.db.WithContext(ctx).Table("sales AS s").Joins("JOIN users u ON u.id = s.user_id")
	if f.UserID != 0 {
		q = q.Where("s.user_id = ?", f.UserID)
	}
	if !f.Start.IsZero() {
		q = q.Where("s.created_at >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("s.created_at < ?", f.End.AddDate(0, 0, 1))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count sales: %w", err)
	}

	rows := make([]Summary, 0)
	err := q.Select(`s.id, s.user_id, u.full_name AS user_name, s.total_amount, s.discount, s.created_at,
			COALESCE((SELECT SUM(d.quantity * d.unit_cost) FROM sale_details d WHERE d.sale_id = s.id), 0) AS total_cost`).
		Order("s.created_at DESC, s.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	for i := range rows {
		rows[i].FinalAmount = models.FinalAmount(rows[i].TotalAmount, rows[i].Discount)
	}

	return &ListResult{Sales: rows, TotalPages: page.TotalPages(total), CurrentPage: page.Number}, nil
}

type DetailLine struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSize string          `json:"product_size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type Detail struct {
	Summary
	Details []DetailLine `json:"details"`
}

func (s *Service) Get(ctx context.Context, id uint) (*Detail, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).Preload("User").Preload("Details.Product").First(&sale, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}

	out := &Detail{
		Summary: Summary{
			ID:          sale.ID,
			UserID:      sale.UserID,
			TotalAmount: sale.TotalAmount,
			Discount:    sale.Discount,
			FinalAmount: models.FinalAmount(sale.TotalAmount, sale.Discount),
			CreatedAt:   sale.CreatedAt,
		},
		Details: make([]DetailLine, 0, len(sale.Details)),
	}
	if sale.User != nil {
		out.UserName = sale.User.FullName
	}
	for _, d := range sale.Details {
		line := DetailLine{
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			UnitCost:  d.UnitCost,
		}
		if d.Product != nil {
			line.ProductName = d.Product.Name
			line.ProductSize = d.Product.Size
		}
		out.TotalCost = out.TotalCost.Add(d.UnitCost.Mul(decimal.NewFromInt(int64(d.Quantity))))
		out.Details = append(out.Details, line)
	}
	return out, nil
}
