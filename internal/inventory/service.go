package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name      string          `json:"name" validate:"required"`
	Reference string          `json:"reference" validate:"required"`
	Category  string          `json:"category"`
	Size      string          `json:"sizes"`
	Brand     string          `json:"brand"`
	Quantity  Count           `json:"quantity" validate:"gte=0"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
}

const quantityMsg = "La cantidad debe ser un número entero igual o mayor a 0"

var productMessages = validation.Messages{
	"name":      "El nombre del producto es obligatorio",
	"reference": "La referencia es obligatoria",
	"quantity":  quantityMsg,
}

func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Reference = strings.TrimSpace(in.Reference)
	in.Category = strings.TrimSpace(in.Category)
	in.Size = strings.TrimSpace(in.Size)
	in.Brand = strings.TrimSpace(in.Brand)
}

func (in ProductInput) Validate() validation.Errors {
	errs := validation.Struct(in, productMessages)
	if in.Price.IsNegative() {
		errs.Add("price", "El precio debe ser un número igual o mayor a 0")
	}
	if in.Cost.IsNegative() {
		errs.Add("cost", "El costo debe ser un número igual o mayor a 0")
	}
	return errs
}

func (in ProductInput) applyTo(p *models.Product) {
	p.Name = in.Name
	p.Reference = in.Reference
	p.Category = in.Category
	p.Size = in.Size
	p.Brand = in.Brand
	p.Quantity = int(in.Quantity)
	p.Price = in.Price
	p.Cost = in.Cost
}

type ListResult struct {
	Products    []models.Product `json:"products"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

// CreateOutcome tells whether Create inserted a row or revived a soft-deleted one.
type CreateOutcome int

const (
	Created CreateOutcome = iota
	Reactivated
)

type ImportResult struct {
	Created     int `json:"created"`
	Reactivated int `json:"reactivated"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List(ctx context.Context, search string, page database.Page) (*ListResult, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active")
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		q = q.Where("name ILIKE ? OR reference ILIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	products := make([]models.Product, 0)
	if err := q.Order("name ASC, id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &ListResult{
		Products:    products,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Number,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// ByReference returns the active size variants sharing a reference code.
func (s *Service) ByReference(ctx context.Context, reference string) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := s.db.WithContext(ctx).
		Where("reference = ? AND is_active", reference).
		Order("size ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("products by reference: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return products, nil
}

func (s *Service) Brands(ctx context.Context) ([]string, error) {
	brands := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active AND brand IS NOT NULL AND brand <> ''").
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// Create inserts a product, or reactivates an inactive row with the same
// reference and size. An active match is rejected.
func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, CreateOutcome, error) {
	var (
		product models.Product
		outcome CreateOutcome
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		product, outcome, err = upsert(tx, in, 0)
		return err
	})
	if err != nil {
		return nil, Created, err
	}
	return &product, outcome, nil
}

func upsert(tx *gorm.DB, in ProductInput, row int) (models.Product, CreateOutcome, error) {
	var existing models.Product
	err := tx.Where("reference = ? AND size = ?", in.Reference, in.Size).
		Order("is_active DESC, id ASC").
		First(&existing).Error
	switch {
	case err == nil && existing.IsActive:
		return models.Product{}, Created, &DuplicateError{Reference: in.Reference, Size: in.Size, Row: row}
	case err == nil:
		in.applyTo(&existing)
		existing.IsActive = true
		if err := tx.Save(&existing).Error; err != nil {
			return models.Product{}, Created, fmt.Errorf("reactivate product %d: %w", existing.ID, err)
		}
		return existing, Reactivated, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return models.Product{}, Created, fmt.Errorf("find product by reference: %w", err)
	}

	p := models.Product{IsActive: true}
	in.applyTo(&p)
	if err := tx.Create(&p).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.Product{}, Created, &DuplicateError{Reference: in.Reference, Size: in.Size, Row: row}
		}
		return models.Product{}, Created, fmt.Errorf("insert product: %w", err)
	}
	return p, Created, nil
}

// Update replaces every editable field of product id.
func (s *Service) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if database.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}
		in.applyTo(&p)
		if err := tx.Save(&p).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return &DuplicateError{Reference: in.Reference, Size: in.Size}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Deactivate soft-deletes a product. Sales and layaway rows keep pointing at it.
func (s *Service) Deactivate(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(p).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate product %d: %w", id, err)
	}
	p.IsActive = false
	return p, nil
}

// BulkImport stores every row in a single transaction. Any active
// duplicate, in the database or earlier in the batch, aborts the whole batch.
func (s *Service) BulkImport(ctx context.Context, rows []ProductInput) (*ImportResult, error) {
	res := &ImportResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, in := range rows {
			_, outcome, err := upsert(tx, in, i+1)
			if err != nil {
				return err
			}
			if outcome == Reactivated {
				res.Reactivated++
			} else {
				res.Created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
