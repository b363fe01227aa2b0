package layaway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/financial"
	"gestionexus-backend/internal/inventory"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPlanNotFound          = errors.New("layaway plan not found")
	ErrInvalidPayment        = errors.New("payment must be greater than zero")
	ErrPaymentExceedsBalance = errors.New("payment exceeds balance due")
	ErrPlanCompleted         = errors.New("layaway plan is already completed")
	ErrUnknownStatus         = errors.New("unknown layaway status")
)

type ItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreatePlanRequest struct {
	CustomerName    string          `json:"customer_name"`
	CustomerIDDoc   string          `json:"customer_id_doc"`
	CustomerContact string          `json:"customer_contact"`
	TotalValue      decimal.Decimal `json:"total_value"`
	DownPayment     decimal.Decimal `json:"down_payment"`
	Deadline        string          `json:"deadline"`
	Products        []ItemRequest   `json:"products"`
}

// Validate checks the request and returns the parsed deadline.
func (r *CreatePlanRequest) Validate(today time.Time) (time.Time, validation.Errors) {
	errs := validation.Errors{}
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerIDDoc = strings.TrimSpace(r.CustomerIDDoc)
	r.CustomerContact = strings.TrimSpace(r.CustomerContact)

	if r.CustomerName == "" {
		errs.Add("customer_name", "El nombre del cliente es obligatorio")
	}
	if !r.TotalValue.IsPositive() {
		errs.Add("total_value", "El valor total debe ser mayor a 0")
	}
	if r.DownPayment.IsNegative() {
		errs.Add("down_payment", "El abono inicial no puede ser negativo")
	} else if r.DownPayment.GreaterThan(r.TotalValue) {
		errs.Add("down_payment", "El abono inicial no puede superar el valor total")
	}

	deadline, err := validation.ParseDate(r.Deadline)
	if err != nil {
		errs.Add("deadline", "La fecha límite es obligatoria y debe tener formato YYYY-MM-DD")
	} else if deadline.Before(validation.Today(today)) {
		errs.Add("deadline", "La fecha límite no puede ser una fecha pasada")
	}

	if len(r.Products) == 0 {
		errs.Add("products", "La lista de productos no puede estar vacía")
	}
	for i, it := range r.Products {
		if it.ProductID == 0 {
			errs.Add(fmt.Sprintf("products[%d].product_id", i), "El ID del producto es obligatorio")
		}
		if it.Quantity <= 0 {
			errs.Add(fmt.Sprintf("products[%d].quantity", i), "La cantidad debe ser un entero positivo")
		}
	}
	return deadline, errs
}

// PaymentRecorder is satisfied by telemetry.Metrics.
type PaymentRecorder interface {
	LayawayPayment()
}

type Service struct {
	db      *gorm.DB
	metrics PaymentRecorder
	now     func() time.Time
}

func NewService(db *gorm.DB, metrics PaymentRecorder) *Service {
	return &Service{db: db, metrics: metrics, now: time.Now}
}

func (s *Service) countPayment() {
	if s.metrics != nil {
		s.metrics.LayawayPayment()
	}
}

// Create reserves stock for the plan and books the down payment, if any.
func (s *Service) Create(ctx context.Context, userID uint, req CreatePlanRequest, deadline time.Time) (*models.LayawayPlan, error) {
	plan := &models.LayawayPlan{
		CustomerName:    req.CustomerName,
		CustomerIDDoc:   req.CustomerIDDoc,
		CustomerContact: req.CustomerContact,
		TotalValue:      req.TotalValue,
		DownPayment:     req.DownPayment,
		Deadline:        deadline,
		Status:          models.LayawayActive,
		UserID:          userID,
	}
	plan.RecomputeBalance()

	stock := make([]inventory.StockRequest, 0, len(req.Products))
	for _, it := range req.Products {
		stock = append(stock, inventory.StockRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := inventory.LockForSale(tx, stock); err != nil {
			return err
		}
		if err := tx.Omit("Details").Create(plan).Error; err != nil {
			return fmt.Errorf("insert layaway plan: %w", err)
		}

		details := make([]models.LayawayPlanDetail, 0, len(req.Products))
		for _, it := range req.Products {
			details = append(details, models.LayawayPlanDetail{
				LayawayPlanID: plan.ID,
				ProductID:     it.ProductID,
				Quantity:      it.Quantity,
			})
		}
		if err := tx.Omit("Product").Create(&details).Error; err != nil {
			return fmt.Errorf("insert layaway details: %w", err)
		}
		plan.Details = details

		for _, it := range req.Products {
			if err := inventory.Decrement(tx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}

		if plan.DownPayment.IsPositive() {
			planID, uid := plan.ID, userID
			_, err := financial.Record(tx, financial.Entry{
				Date:          s.now(),
				Concept:       fmt.Sprintf("Abono inicial Plan Separe #%d - %s", plan.ID, plan.CustomerName),
				Income:        plan.DownPayment,
				LayawayPlanID: &planID,
				UserID:        &uid,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if plan.DownPayment.IsPositive() {
		s.countPayment()
	}
	return plan, nil
}

// AddPayment applies an installment under a row lock and books it as income.
func (s *Service) AddPayment(ctx context.Context, userID, planID uint, amount decimal.Decimal) (*models.LayawayPlan, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPayment
	}

	var plan models.LayawayPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&plan, planID).Error
		if err != nil {
			if database.IsNotFound(err) {
				return ErrPlanNotFound
			}
			return fmt.Errorf("lock layaway plan %d: %w", planID, err)
		}
		if plan.Status == models.LayawayCompleted {
			return ErrPlanCompleted
		}
		if amount.GreaterThan(plan.BalanceDue) {
			return ErrPaymentExceedsBalance
		}

		plan.ApplyPayment(amount)
		err = tx.Model(&plan).Select("down_payment", "balance_due", "status", "updated_at").Updates(&plan).Error
		if err != nil {
			return fmt.Errorf("update layaway plan %d: %w", planID, err)
		}

		pid, uid := plan.ID, userID
		_, err = financial.Record(tx, financial.Entry{
			Date:          s.now(),
			Concept:       fmt.Sprintf("Abono a Plan Separe #%d - %s", plan.ID, plan.CustomerName),
			Income:        amount,
			LayawayPlanID: &pid,
			UserID:        &uid,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.countPayment()
	return &plan, nil
}

// Delete cancels a plan and returns its reserved units to stock.
// Income already booked for the plan stays in the ledger.
func (s *Service) Delete(ctx context.Context, planID uint) (*models.LayawayPlan, error) {
	var plan models.LayawayPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&plan, planID).Error
		if err != nil {
			if database.IsNotFound(err) {
				return ErrPlanNotFound
			}
			return fmt.Errorf("lock layaway plan %d: %w", planID, err)
		}

		var details []models.LayawayPlanDetail
		if err := tx.Where("layaway_plan_id = ?", planID).Order("id").Find(&details).Error; err != nil {
			return fmt.Errorf("load layaway details: %w", err)
		}
		for _, d := range details {
			if err := inventory.Restore(tx, d.ProductID, d.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Where("layaway_plan_id = ?", planID).Delete(&models.LayawayPlanDetail{}).Error; err != nil {
			return fmt.Errorf("delete layaway details: %w", err)
		}
		if err := tx.Delete(&models.LayawayPlan{}, planID).Error; err != nil {
			return fmt.Errorf("delete layaway plan: %w", err)
		}
		plan.Details = details
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// PlanView is a plan as presented to clients, with the derived status.
type PlanView struct {
	models.LayawayPlan
	Status models.LayawayStatus `json:"status"`
}

// DetailView is one reserved line. PriceAtSale is the product's current price.
type DetailView struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSizes string          `json:"product_sizes"`
	Reference    string          `json:"reference"`
	Quantity     int             `json:"quantity"`
	PriceAtSale  decimal.Decimal `json:"price_at_sale"`
}

type PlanDetailView struct {
	PlanView
	Products []DetailView `json:"products"`
}

// StatusFilter translates a requested status into predicates on the
// stored status and the deadline. "all" disables filtering.
func StatusFilter(q *gorm.DB, status string, today time.Time) (*gorm.DB, error) {
	switch models.LayawayStatus(status) {
	case "", models.LayawayActive:
		return q.Where("status = ? AND deadline >= ?", models.LayawayActive, today), nil
	case models.LayawayOverdue:
		return q.Where("status = ? AND deadline < ?", models.LayawayActive, today), nil
	case models.LayawayCompleted:
		return q.Where("status = ?", models.LayawayCompleted), nil
	case "all":
		return q, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

func (s *Service) List(ctx context.Context, search, status string) ([]PlanView, error) {
	today := validation.Today(s.now())
	q, err := StatusFilter(s.db.WithContext(ctx).Model(&models.LayawayPlan{}), status, today)
	if err != nil {
		return nil, err
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		q = q.Where("customer_name ILIKE ? OR customer_id_doc ILIKE ?", like, like)
	}

	var plans []models.LayawayPlan
	if err := q.Order("created_at DESC, id DESC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list layaway plans: %w", err)
	}

	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanView{LayawayPlan: p, Status: p.EffectiveStatus(today)})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*PlanDetailView, error) {
	var plan models.LayawayPlan
	err := s.db.WithContext(ctx).Preload("Details.Product").First(&plan, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get layaway plan %d: %w", id, err)
	}

	view := &PlanDetailView{
		PlanView: PlanView{LayawayPlan: plan, Status: plan.EffectiveStatus(s.now())},
		Products: make([]DetailView, 0, len(plan.Details)),
	}
	view.LayawayPlan.Details = nil
	for _, d := range plan.Details {
		dv := DetailView{ProductID: d.ProductID, Quantity: d.Quantity}
		if d.Product != nil {
			dv.ProductName = d.Product.Name
			dv.ProductSizes = d.Product.Size
			dv.Reference = d.Product.Reference
			dv.PriceAtSale = d.Product.Price
		}
		view.Products = append(view.Products, dv)
	}
	return view, nil
}
