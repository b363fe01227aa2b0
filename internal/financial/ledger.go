package financial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestionexus-backend/internal/database"
	"gestionexus-backend/internal/models"
	"gestionexus-backend/internal/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrFutureDate  = errors.New("entry date is in the future")
	ErrEmptyAmount = errors.New("income and expense are both zero")
)

// Entry is a ledger movement produced by another operation.
type Entry struct {
	Date          time.Time
	Concept       string
	Income        decimal.Decimal
	Expense       decimal.Decimal
	SaleID        *uint
	LayawayPlanID *uint
	UserID        *uint
}

// Record inserts one ledger row using tx, so the caller's transaction
// decides whether it persists.
func Record(tx *gorm.DB, e Entry) (*models.FinancialLedgerEntry, error) {
	row := &models.FinancialLedgerEntry{
		EntryDate:     validation.Today(e.Date),
		Concept:       e.Concept,
		Income:        e.Income,
		Expense:       e.Expense,
		SaleID:        e.SaleID,
		LayawayPlanID: e.LayawayPlanID,
		UserID:        e.UserID,
	}
	if err := tx.Create(row).Error; err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return row, nil
}

// Filter narrows ledger reads. Zero dates are open bounds.
type Filter struct {
	Start  time.Time
	End    time.Time
	Search string
}

type Summary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	NetBalance   decimal.Decimal `json:"netBalance"`
}

type Page struct {
	Entries     []models.FinancialLedgerEntry `json:"entries"`
	TotalPages  int                           `json:"totalPages"`
	CurrentPage int                           `json:"currentPage"`
	Summary     Summary                       `json:"summary"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if !f.Start.IsZero() {
		q = q.Where("entry_date >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("entry_date <= ?", f.End)
	}
	if f.Search != "" {
		q = q.Where("concept ILIKE ?", "%"+f.Search+"%")
	}
	return q
}

func (s *Service) List(ctx context.Context, f Filter, page database.Page) (*Page, error) {
	q := f.apply(s.db.WithContext(ctx).Model(&models.FinancialLedgerEntry{})).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count ledger: %w", err)
	}

	summary, err := s.summarize(q)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FinancialLedgerEntry, 0)
	err = q.Order("entry_date DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	return &Page{
		Entries:     entries,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Number,
		Summary:     *summary,
	}, nil
}

// All returns every entry matching f in chronological order, for exports.
func (s *Service) All(ctx context.Context, f Filter) ([]models.FinancialLedgerEntry, Summary, error) {
	q := f.apply(s.db.WithContext(ctx).Model(&models.FinancialLedgerEntry{})).Session(&gorm.Session{})

	entries := make([]models.FinancialLedgerEntry, 0)
	if err := q.Order("entry_date ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, Summary{}, fmt.Errorf("export ledger: %w", err)
	}
	return entries, Summarize(entries), nil
}

func (s *Service) summarize(q *gorm.DB) (*Summary, error) {
	var row struct {
		TotalIncome  decimal.Decimal
		TotalExpense decimal.Decimal
	}
	err := q.Select("COALESCE(SUM(income), 0) AS total_income, COALESCE(SUM(expense), 0) AS total_expense").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("summarize ledger: %w", err)
	}
	return &Summary{
		TotalIncome:  row.TotalIncome,
		TotalExpense: row.TotalExpense,
		NetBalance:   row.TotalIncome.Sub(row.TotalExpense),
	}, nil
}

// Summarize totals an in-memory slice of entries.
func Summarize(entries []models.FinancialLedgerEntry) Summary {
	var s Summary
	for _, e := range entries {
		s.TotalIncome = s.TotalIncome.Add(e.Income)
		s.TotalExpense = s.TotalExpense.Add(e.Expense)
	}
	s.NetBalance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

type ManualEntryInput struct {
	EntryDate time.Time
	Concept   string
	Income    decimal.Decimal
	Expense   decimal.Decimal
}

// CreateManual records an entry typed in by an administrator.
func (s *Service) CreateManual(ctx context.Context, userID uint, in ManualEntryInput) (*models.FinancialLedgerEntry, error) {
	if in.EntryDate.After(validation.Today(s.now())) {
		return nil, ErrFutureDate
	}
	if in.Income.IsZero() && in.Expense.IsZero() {
		return nil, ErrEmptyAmount
	}

	uid := userID
	return Record(s.db.WithContext(ctx), Entry{
		Date:    in.EntryDate,
		Concept: in.Concept,
		Income:  in.Income,
		Expense: in.Expense,
		UserID:  &uid,
	})
}
