package inventory

import (
	"errors"
	"fmt"
	"sort"

	"gestionexus-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRequest is one line asking for units of a product.
type StockRequest struct {
	ProductID uint
	Quantity  int
}

// LockForSale row-locks every requested product with SELECT ... FOR UPDATE
// and checks that the summed quantities are available. Locks are taken in
// ascending id order. It must run inside tx's transaction.
func LockForSale(tx *gorm.DB, items []StockRequest) (map[uint]models.Product, error) {
	wanted := make(map[uint]int, len(items))
	for _, it := range items {
		wanted[it.ProductID] += it.Quantity
	}
	ids := make([]uint, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[uint]models.Product, len(ids))
	for _, id := range ids {
		var p models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_active", id).
			First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", id, err)
		}
		if p.Quantity < wanted[id] {
			return nil, &StockError{
				ProductID: p.ID,
				Name:      p.Name,
				Size:      p.Size,
				Available: p.Quantity,
				Requested: wanted[id],
			}
		}
		locked[id] = p
	}
	return locked, nil
}

// Decrement takes qty units out of stock. The guard in the WHERE clause
// keeps quantity non-negative even without a prior lock.
func Decrement(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
	}
	return nil
}

// Restore returns qty units to stock, e.g. when a reservation is cancelled.
func Restore(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("restore product %d: %w", productID, res.Error)
	}
	return nil
}
