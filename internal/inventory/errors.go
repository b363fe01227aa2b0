package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateProduct  = errors.New("active product with the same reference and size exists")
)

// StockError names the product that could not cover a request.
type StockError struct {
	ProductID uint
	Name      string
	Size      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): available %d, requested %d",
		e.ProductID, e.Name, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

// DuplicateError identifies the (reference, size) pair that collided.
// Row is the 1-based position in a bulk import, or 0 for single creates.
type DuplicateError struct {
	Reference string
	Size      string
	Row       int
}

func (e *DuplicateError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: reference %q size %q already exists", e.Row, e.Reference, e.Size)
	}
	return fmt.Sprintf("reference %q size %q already exists", e.Reference, e.Size)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateProduct
}
