package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart: no cart, or a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock is matched by *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStorage is matched by *StorageError. Callers may retry.
	ErrStorage = errors.New("storage failure")

	errCartChanged = errors.New("cart changed during checkout")
)

type InsufficientStockError struct {
	ProductIDs []uint
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for products %v", e.ProductIDs)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("checkout %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// raceError aborts an attempt that lost a compare-and-set. It never leaves
// the package.
type raceError struct {
	productIDs []uint
	drain      bool
}

func (e *raceError) Error() string {
	if e.drain {
		return "cart drained concurrently"
	}
	return fmt.Sprintf("stock changed for products %v", e.productIDs)
}

func (e *raceError) final() error {
	if e.drain {
		return &StorageError{Op: "drain", Err: errCartChanged}
	}
	return &InsufficientStockError{ProductIDs: e.productIDs}
}

// Outcome labels a finished checkout for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "storage_failure"
	}
}
