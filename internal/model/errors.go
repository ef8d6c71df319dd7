package model

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidState        = errors.New("invalid state")
	ErrAccessDenied        = errors.New("access denied")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrRestoreValidation   = errors.New("restore validation failed")
	ErrInventoryCorruption = errors.New("inventory corruption")
)

// StockError reports a reservation that asked for more than is available.
type StockError struct {
	MaterialID   string
	MaterialName string
	Available    int
	Requested    int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (%s): have %d, need %d",
		e.MaterialName, e.MaterialID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
