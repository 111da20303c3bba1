package order

import "errors"

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: conflict")
	ErrNoItems           = errors.New("order: at least one item is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount     = errors.New("order: amount must be greater than zero")
	ErrInvalidTransition = errors.New("order: invalid state transition")
	ErrInsufficientStock = errors.New("order: insufficient stock")
	ErrProductUnavailable = errors.New("order: product unavailable")
	ErrHasDebt           = errors.New("order: user has outstanding debt")
	ErrPendingOnline     = errors.New("order: a pending online order already exists")
	ErrInvalidPhone      = errors.New("order: invalid phone number")
	ErrInvalidItems      = errors.New("order: invalid item selection")
)
