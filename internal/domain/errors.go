package domain

import "errors"

// Error taxonomy shared by every layer. Lower layers wrap these with
// fmt.Errorf("%w: ...") so the HTTP boundary can map them with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal transition of order state")
	ErrTotalMismatch     = errors.New("order total does not match the recomputed total")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("persistence failure")
)
