package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPublishFailed      = errors.New("publish failed")
	ErrInternal           = errors.New("internal error")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrStoreUnavailable   = errors.New("stock store unavailable")
	ErrInvalidDocument    = errors.New("invalid stock document")
)

// OutOfStockError lists the items that blocked a checkout.
type OutOfStockError struct {
	Items []string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %s", strings.Join(e.Items, ", "))
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrValidationFailed
}

// InsufficientStockError is returned when a sales document would take an
// item below zero.
type InsufficientStockError struct {
	ItemNo    string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: available %d, requested %d", e.ItemNo, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrValidationFailed
}
