package domain

import (
	"fmt"
	"strings"
)

type ItemType string

const (
	ItemTypeMaterial ItemType = "material"
	ItemTypeProduct  ItemType = "product"
)

func ParseItemType(raw string) (ItemType, error) {
	switch ItemType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ItemTypeMaterial:
		return ItemTypeMaterial, nil
	case ItemTypeProduct:
		return ItemTypeProduct, nil
	default:
		return "", NewValidationError("invalid item type", raw)
	}
}

type MovementType string

const (
	MovementPurchaseIn MovementType = "PURCHASE_IN"
	MovementAdjustIn   MovementType = "ADJUST_IN"
	MovementAdjustOut  MovementType = "ADJUST_OUT"
	MovementSet        MovementType = "SET"
)

type AdjustType string

const (
	AdjustIn  AdjustType = "in"
	AdjustOut AdjustType = "out"
)

// Increment returns current + qty.
func Increment(current, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: increment must be positive, got %d", ErrInvalidQuantity, qty)
	}
	if qty > MaxQuantity-current {
		return 0, fmt.Errorf("%w: %d + %d exceeds %d", ErrInvalidQuantity, current, qty, MaxQuantity)
	}
	return current + qty, nil
}

// Decrement returns current - qty, refusing to go below zero.
func Decrement(current, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: decrement must be positive, got %d", ErrInvalidQuantity, qty)
	}
	if current-qty < 0 {
		return 0, fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, current, qty)
	}
	return current - qty, nil
}

// SetAbsolute validates an administrative overwrite.
func SetAbsolute(qty int) (int, error) {
	if qty < 0 || qty > MaxQuantity {
		return 0, fmt.Errorf("%w: quantity must be between 0 and %d, got %d", ErrInvalidQuantity, MaxQuantity, qty)
	}
	return qty, nil
}

// Adjust applies an in/out adjustment and returns the new quantity with the
// movement type to record.
func Adjust(current int, adjustType AdjustType, qty int) (int, MovementType, error) {
	switch adjustType {
	case AdjustIn:
		next, err := Increment(current, qty)
		return next, MovementAdjustIn, err
	case AdjustOut:
		next, err := Decrement(current, qty)
		return next, MovementAdjustOut, err
	default:
		return 0, "", NewValidationError("invalid adjust type", string(adjustType))
	}
}
