package domain

import (
	"math"
	"strings"
	"time"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementEntry MovementType = "ENTRY"
	MovementExit  MovementType = "EXIT"
)

// ParseMovementType accepts ENTRY or EXIT in any case.
func ParseMovementType(value string) (MovementType, error) {
	switch MovementType(strings.ToUpper(strings.TrimSpace(value))) {
	case MovementEntry:
		return MovementEntry, nil
	case MovementExit:
		return MovementExit, nil
	default:
		return "", ErrInvalidMovementType
	}
}

// InventoryRecord is the stock held for one (store, product) pair.
type InventoryRecord struct {
	ID        int64
	StoreID   int64
	ProductID int64
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInventoryRecord creates an untracked record for a newly registered pair
func NewInventoryRecord(storeID, productID, initialQuantity int64) (*InventoryRecord, error) {
	if initialQuantity < 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	return &InventoryRecord{
		StoreID:   storeID,
		ProductID: productID,
		Quantity:  initialQuantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply moves stock in or out. The record is left untouched on error.
func (r *InventoryRecord) Apply(quantity int64, movementType MovementType) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	switch movementType {
	case MovementEntry:
		if quantity > math.MaxInt64-r.Quantity {
			return ErrStockOverflow
		}
		r.Quantity += quantity
	case MovementExit:
		if r.Quantity < quantity {
			return ErrInsufficientStock
		}
		r.Quantity -= quantity
	default:
		return ErrInvalidMovementType
	}

	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MovementRecord is one immutable entry of the stock audit trail.
type MovementRecord struct {
	ID        int64
	StoreID   int64
	ProductID int64
	UserID    string
	Quantity  int64
	Type      MovementType
	CreatedAt time.Time
}

// NewMovementRecord describes a movement already applied to record.
func NewMovementRecord(record *InventoryRecord, userID string, quantity int64, movementType MovementType) *MovementRecord {
	return &MovementRecord{
		StoreID:   record.StoreID,
		ProductID: record.ProductID,
		UserID:    userID,
		Quantity:  quantity,
		Type:      movementType,
		CreatedAt: record.UpdatedAt,
	}
}

// Domain errors
var (
	ErrInsufficientStock   = &DomainError{Message: "insufficient stock available"}
	ErrInvalidQuantity     = &DomainError{Message: "invalid quantity"}
	ErrInvalidMovementType = &DomainError{Message: "movement type must be ENTRY or EXIT"}
	ErrMissingUser         = &DomainError{Message: "movement user is required"}
	ErrStockOverflow       = &DomainError{Message: "resulting stock exceeds the maximum quantity"}
	ErrInventoryNotFound   = &DomainError{Message: "inventory item not found"}
	ErrInventoryExists     = &DomainError{Message: "inventory already registered for store and product"}
	ErrStoreNotFound       = &DomainError{Message: "store not found"}
	ErrProductNotFound     = &DomainError{Message: "product not found"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
