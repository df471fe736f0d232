package commands

import "retail-inventory/internal/domain"

// RegisterInventoryCommand registers the initial stock of a (store, product) pair.
// CallerToken is forwarded to the store and product services unchanged.
type RegisterInventoryCommand struct {
	StoreID     int64
	ProductID   int64
	Quantity    int64
	CallerToken string
}

// RecordMovementCommand moves stock in or out of an existing record
type RecordMovementCommand struct {
	StoreID     int64
	ProductID   int64
	Quantity    int64
	UserID      string
	Type        domain.MovementType
	CallerToken string
}
