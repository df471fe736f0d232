package handlers

import (
	"time"

	"retail-inventory/internal/domain"
)

// RegisterInventoryRequest represents the request body for registering stock
// @Description Request to register the initial stock of a product in a store
type RegisterInventoryRequest struct {
	// Store identifier, validated against the store service
	StoreID int64 `json:"storeId" binding:"required,min=1" example:"1"`

	// Product identifier, validated against the product service
	ProductID int64 `json:"productId" binding:"required,min=1" example:"10"`

	// Initial stock quantity (must be >= 0)
	// @Example 100
	// @Example 0
	Quantity *int64 `json:"quantity" binding:"required,min=0" example:"100"`
}

// MovementParams holds the query parameters of a stock movement
type MovementParams struct {
	Quantity     int64  `form:"quantity" binding:"required,min=1"`
	MovementType string `form:"movementType" binding:"required"`
	UserID       string `form:"userId"`
}

// InventoryResponse represents an inventory record
// @Description Stock held for one store and product
type InventoryResponse struct {
	ID        int64     `json:"id" example:"1"`
	StoreID   int64     `json:"storeId" example:"1"`
	ProductID int64     `json:"productId" example:"10"`
	Quantity  int64     `json:"quantity" example:"100"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-15T11:45:00Z"`
}

// MovementResponse represents one entry of the movement log
// @Description Immutable record of a stock entry or exit
type MovementResponse struct {
	ID        int64     `json:"id" example:"1"`
	StoreID   int64     `json:"storeId" example:"1"`
	ProductID int64     `json:"productId" example:"10"`
	UserID    string    `json:"userId" example:"employee"`
	Quantity  int64     `json:"quantity" example:"5"`
	Type      string    `json:"type" example:"EXIT"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-15T11:45:00Z"`
}

// MetricsResponse counts movements per type; types without movements are omitted
type MetricsResponse map[string]int64

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Service string `json:"service" example:"inventory-service"`
}

func toInventoryResponse(record *domain.InventoryRecord) InventoryResponse {
	return InventoryResponse{
		ID:        record.ID,
		StoreID:   record.StoreID,
		ProductID: record.ProductID,
		Quantity:  record.Quantity,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func toMovementResponse(movement *domain.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:        movement.ID,
		StoreID:   movement.StoreID,
		ProductID: movement.ProductID,
		UserID:    movement.UserID,
		Quantity:  movement.Quantity,
		Type:      string(movement.Type),
		Timestamp: movement.CreatedAt,
	}
}
