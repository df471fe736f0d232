package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail-inventory/internal/commands"
	"retail-inventory/internal/domain"
	"retail-inventory/internal/events"
	"retail-inventory/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Directory answers whether referenced stores and products exist in their owning services
type Directory interface {
	StoreExists(ctx context.Context, storeID int64, callerToken string) (bool, error)
	ProductExists(ctx context.Context, productID int64, callerToken string) (bool, error)
}

// InsufficientStockError reports a rejected exit together with the stock it was checked against
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return domain.ErrInsufficientStock
}

// Service owns per-(store, product) quantities and the movement log.
// Store and product existence is validated once, when the record is registered.
type Service struct {
	repository repository.LedgerRepository
	directory  Directory
	publisher  events.EventPublisher
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewService(repo repository.LedgerRepository, directory Directory, publisher events.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		repository: repo,
		directory:  directory,
		publisher:  publisher,
		logger:     logger,
		tracer:     otel.Tracer("ledger"),
	}
}

// AddInventory validates the references with their owning services and registers the initial stock
func (s *Service) AddInventory(ctx context.Context, cmd commands.RegisterInventoryCommand) (*domain.InventoryRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.AddInventory", trace.WithAttributes(
		attribute.Int64("store.id", cmd.StoreID),
		attribute.Int64("product.id", cmd.ProductID),
	))
	defer span.End()

	record, err := domain.NewInventoryRecord(cmd.StoreID, cmd.ProductID, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	exists, err := s.directory.StoreExists(ctx, cmd.StoreID, cmd.CallerToken)
	if err != nil {
		return nil, s.fail(span, "store lookup failed", err)
	}
	if !exists {
		return nil, domain.ErrStoreNotFound
	}

	exists, err = s.directory.ProductExists(ctx, cmd.ProductID, cmd.CallerToken)
	if err != nil {
		return nil, s.fail(span, "product lookup failed", err)
	}
	if !exists {
		return nil, domain.ErrProductNotFound
	}

	if err := s.repository.CreateInventory(ctx, record); err != nil {
		if errors.Is(err, domain.ErrInventoryExists) {
			return nil, err
		}
		return nil, s.fail(span, "create inventory failed", err)
	}

	s.logger.Info("Inventory registered",
		zap.Int64("record_id", record.ID),
		zap.Int64("store_id", record.StoreID),
		zap.Int64("product_id", record.ProductID),
		zap.Int64("quantity", record.Quantity),
	)

	s.publish(ctx, events.NewInventoryRegistered(record))
	return record, nil
}

// ApplyMovement moves stock in or out and appends the movement in one repository transaction
func (s *Service) ApplyMovement(ctx context.Context, cmd commands.RecordMovementCommand) (*domain.InventoryRecord, *domain.MovementRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.ApplyMovement", trace.WithAttributes(
		attribute.Int64("store.id", cmd.StoreID),
		attribute.Int64("product.id", cmd.ProductID),
		attribute.String("movement.type", string(cmd.Type)),
		attribute.Int64("movement.quantity", cmd.Quantity),
	))
	defer span.End()

	if cmd.Quantity <= 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	if cmd.Type != domain.MovementEntry && cmd.Type != domain.MovementExit {
		return nil, nil, domain.ErrInvalidMovementType
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return nil, nil, domain.ErrMissingUser
	}

	record, movement, err := s.repository.ApplyMovement(ctx, repository.Movement{
		StoreID:   cmd.StoreID,
		ProductID: cmd.ProductID,
		UserID:    cmd.UserID,
		Quantity:  cmd.Quantity,
		Type:      cmd.Type,
	})
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		available := int64(0)
		if record != nil {
			available = record.Quantity
		}
		s.logger.Info("Exit rejected, insufficient stock",
			zap.Int64("store_id", cmd.StoreID),
			zap.Int64("product_id", cmd.ProductID),
			zap.Int64("available", available),
			zap.Int64("requested", cmd.Quantity),
		)
		return nil, nil, &InsufficientStockError{Available: available, Requested: cmd.Quantity}
	case errors.Is(err, domain.ErrInventoryNotFound), errors.Is(err, domain.ErrStockOverflow):
		return nil, nil, err
	case err != nil:
		return nil, nil, s.fail(span, "apply movement failed", err)
	}

	s.logger.Info("Movement recorded",
		zap.Int64("movement_id", movement.ID),
		zap.Int64("store_id", movement.StoreID),
		zap.Int64("product_id", movement.ProductID),
		zap.String("user_id", movement.UserID),
		zap.String("type", string(movement.Type)),
		zap.Int64("quantity", movement.Quantity),
		zap.Int64("new_quantity", record.Quantity),
	)

	s.publish(ctx, events.NewStockMoved(record, movement))
	return record, movement, nil
}

// GetInventoryByStore lists the records of a store in registration order
func (s *Service) GetInventoryByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.GetInventoryByStore", trace.WithAttributes(
		attribute.Int64("store.id", storeID),
	))
	defer span.End()

	records, err := s.repository.FindByStore(ctx, storeID)
	if err != nil {
		return nil, s.fail(span, "find inventory failed", err)
	}
	return records, nil
}

// publish runs after commit; a failure is logged and never undoes the change
func (s *Service) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish ledger event",
			zap.String("event_type", event.EventType()),
			zap.String("partition_key", event.PartitionKey()),
			zap.Error(err),
		)
	}
}

func (s *Service) fail(span trace.Span, message string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	return err
}
