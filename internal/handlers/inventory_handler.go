package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"retail-inventory/internal/commands"
	"retail-inventory/internal/directory"
	"retail-inventory/internal/domain"
	"retail-inventory/internal/ledger"
	stderrors "retail-inventory/pkg/errors"
	"retail-inventory/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LedgerService is the stock ledger as seen by the HTTP layer
type LedgerService interface {
	AddInventory(ctx context.Context, cmd commands.RegisterInventoryCommand) (*domain.InventoryRecord, error)
	ApplyMovement(ctx context.Context, cmd commands.RecordMovementCommand) (*domain.InventoryRecord, *domain.MovementRecord, error)
	GetInventoryByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error)
}

type InventoryHandler struct {
	logger *zap.Logger
	ledger LedgerService
}

func NewInventoryHandler(ledger LedgerService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		logger: logger,
		ledger: ledger,
	}
}

// RegisterInventory handles POST /inventory
// @Summary      Register inventory for a store and product
// @Description  Registra el stock inicial de un producto en una tienda. La tienda y el producto se validan contra sus servicios usando el token del llamante.
// @Description  **Idempotencia**: Incluye X-Request-ID en el header para evitar duplicados.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Request-ID  header    string                    false  "Request ID for idempotency"
// @Param        request       body      RegisterInventoryRequest  true   "Inventory registration"
// @Success      200           {object}  InventoryResponse         "Inventario registrado"
// @Failure      400           {object}  errors.StandardError      "Request inválido - cantidad negativa o campos faltantes"
// @Failure      401           {object}  errors.StandardError      "No autorizado - token inválido, expirado o faltante"
// @Failure      403           {object}  errors.StandardError      "Rol insuficiente - requiere ADMIN"
// @Failure      404           {object}  errors.StandardError      "Tienda o producto no encontrado"
// @Failure      409           {object}  errors.StandardError      "Inventario ya registrado para la tienda y producto"
// @Failure      503           {object}  errors.StandardError      "Servicio de tiendas o productos no disponible"
// @Router       /inventory [post]
func (h *InventoryHandler) RegisterInventory(c *gin.Context) {
	var req RegisterInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		c.Error(stderrors.NewValidationError("invalid request: "+err.Error(), "storeId, productId or quantity"))
		c.Abort()
		return
	}

	cmd := commands.RegisterInventoryCommand{
		StoreID:     req.StoreID,
		ProductID:   req.ProductID,
		Quantity:    *req.Quantity,
		CallerToken: middleware.CallerToken(c),
	}

	record, err := h.ledger.AddInventory(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err, cmd.StoreID, cmd.ProductID)
		return
	}

	c.JSON(http.StatusOK, toInventoryResponse(record))
}

// ApplyMovement handles PUT /inventory/:storeId/:productId
// @Summary      Record a stock movement
// @Description  Aplica una entrada (ENTRY) o salida (EXIT) de stock y registra el movimiento en la misma transacción. Una salida mayor al stock disponible se rechaza sin efecto.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        X-Request-ID  header    string  false  "Request ID for idempotency"
// @Param        storeId       path      int     true   "Store ID"
// @Param        productId     path      int     true   "Product ID"
// @Param        quantity      query     int     true   "Units to move (>= 1)"
// @Param        movementType  query     string  true   "ENTRY or EXIT"
// @Param        userId        query     string  false  "User recorded on the movement (defaults to the token subject)"
// @Success      200           {object}  InventoryResponse
// @Failure      400           {object}  errors.StandardError  "Cantidad o tipo inválido, o stock insuficiente"
// @Failure      401           {object}  errors.StandardError
// @Failure      403           {object}  errors.StandardError
// @Failure      404           {object}  errors.StandardError  "Inventario no encontrado"
// @Router       /inventory/{storeId}/{productId} [put]
func (h *InventoryHandler) ApplyMovement(c *gin.Context) {
	storeID, ok := pathID(c, "storeId")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	var params MovementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid movement parameters", zap.Error(err))
		c.Error(stderrors.NewValidationError("invalid request: "+err.Error(), "quantity or movementType"))
		c.Abort()
		return
	}

	movementType, err := domain.ParseMovementType(params.MovementType)
	if err != nil {
		c.Error(stderrors.NewValidationError(err.Error(), "movementType"))
		c.Abort()
		return
	}

	userID := params.UserID
	if userID == "" {
		userID = middleware.CallerSubject(c)
	}

	cmd := commands.RecordMovementCommand{
		StoreID:     storeID,
		ProductID:   productID,
		Quantity:    params.Quantity,
		UserID:      userID,
		Type:        movementType,
		CallerToken: middleware.CallerToken(c),
	}

	record, _, err := h.ledger.ApplyMovement(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, err, storeID, productID)
		return
	}

	c.JSON(http.StatusOK, toInventoryResponse(record))
}

// GetInventoryByStore handles GET /inventory/:storeId
// @Summary      List inventory of a store
// @Description  Lista los registros de inventario de una tienda en orden de registro
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        storeId  path      int  true  "Store ID"
// @Success      200      {array}   InventoryResponse
// @Failure      400      {object}  errors.StandardError
// @Failure      401      {object}  errors.StandardError
// @Router       /inventory/{storeId} [get]
func (h *InventoryHandler) GetInventoryByStore(c *gin.Context) {
	storeID, ok := pathID(c, "storeId")
	if !ok {
		return
	}

	records, err := h.ledger.GetInventoryByStore(c.Request.Context(), storeID)
	if err != nil {
		h.fail(c, err, storeID, 0)
		return
	}

	response := make([]InventoryResponse, 0, len(records))
	for _, record := range records {
		response = append(response, toInventoryResponse(record))
	}
	c.JSON(http.StatusOK, response)
}

// fail maps ledger errors onto the standard error taxonomy
func (h *InventoryHandler) fail(c *gin.Context, err error, storeID, productID int64) {
	var insufficient *ledger.InsufficientStockError
	var unavailable *directory.UnavailableError

	switch {
	case errors.As(err, &insufficient):
		c.Error(stderrors.NewInsufficientStock(insufficient.Available, insufficient.Requested))
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrStockOverflow):
		c.Error(stderrors.NewValidationError(err.Error(), "quantity"))
	case errors.Is(err, domain.ErrInvalidMovementType):
		c.Error(stderrors.NewValidationError(err.Error(), "movementType"))
	case errors.Is(err, domain.ErrMissingUser):
		c.Error(stderrors.NewValidationError(err.Error(), "userId"))
	case errors.Is(err, domain.ErrStoreNotFound):
		c.Error(stderrors.NewNotFound("store not found", fmt.Sprintf("Store ID: %d", storeID)))
	case errors.Is(err, domain.ErrProductNotFound):
		c.Error(stderrors.NewNotFound("product not found", fmt.Sprintf("Product ID: %d", productID)))
	case errors.Is(err, domain.ErrInventoryNotFound):
		c.Error(stderrors.NewInventoryNotFound(storeID, productID))
	case errors.Is(err, domain.ErrInventoryExists):
		c.Error(stderrors.NewConflict(storeID, productID))
	case errors.As(err, &unavailable):
		c.Error(stderrors.NewDependencyUnavailable(unavailable.Service))
	case errors.Is(err, directory.ErrDependencyUnavailable):
		c.Error(stderrors.NewDependencyUnavailable("directory"))
	default:
		h.logger.Error("Ledger operation failed",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.Error(stderrors.NewInternalError("internal server error"))
	}
	c.Abort()
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.Error(stderrors.NewValidationError("invalid "+name, name))
		c.Abort()
		return 0, false
	}
	return id, true
}
