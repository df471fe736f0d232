package handlers

import (
	"context"
	"net/http"

	"retail-inventory/internal/domain"
	stderrors "retail-inventory/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MovementQuery reads the movement log
type MovementQuery interface {
	ListAll(ctx context.Context) ([]*domain.MovementRecord, error)
	ListByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error)
	MetricsByType(ctx context.Context) (map[domain.MovementType]int64, error)
}

type MovementHandler struct {
	logger *zap.Logger
	query  MovementQuery
}

func NewMovementHandler(query MovementQuery, logger *zap.Logger) *MovementHandler {
	return &MovementHandler{
		logger: logger,
		query:  query,
	}
}

// ListMovements handles GET /inventory/movements
// @Summary      List all movements
// @Description  Lista todos los movimientos de stock en orden de registro
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   MovementResponse
// @Failure      401  {object}  errors.StandardError
// @Failure      403  {object}  errors.StandardError  "Requiere ADMIN"
// @Router       /inventory/movements [get]
func (h *MovementHandler) ListMovements(c *gin.Context) {
	movements, err := h.query.ListAll(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, toMovementResponses(movements))
}

// ListMovementsByStore handles GET /inventory/movements/:storeId
// @Summary      List movements of a store
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Param        storeId  path      int  true  "Store ID"
// @Success      200      {array}   MovementResponse
// @Failure      400      {object}  errors.StandardError
// @Failure      401      {object}  errors.StandardError
// @Failure      403      {object}  errors.StandardError
// @Router       /inventory/movements/{storeId} [get]
func (h *MovementHandler) ListMovementsByStore(c *gin.Context) {
	storeID, ok := pathID(c, "storeId")
	if !ok {
		return
	}

	movements, err := h.query.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, toMovementResponses(movements))
}

// MovementMetrics handles GET /inventory/movements/metrics
// @Summary      Movement counts per type
// @Description  Cuenta los movimientos por tipo. Los tipos sin movimientos no aparecen.
// @Tags         movements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MetricsResponse
// @Failure      401  {object}  errors.StandardError
// @Failure      403  {object}  errors.StandardError
// @Router       /inventory/movements/metrics [get]
func (h *MovementHandler) MovementMetrics(c *gin.Context) {
	counts, err := h.query.MetricsByType(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}

	response := make(MetricsResponse, len(counts))
	for movementType, count := range counts {
		response[string(movementType)] = count
	}
	c.JSON(http.StatusOK, response)
}

func (h *MovementHandler) internal(c *gin.Context, err error) {
	h.logger.Error("Failed to read movements", zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.Error(stderrors.NewInternalError("internal server error"))
	c.Abort()
}

func toMovementResponses(movements []*domain.MovementRecord) []MovementResponse {
	response := make([]MovementResponse, 0, len(movements))
	for _, movement := range movements {
		response = append(response, toMovementResponse(movement))
	}
	return response
}
