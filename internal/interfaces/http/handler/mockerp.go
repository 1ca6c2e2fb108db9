package handler

import (
	"github.com/gin-gonic/gin"

	appsync "github.com/erpsync/backend/internal/application/ordersync"
	"github.com/erpsync/backend/internal/interfaces/http/dto"
)

// MockERPHandler is a stand-in ERP endpoint for integration environments.
// It accepts stock updates and always succeeds, so the full sync pipeline
// can be exercised without a real ERP.
type MockERPHandler struct {
	BaseHandler
	management *appsync.Management
}

// NewMockERPHandler creates a new MockERPHandler
func NewMockERPHandler(management *appsync.Management) *MockERPHandler {
	return &MockERPHandler{
		management: management,
	}
}

// UpdateStock godoc
//
//	@ID				updateStockMockERP
//	@Summary		Accept a mock stock update
//	@Description	Simulates the ERP stock endpoint, always succeeding with a generated reference
//	@Tags			mock-erp
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.MockStockRequest	true	"Stock update"
//	@Success		200		{object}	dto.Response
//	@Router			/mock-erp/stock [post]
func (h *MockERPHandler) UpdateStock(c *gin.Context) {
	var req dto.MockStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid stock update payload")
		return
	}

	items := make([]appsync.MockStockItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, appsync.MockStockItem{
			SKU: item.SKU,
			Qty: item.Qty,
		})
	}

	result := h.management.MockUpdateStock(c.Request.Context(), items, req.OrderIncrementID, req.IdempotencyKey)
	h.Success(c, result)
}

// RegisterRoutes registers the mock ERP routes
func (h *MockERPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mock := rg.Group("/mock-erp")
	{
		mock.POST("/stock", h.UpdateStock)
	}
}
