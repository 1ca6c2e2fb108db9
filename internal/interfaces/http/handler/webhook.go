package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/erpsync/backend/internal/application/ordersync"
	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/domain/shared"
	"github.com/erpsync/backend/internal/interfaces/http/dto"
)

// DeliveryIDHeader carries the ERP's delivery identifier for webhook
// deduplication. Deliveries without it are processed unconditionally.
const DeliveryIDHeader = "X-Delivery-ID"

// WebhookHandler receives inbound callbacks: ERP status notifications and
// platform invoice-created notifications. These endpoints are called by
// external systems and are authenticated by HMAC signature, not by session.
type WebhookHandler struct {
	BaseHandler
	management  *appsync.Management
	orders      ordersync.OrderStore
	events      shared.EventPublisher
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	management *appsync.Management,
	orders ordersync.OrderStore,
	events shared.EventPublisher,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		management:  management,
		orders:      orders,
		events:      events,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      logger.Named("webhook-handler"),
	}
}

// HandleERPWebhook godoc
//
//	@ID				handleERPWebhookWebhooks
//	@Summary		Handle ERP status callback
//	@Description	Applies an ERP accepted/rejected notification to the order's sync record
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Delivery-ID	header		string					false	"Delivery ID for deduplication"
//	@Param			request			body		dto.ERPWebhookRequest	true	"ERP status notification"
//	@Success		200				{object}	dto.Response
//	@Failure		401				{object}	dto.Response
//	@Failure		404				{object}	dto.Response
//	@Failure		409				{object}	dto.Response
//	@Router			/webhooks/erp [post]
func (h *WebhookHandler) HandleERPWebhook(c *gin.Context) {
	var req dto.ERPWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "invalid webhook payload")
		return
	}

	deliveryID := c.GetHeader(DeliveryIDHeader)
	if deliveryID != "" && h.idemConfig.Enabled {
		processed, err := h.idempotency.IsProcessed(c.Request.Context(), deliveryID)
		if err != nil {
			h.logger.Warn("idempotency check failed, processing anyway",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		} else if processed {
			h.Success(c, &appsync.WebhookResult{
				Success:          true,
				Message:          "delivery already processed",
				OrderIncrementID: req.OrderIncrementID,
			})
			return
		}
	}

	result, err := h.management.ProcessWebhook(
		c.Request.Context(),
		req.OrderIncrementID,
		req.ERPReference,
		req.Status,
		req.Signature,
	)
	if err != nil {
		h.handleWebhookError(c, err)
		return
	}

	if deliveryID != "" && h.idemConfig.Enabled {
		if _, err := h.idempotency.MarkProcessed(c.Request.Context(), deliveryID, h.idemConfig.TTL); err != nil {
			h.logger.Warn("failed to mark delivery as processed",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		}
	}

	h.Success(c, result)
}

// HandleInvoiceWebhook godoc
//
//	@ID				handleInvoiceWebhookWebhooks
//	@Summary		Handle platform invoice-created callback
//	@Description	Publishes an invoice-created event that submits the order for synchronization
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.InvoiceWebhookRequest	true	"Invoice notification"
//	@Success		202		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Router			/webhooks/invoice [post]
func (h *WebhookHandler) HandleInvoiceWebhook(c *gin.Context) {
	var req dto.InvoiceWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "invalid webhook payload")
		return
	}

	order, err := h.orders.GetByIncrementID(c.Request.Context(), req.OrderIncrementID)
	if errors.Is(err, ordersync.ErrOrderNotFound) {
		h.NotFound(c, "order not found")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	event := ordersync.NewOrderInvoicedEvent(order.ID, order.IncrementID)
	if err := h.events.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("failed to publish invoice event",
			zap.String("order_increment_id", order.IncrementID),
			zap.Error(err),
		)
		h.InternalError(c, "failed to process invoice notification")
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{
		"order_increment_id": order.IncrementID,
		"message":            "invoice notification accepted",
	}))
}

// handleWebhookError maps webhook processing errors to API responses
func (h *WebhookHandler) handleWebhookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ordersync.ErrSignatureMismatch):
		h.ErrorWithCode(c, dto.ErrCodeSignatureMismatch, "webhook signature verification failed")
	case errors.Is(err, ordersync.ErrRecordNotFound):
		h.NotFound(c, "no sync record for this order")
	case errors.Is(err, ordersync.ErrRecordInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, "a sync attempt for this order is in progress, retry later")
	default:
		h.HandleError(c, err)
	}
}

// RegisterRoutes registers all webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/erp", h.HandleERPWebhook)
		webhooks.POST("/invoice", h.HandleInvoiceWebhook)
	}
}
