package ordersync

import (
	"context"

	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/domain/shared"
)

// InvoiceCreatedHandler reacts to invoice-created events by submitting the
// order for synchronization: inline when immediate sync is configured,
// otherwise queued for the next sweep. The handler never fails the event;
// errors are logged and swallowed so invoicing is never blocked by the ERP.
type InvoiceCreatedHandler struct {
	service *SyncService
	orders  ordersync.OrderStore
	config  Config
	logger  *zap.Logger
}

// NewInvoiceCreatedHandler creates the invoice event handler
func NewInvoiceCreatedHandler(
	service *SyncService,
	orders ordersync.OrderStore,
	config Config,
	logger *zap.Logger,
) *InvoiceCreatedHandler {
	return &InvoiceCreatedHandler{
		service: service,
		orders:  orders,
		config:  config,
		logger:  logger.Named("invoice-handler"),
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *InvoiceCreatedHandler) EventTypes() []string {
	return []string{ordersync.EventTypeOrderInvoiced}
}

// Handle submits the invoiced order for synchronization
func (h *InvoiceCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	invoiced, ok := event.(*ordersync.OrderInvoicedEvent)
	if !ok {
		return nil
	}
	if !h.config.Enabled {
		return nil
	}

	order, err := h.orders.GetByID(ctx, invoiced.OrderID)
	if err != nil {
		h.logger.Warn("invoiced order could not be loaded",
			zap.String("order_id", invoiced.OrderID),
			zap.Error(err),
		)
		return nil
	}
	if order.ERPSynced {
		return nil
	}

	record, err := h.service.CreateForOrder(ctx, order)
	if err != nil {
		h.logger.Warn("failed to create sync record for invoiced order",
			zap.String("order_increment_id", order.IncrementID),
			zap.Error(err),
		)
		return nil
	}

	if h.config.ImmediateSyncOnInvoice {
		if _, err := h.service.ProcessSync(ctx, record); err != nil {
			h.logger.Warn("immediate sync after invoice failed",
				zap.String("order_increment_id", order.IncrementID),
				zap.Error(err),
			)
		}
		return nil
	}

	if _, err := h.service.Enqueue(ctx, order); err != nil {
		h.logger.Warn("failed to enqueue invoiced order",
			zap.String("order_increment_id", order.IncrementID),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*InvoiceCreatedHandler)(nil)
