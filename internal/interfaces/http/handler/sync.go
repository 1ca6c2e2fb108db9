package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/erpsync/backend/internal/application/ordersync"
	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes the order synchronization API: triggering syncs,
// querying state, listing records and running the retry sweep
type SyncHandler struct {
	BaseHandler
	management *appsync.Management
	sweeper    *appsync.SweepRunner
	adminGuard gin.HandlerFunc
}

// NewSyncHandler creates a new SyncHandler. adminGuard protects the
// administrative routes (manual sweep, record deletion).
func NewSyncHandler(management *appsync.Management, sweeper *appsync.SweepRunner, adminGuard gin.HandlerFunc) *SyncHandler {
	return &SyncHandler{
		management: management,
		sweeper:    sweeper,
		adminGuard: adminGuard,
	}
}

// SyncOrder godoc
//
//	@ID				syncOrderSync
//	@Summary		Synchronize an order to the ERP
//	@Description	Creates or reuses the order's sync record and runs one sync attempt
//	@Tags			sync
//	@Produce		json
//	@Param			incrementId	path		string	true	"Order increment ID"
//	@Success		200			{object}	dto.Response
//	@Failure		404			{object}	dto.Response
//	@Failure		503			{object}	dto.Response
//	@Router			/sync/orders/{incrementId} [post]
func (h *SyncHandler) SyncOrder(c *gin.Context) {
	var req dto.IncrementIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid order increment id")
		return
	}

	result, err := h.management.SyncOrder(c.Request.Context(), req.IncrementID)
	if err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.Success(c, result)
}

// ResyncOrder godoc
//
//	@ID				resyncOrderSync
//	@Summary		Force another sync attempt for an order
//	@Description	Resets backoff state on the order's sync record and runs one sync attempt
//	@Tags			sync
//	@Produce		json
//	@Param			incrementId	path		string	true	"Order increment ID"
//	@Success		200			{object}	dto.Response
//	@Failure		404			{object}	dto.Response
//	@Failure		503			{object}	dto.Response
//	@Router			/sync/orders/{incrementId}/resync [post]
func (h *SyncHandler) ResyncOrder(c *gin.Context) {
	var req dto.IncrementIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid order increment id")
		return
	}

	result, err := h.management.ResyncOrder(c.Request.Context(), req.IncrementID)
	if err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.Success(c, result)
}

// GetSyncStatus godoc
//
//	@ID				getSyncStatusSync
//	@Summary		Get the sync state of an order
//	@Description	Returns the order's sync record, or a not_synced placeholder when none exists
//	@Tags			sync
//	@Produce		json
//	@Param			incrementId	path		string	true	"Order increment ID"
//	@Success		200			{object}	dto.Response
//	@Router			/sync/orders/{incrementId}/status [get]
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	var req dto.IncrementIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid order increment id")
		return
	}

	result, err := h.management.GetSyncStatus(c.Request.Context(), req.IncrementID)
	if err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.Success(c, result)
}

// ListRecords godoc
//
//	@ID				listRecordsSync
//	@Summary		List sync records
//	@Description	Returns sync records filtered by status, paginated, oldest first
//	@Tags			sync
//	@Produce		json
//	@Param			status		query		string	false	"Filter by sync status"
//	@Param			page		query		int		false	"Page number"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	dto.Response
//	@Router			/sync/records [get]
func (h *SyncHandler) ListRecords(c *gin.Context) {
	var req dto.ListSyncRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters")
		return
	}
	req.Normalize()

	filter := ordersync.RecordFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := ordersync.SyncStatus(req.Status)
		filter.Status = &status
	}

	records, total, err := h.management.ListRecords(c.Request.Context(), filter)
	if err != nil {
		h.handleSyncError(c, err)
		return
	}

	items := make([]dto.SyncRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.SyncRecordResponseFromDomain(&records[i]))
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// DeleteRecord godoc
//
//	@ID				deleteRecordSync
//	@Summary		Delete a sync record
//	@Description	Removes a sync record by ID. Administrative use only.
//	@Tags			sync
//	@Produce		json
//	@Param			id	path	string	true	"Sync record ID"
//	@Success		204
//	@Failure		404	{object}	dto.Response
//	@Router			/sync/records/{id} [delete]
func (h *SyncHandler) DeleteRecord(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid sync record id")
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid sync record id")
		return
	}

	if err := h.management.DeleteRecord(c.Request.Context(), id); err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.NoContent(c)
}

// RunSweep godoc
//
//	@ID				runSweepSync
//	@Summary		Run the retry sweep once
//	@Description	Picks up due sync records and runs one sync attempt each
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/sync/run [post]
func (h *SyncHandler) RunSweep(c *gin.Context) {
	result, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		h.handleSyncError(c, err)
		return
	}
	h.Success(c, result)
}

// TestConnection godoc
//
//	@ID				testConnectionSync
//	@Summary		Probe the ERP health endpoint
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/sync/connection [get]
func (h *SyncHandler) TestConnection(c *gin.Context) {
	connected := h.management.TestConnection(c.Request.Context())
	message := "ERP endpoint reachable"
	if !connected {
		message = "ERP endpoint unreachable"
	}
	h.Success(c, dto.ConnectionTestResponse{
		Connected: connected,
		Message:   message,
	})
}

// handleSyncError maps sync domain sentinels to API error responses
func (h *SyncHandler) handleSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ordersync.ErrSyncDisabled):
		h.ErrorWithCode(c, dto.ErrCodeSyncDisabled, "order synchronization is disabled")
	case errors.Is(err, ordersync.ErrOrderNotFound):
		h.NotFound(c, "order not found")
	case errors.Is(err, ordersync.ErrRecordNotFound):
		h.NotFound(c, "sync record not found")
	case errors.Is(err, ordersync.ErrRecordInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, "a sync attempt for this order is in progress")
	case errors.Is(err, ordersync.ErrDuplicateRecord):
		h.Conflict(c, "a sync record for this order already exists")
	default:
		h.HandleError(c, err)
	}
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/orders/:incrementId", h.SyncOrder)
		sync.POST("/orders/:incrementId/resync", h.ResyncOrder)
		sync.GET("/orders/:incrementId/status", h.GetSyncStatus)
		sync.GET("/records", h.ListRecords)
		sync.GET("/connection", h.TestConnection)

		admin := sync.Group("")
		if h.adminGuard != nil {
			admin.Use(h.adminGuard)
		}
		admin.DELETE("/records/:id", h.DeleteRecord)
		admin.POST("/run", h.RunSweep)
	}
}
