package ordersync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

func newTestManagement(repo *fakeRecordRepo, orders *fakeOrderStore, client *fakeERPClient, cfg Config) *Management {
	svc := newTestService(repo, orders, client, nil, cfg)
	return NewManagement(svc, repo, orders, client, cfg, zap.NewNop())
}

func TestManagementSyncOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs a known order", func(t *testing.T) {
		order := serviceTestOrder()
		repo := newFakeRecordRepo()
		client := &fakeERPClient{responses: []*ordersync.ERPResponse{
			ordersync.NewERPResponse(200, `{"erp_reference":"SO-1001"}`),
		}}
		mgmt := newTestManagement(repo, newFakeOrderStore(order), client, testConfig())

		result, err := mgmt.SyncOrder(ctx, "100000999")
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, "100000999", result.OrderIncrementID)
		assert.Equal(t, "success", result.Status)
		assert.Equal(t, "SO-1001", result.ERPReference)
		assert.Equal(t, 1, result.Attempts)
	})

	t.Run("fails when sync is disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Enabled = false
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, cfg)

		_, err := mgmt.SyncOrder(ctx, "100000999")
		assert.ErrorIs(t, err, ordersync.ErrSyncDisabled)
	})

	t.Run("fails for unknown order", func(t *testing.T) {
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, testConfig())

		_, err := mgmt.SyncOrder(ctx, "100000404")
		assert.ErrorIs(t, err, ordersync.ErrOrderNotFound)
	})

	t.Run("reports failure details without an error", func(t *testing.T) {
		order := serviceTestOrder()
		repo := newFakeRecordRepo()
		client := &fakeERPClient{responses: []*ordersync.ERPResponse{
			ordersync.NewERPResponse(422, `{"error":"invalid order"}`),
		}}
		mgmt := newTestManagement(repo, newFakeOrderStore(order), client, testConfig())

		result, err := mgmt.SyncOrder(ctx, "100000999")
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, "failed", result.Status)
		assert.Equal(t, "invalid order", result.Message)
		assert.Equal(t, "invalid order", result.LastError)
	})
}

func TestManagementResyncOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("resets backoff and retries a failed record", func(t *testing.T) {
		order := serviceTestOrder()
		repo := newFakeRecordRepo()
		client := &fakeERPClient{responses: []*ordersync.ERPResponse{
			ordersync.NewERPResponse(422, `{"error":"invalid order"}`),
			ordersync.NewERPResponse(200, `{"erp_reference":"SO-1001"}`),
		}}
		mgmt := newTestManagement(repo, newFakeOrderStore(order), client, testConfig())

		first, err := mgmt.SyncOrder(ctx, "100000999")
		require.NoError(t, err)
		require.False(t, first.Success)

		second, err := mgmt.ResyncOrder(ctx, "100000999")
		require.NoError(t, err)

		assert.True(t, second.Success)
		assert.Equal(t, "SO-1001", second.ERPReference)
		assert.Equal(t, 2, second.Attempts)
	})

	t.Run("behaves like a first sync without a record", func(t *testing.T) {
		order := serviceTestOrder()
		client := &fakeERPClient{responses: []*ordersync.ERPResponse{
			ordersync.NewERPResponse(200, `{"erp_reference":"SO-1001"}`),
		}}
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(order), client, testConfig())

		result, err := mgmt.ResyncOrder(ctx, "100000999")
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("fails when sync is disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Enabled = false
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, cfg)

		_, err := mgmt.ResyncOrder(ctx, "100000999")
		assert.ErrorIs(t, err, ordersync.ErrSyncDisabled)
	})
}

func TestManagementGetSyncStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("synthetic status without a record", func(t *testing.T) {
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, testConfig())

		status, err := mgmt.GetSyncStatus(ctx, "100000999")
		require.NoError(t, err)

		assert.Equal(t, StatusNotSynced, status.Status)
		assert.Equal(t, "100000999", status.OrderIncrementID)
		assert.Empty(t, status.SyncID)
	})

	t.Run("full read model with a record", func(t *testing.T) {
		repo := newFakeRecordRepo()
		record := ordersync.NewSyncRecord("42", "100000999", "ERP_x", 3)
		record.MarkSuccess("SO-1001")
		require.NoError(t, repo.Save(ctx, record))
		mgmt := newTestManagement(repo, newFakeOrderStore(), &fakeERPClient{}, testConfig())

		status, err := mgmt.GetSyncStatus(ctx, "100000999")
		require.NoError(t, err)

		assert.Equal(t, record.ID.String(), status.SyncID)
		assert.Equal(t, "success", status.Status)
		assert.Equal(t, "SO-1001", status.ERPReference)
		assert.Equal(t, 3, status.MaxAttempts)
	})

	t.Run("works when sync is disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Enabled = false
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, cfg)

		status, err := mgmt.GetSyncStatus(ctx, "100000999")
		require.NoError(t, err)
		assert.Equal(t, StatusNotSynced, status.Status)
	})
}

func TestManagementDeleteRecord(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRecordRepo()
	record := ordersync.NewSyncRecord("42", "100000999", "ERP_x", 3)
	require.NoError(t, repo.Save(ctx, record))
	mgmt := newTestManagement(repo, newFakeOrderStore(), &fakeERPClient{}, testConfig())

	require.NoError(t, mgmt.DeleteRecord(ctx, record.ID))

	_, err := repo.GetByID(ctx, record.ID)
	assert.ErrorIs(t, err, ordersync.ErrRecordNotFound)

	err = mgmt.DeleteRecord(ctx, uuid.New())
	assert.ErrorIs(t, err, ordersync.ErrRecordNotFound)
}

func TestManagementProcessWebhook(t *testing.T) {
	ctx := context.Background()

	newRecord := func(t *testing.T, repo *fakeRecordRepo) *ordersync.SyncRecord {
		t.Helper()
		record := ordersync.NewSyncRecord("42", "100000999", "ERP_x", 3)
		require.NoError(t, repo.Save(ctx, record))
		return record
	}

	t.Run("accepted marks the record successful", func(t *testing.T) {
		repo := newFakeRecordRepo()
		record := newRecord(t, repo)
		orders := newFakeOrderStore(serviceTestOrder())
		mgmt := newTestManagement(repo, orders, &fakeERPClient{}, testConfig())

		result, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusAccepted, "")
		require.NoError(t, err)

		assert.True(t, result.Success)
		stored := repo.mustGet(record.ID)
		assert.Equal(t, ordersync.SyncStatusSuccess, stored.Status)
		assert.Equal(t, "SO-1001", stored.ERPReference)
		assert.Equal(t, "SO-1001", orders.synced["42"])
	})

	t.Run("rejected marks the record failed", func(t *testing.T) {
		repo := newFakeRecordRepo()
		record := newRecord(t, repo)
		mgmt := newTestManagement(repo, newFakeOrderStore(), &fakeERPClient{}, testConfig())

		result, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusRejected, "")
		require.NoError(t, err)

		assert.True(t, result.Success)
		stored := repo.mustGet(record.ID)
		assert.Equal(t, ordersync.SyncStatusFailed, stored.Status)
		assert.Contains(t, stored.LastError, "rejected by ERP")
	})

	t.Run("unknown status is acknowledged without state change", func(t *testing.T) {
		repo := newFakeRecordRepo()
		record := newRecord(t, repo)
		mgmt := newTestManagement(repo, newFakeOrderStore(), &fakeERPClient{}, testConfig())

		result, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", "shipped", "")
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Contains(t, result.Message, "shipped")
		stored := repo.mustGet(record.ID)
		assert.Equal(t, ordersync.SyncStatusPending, stored.Status)
	})

	t.Run("verifies the signature when configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.HMACSecret = "secret"
		repo := newFakeRecordRepo()
		newRecord(t, repo)
		mgmt := newTestManagement(repo, newFakeOrderStore(serviceTestOrder()), &fakeERPClient{}, cfg)

		valid := ordersync.WebhookSignature("secret", "100000999", "SO-1001", ordersync.WebhookStatusSuccess)
		_, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusSuccess, valid)
		assert.NoError(t, err)

		_, err = mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusSuccess, "bogus")
		assert.ErrorIs(t, err, ordersync.ErrSignatureMismatch)
	})

	t.Run("accepts unsigned callbacks without a secret", func(t *testing.T) {
		repo := newFakeRecordRepo()
		newRecord(t, repo)
		mgmt := newTestManagement(repo, newFakeOrderStore(serviceTestOrder()), &fakeERPClient{}, testConfig())

		_, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusSuccess, "")
		assert.NoError(t, err)
	})

	t.Run("rejects callbacks for in-flight records", func(t *testing.T) {
		repo := newFakeRecordRepo()
		record := newRecord(t, repo)
		require.NoError(t, repo.UpdateStatusIf(ctx, record.ID, ordersync.DueStatuses(), ordersync.SyncStatusInProgress))
		mgmt := newTestManagement(repo, newFakeOrderStore(), &fakeERPClient{}, testConfig())

		_, err := mgmt.ProcessWebhook(ctx, "100000999", "SO-1001", ordersync.WebhookStatusSuccess, "")
		assert.ErrorIs(t, err, ordersync.ErrRecordInProgress)
	})

	t.Run("fails for unknown records", func(t *testing.T) {
		mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, testConfig())

		_, err := mgmt.ProcessWebhook(ctx, "100000404", "", ordersync.WebhookStatusSuccess, "")
		assert.ErrorIs(t, err, ordersync.ErrRecordNotFound)
	})
}

func TestManagementMockUpdateStock(t *testing.T) {
	mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, testConfig())
	items := []MockStockItem{{SKU: "MUG-1", Qty: 2}}

	t.Run("echoes the supplied key", func(t *testing.T) {
		result := mgmt.MockUpdateStock(context.Background(), items, "100000999", "ERP_custom")

		assert.True(t, result.OK)
		assert.Equal(t, "ERP_custom", result.IdempotencyKey)
		assert.Contains(t, result.ERPReference, "MOCK-")
		assert.Equal(t, items, result.Items)
	})

	t.Run("generates a key when none supplied", func(t *testing.T) {
		result := mgmt.MockUpdateStock(context.Background(), items, "100000999", "")

		assert.True(t, result.OK)
		assert.Contains(t, result.IdempotencyKey, "ERP_")
	})
}

func TestManagementTestConnection(t *testing.T) {
	mgmt := newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{connected: true}, testConfig())
	assert.True(t, mgmt.TestConnection(context.Background()))

	mgmt = newTestManagement(newFakeRecordRepo(), newFakeOrderStore(), &fakeERPClient{}, testConfig())
	assert.False(t, mgmt.TestConnection(context.Background()))
}
