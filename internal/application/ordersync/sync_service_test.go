package ordersync

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

func serviceTestOrder() *ordersync.Order {
	return &ordersync.Order{
		ID:            "42",
		IncrementID:   "100000999",
		CustomerEmail: "buyer@example.com",
		Items: []ordersync.OrderItem{
			{SKU: "MUG-1", Name: "Mug", Qty: decimal.NewFromInt(1), Price: decimal.NewFromFloat(9.90), RowTotal: decimal.NewFromFloat(9.90)},
		},
		GrandTotal:     decimal.NewFromFloat(9.90),
		BillingAddress: &ordersync.Address{Firstname: "Jane", Lastname: "Doe"},
		CreatedAt:      time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateForOrder(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()

	t.Run("creates pending record with deterministic key", func(t *testing.T) {
		repo := newFakeRecordRepo()
		svc := newTestService(repo, newFakeOrderStore(order), &fakeERPClient{}, nil, testConfig())

		record, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)

		assert.Equal(t, ordersync.SyncStatusPending, record.Status)
		assert.Equal(t, "42", record.OrderID)
		assert.Equal(t, 3, record.MaxAttempts)
		assert.Equal(t, ordersync.NewIdempotencyKeyGenerator().Generate(order), record.IdempotencyKey)
	})

	t.Run("returns the existing record unchanged", func(t *testing.T) {
		repo := newFakeRecordRepo()
		svc := newTestService(repo, newFakeOrderStore(order), &fakeERPClient{}, nil, testConfig())

		first, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)
		second, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.IdempotencyKey, second.IdempotencyKey)
	})

	t.Run("recovers from a lost creation race", func(t *testing.T) {
		repo := newFakeRecordRepo()
		svc := newTestService(repo, newFakeOrderStore(order), &fakeERPClient{}, nil, testConfig())

		// Another worker creates the record between lookup and save
		winner := ordersync.NewSyncRecord(order.ID, order.IncrementID, "ERP_winner", 3)
		require.NoError(t, repo.Save(ctx, winner))

		record, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)
		assert.Equal(t, winner.ID, record.ID)
	})
}

func TestProcessSyncSuccess(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	orders := newFakeOrderStore(order)
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(200, `{"status":"ok","erp_reference":"SO-1001"}`),
	}}
	events := &capturePublisher{}
	svc := newTestService(repo, orders, client, events, testConfig())

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	res, err := svc.ProcessSync(ctx, record)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Warning)
	assert.Equal(t, ordersync.SyncStatusSuccess, record.Status)
	assert.Equal(t, "SO-1001", record.ERPReference)
	assert.Equal(t, 1, record.Attempts)
	assert.NotEmpty(t, record.Payload)
	assert.NotEmpty(t, record.Response)
	assert.Equal(t, record.IdempotencyKey, client.lastKey)
	assert.Equal(t, "SO-1001", orders.synced["42"])
	assert.Contains(t, events.types(), ordersync.EventTypeSyncSucceeded)

	stored := repo.mustGet(record.ID)
	assert.Equal(t, ordersync.SyncStatusSuccess, stored.Status)
}

func TestProcessSyncRetryableFailure(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(503, `{"error":"erp unavailable"}`),
	}}
	svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	res, err := svc.ProcessSync(ctx, record)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, ordersync.SyncStatusQueued, record.Status)
	assert.Equal(t, 1, record.Attempts)
	assert.Equal(t, "erp unavailable", record.LastError)
	// delay after the first attempt is base * 2^1
	require.NotNil(t, record.NextAttemptAt)
	assert.Equal(t, base.Add(2*time.Minute), *record.NextAttemptAt)
}

func TestProcessSyncNonRetryableFailure(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(422, `{"error":"invalid order"}`),
	}}
	events := &capturePublisher{}
	svc := newTestService(repo, newFakeOrderStore(order), client, events, testConfig())

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	res, err := svc.ProcessSync(ctx, record)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, ordersync.SyncStatusFailed, record.Status)
	assert.Equal(t, 1, record.Attempts)
	assert.Equal(t, "invalid order", record.LastError)
	assert.Nil(t, record.NextAttemptAt)
	assert.Contains(t, events.types(), ordersync.EventTypeSyncFailed)
}

func TestProcessSyncExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(0, "dial tcp: i/o timeout"),
	}}
	events := &capturePublisher{}
	cfg := testConfig()
	cfg.MaxAttempts = 2
	svc := newTestService(repo, newFakeOrderStore(order), client, events, cfg)

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	// First attempt reschedules, second fails terminally
	_, err = svc.ProcessSync(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, ordersync.SyncStatusQueued, record.Status)

	_, err = svc.ProcessSync(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, ordersync.SyncStatusFailed, record.Status)
	assert.Equal(t, 2, record.Attempts)
	assert.Contains(t, events.types(), ordersync.EventTypeSyncFailed)
}

func TestProcessSyncReusesIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(500, `{"error":"boom"}`),
		ordersync.NewERPResponse(200, `{"erp_reference":"SO-1001"}`),
	}}
	svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)
	key := record.IdempotencyKey

	_, err = svc.ProcessSync(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, key, client.lastKey)

	_, err = svc.ProcessSync(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, key, client.lastKey)
	assert.Equal(t, ordersync.SyncStatusSuccess, record.Status)
}

func TestProcessSyncSkipsSettledAndClaimedRecords(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()

	t.Run("successful record is a no-op", func(t *testing.T) {
		repo := newFakeRecordRepo()
		client := &fakeERPClient{}
		svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())

		record, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)
		record.MarkSuccess("SO-1")

		res, err := svc.ProcessSync(ctx, record)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Zero(t, client.calls)
	})

	t.Run("claimed record is skipped", func(t *testing.T) {
		repo := newFakeRecordRepo()
		client := &fakeERPClient{}
		svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())

		record, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)
		// Another worker already moved the record in flight
		require.NoError(t, repo.UpdateStatusIf(ctx, record.ID, ordersync.DueStatuses(), ordersync.SyncStatusInProgress))

		_, err = svc.ProcessSync(ctx, record)
		assert.ErrorIs(t, err, ordersync.ErrRecordClaimed)
		assert.Zero(t, client.calls)
	})
}

func TestProcessSyncAbsorbsPreRequestFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing order schedules retry", func(t *testing.T) {
		repo := newFakeRecordRepo()
		client := &fakeERPClient{}
		svc := newTestService(repo, newFakeOrderStore(), client, nil, testConfig())

		record := ordersync.NewSyncRecord("404", "100000404", "ERP_x", 3)
		require.NoError(t, repo.Save(ctx, record))

		res, err := svc.ProcessSync(ctx, record)
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, ordersync.SyncStatusQueued, record.Status)
		assert.Equal(t, 1, record.Attempts)
		assert.Contains(t, record.LastError, "failed to load order")
		assert.Zero(t, client.calls)
	})

	t.Run("client configuration error schedules retry", func(t *testing.T) {
		order := serviceTestOrder()
		repo := newFakeRecordRepo()
		client := &fakeERPClient{err: ordersync.ErrMissingBaseURL}
		svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())

		record, err := svc.CreateForOrder(ctx, order)
		require.NoError(t, err)

		res, err := svc.ProcessSync(ctx, record)
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, ordersync.SyncStatusQueued, record.Status)
		assert.Contains(t, record.LastError, "base URL")
	})
}

func TestProcessSyncReleasesClaimWhenSnapshotSaveFails(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	client := &fakeERPClient{}
	svc := newTestService(repo, newFakeOrderStore(order), client, nil, testConfig())

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	repo.saveErr = assert.AnError

	_, err = svc.ProcessSync(ctx, record)
	require.Error(t, err)

	// No ERP call was made, so the claim must be released for the next sweep
	assert.Zero(t, client.calls)
	stored := repo.mustGet(record.ID)
	assert.Equal(t, ordersync.SyncStatusQueued, stored.Status)
	assert.Equal(t, 0, stored.Attempts)
}

func TestProcessSyncMarkSyncedBestEffort(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	orders := newFakeOrderStore(order)
	orders.markSyncedErr = assert.AnError
	client := &fakeERPClient{responses: []*ordersync.ERPResponse{
		ordersync.NewERPResponse(200, `{"erp_reference":"SO-1001"}`),
	}}
	svc := newTestService(repo, orders, client, nil, testConfig())

	record, err := svc.CreateForOrder(ctx, order)
	require.NoError(t, err)

	res, err := svc.ProcessSync(ctx, record)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, ordersync.SyncStatusSuccess, record.Status)
}

func TestEnqueueAndReschedule(t *testing.T) {
	ctx := context.Background()
	order := serviceTestOrder()
	repo := newFakeRecordRepo()
	svc := newTestService(repo, newFakeOrderStore(order), &fakeERPClient{}, nil, testConfig())
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	record, err := svc.Enqueue(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, ordersync.SyncStatusQueued, record.Status)
	require.NotNil(t, record.NextAttemptAt)
	assert.Equal(t, now, *record.NextAttemptAt)

	record.MarkFailed("gave up")
	require.NoError(t, repo.Save(ctx, record))

	require.NoError(t, svc.Reschedule(ctx, record))
	assert.Equal(t, ordersync.SyncStatusQueued, record.Status)
	assert.Empty(t, record.LastError)

	stored := repo.mustGet(record.ID)
	assert.Equal(t, ordersync.SyncStatusQueued, stored.Status)
}
