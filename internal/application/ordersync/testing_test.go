package ordersync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/domain/shared"
)

// fakeRecordRepo is an in-memory SyncRecordRepository for service tests
type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*ordersync.SyncRecord

	saveErr         error
	claimErr        error
	releaseStaleErr error
	saveCalls       int
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]*ordersync.SyncRecord)}
}

func (f *fakeRecordRepo) Save(_ context.Context, record *ordersync.SyncRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, exists := f.records[record.ID]; !exists {
		for _, existing := range f.records {
			if existing.OrderID == record.OrderID || existing.IdempotencyKey == record.IdempotencyKey {
				return ordersync.ErrDuplicateRecord
			}
		}
	}
	clone := *record
	f.records[record.ID] = &clone
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*ordersync.SyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, ordersync.ErrRecordNotFound
}

func (f *fakeRecordRepo) GetByOrderID(_ context.Context, orderID string) (*ordersync.SyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.OrderID == orderID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ordersync.ErrRecordNotFound
}

func (f *fakeRecordRepo) GetByIncrementID(_ context.Context, incrementID string) (*ordersync.SyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.OrderIncrementID == incrementID {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ordersync.ErrRecordNotFound
}

func (f *fakeRecordRepo) GetByIdempotencyKey(_ context.Context, key string) (*ordersync.SyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.IdempotencyKey == key {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ordersync.ErrRecordNotFound
}

func (f *fakeRecordRepo) List(_ context.Context, filter ordersync.RecordFilter) ([]ordersync.SyncRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ordersync.SyncRecord
	for _, r := range f.records {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRecordRepo) FindDue(_ context.Context, now time.Time, limit int) ([]ordersync.SyncRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []ordersync.SyncRecord
	for _, r := range f.records {
		if r.IsDue(now) {
			due = append(due, *r)
		}
		if len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (f *fakeRecordRepo) ReleaseStale(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseStaleErr != nil {
		return 0, f.releaseStaleErr
	}
	var released int64
	for _, r := range f.records {
		if r.Status == ordersync.SyncStatusInProgress && !r.UpdatedAt.After(before) {
			r.Status = ordersync.SyncStatusQueued
			released++
		}
	}
	return released, nil
}

func (f *fakeRecordRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, expected []ordersync.SyncStatus, target ordersync.SyncStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return f.claimErr
	}
	r, ok := f.records[id]
	if !ok {
		return ordersync.ErrRecordNotFound
	}
	for _, status := range expected {
		if r.Status == status {
			r.Status = target
			return nil
		}
	}
	return ordersync.ErrRecordClaimed
}

func (f *fakeRecordRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return ordersync.ErrRecordNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRecordRepo) mustGet(id uuid.UUID) *ordersync.SyncRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *f.records[id]
	return &clone
}

var _ ordersync.SyncRecordRepository = (*fakeRecordRepo)(nil)

// fakeOrderStore is an in-memory OrderStore
type fakeOrderStore struct {
	mu            sync.Mutex
	orders        map[string]*ordersync.Order
	markSyncedErr error
	synced        map[string]string
}

func newFakeOrderStore(orders ...*ordersync.Order) *fakeOrderStore {
	s := &fakeOrderStore{
		orders: make(map[string]*ordersync.Order),
		synced: make(map[string]string),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (f *fakeOrderStore) GetByID(_ context.Context, orderID string) (*ordersync.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, ordersync.ErrOrderNotFound
}

func (f *fakeOrderStore) GetByIncrementID(_ context.Context, incrementID string) (*ordersync.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IncrementID == incrementID {
			return o, nil
		}
	}
	return nil, ordersync.ErrOrderNotFound
}

func (f *fakeOrderStore) MarkSynced(_ context.Context, orderID string, erpReference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markSyncedErr != nil {
		return f.markSyncedErr
	}
	f.synced[orderID] = erpReference
	if o, ok := f.orders[orderID]; ok {
		o.ERPSynced = true
	}
	return nil
}

var _ ordersync.OrderStore = (*fakeOrderStore)(nil)

// fakeERPClient returns canned responses in order, repeating the last one
type fakeERPClient struct {
	mu        sync.Mutex
	responses []*ordersync.ERPResponse
	err       error
	calls     int
	lastKey   string
	connected bool
}

func (f *fakeERPClient) SendOrder(_ context.Context, _ ordersync.OrderPayload, idempotencyKey string) (*ordersync.ERPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKey = idempotencyKey
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeERPClient) TestConnection(_ context.Context) bool {
	return f.connected
}

var _ ordersync.ERPClient = (*fakeERPClient)(nil)

// capturePublisher records every published event
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var _ shared.EventPublisher = (*capturePublisher)(nil)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.BaseDelay = time.Minute
	return cfg
}

func newTestService(repo *fakeRecordRepo, orders *fakeOrderStore, client *fakeERPClient, events shared.EventPublisher, cfg Config) *SyncService {
	return NewSyncService(repo, orders, client, events, cfg, zap.NewNop())
}
