package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncRecordRepository implements SyncRecordRepository using GORM
type GormSyncRecordRepository struct {
	db *gorm.DB
}

// NewGormSyncRecordRepository creates a new GormSyncRecordRepository
func NewGormSyncRecordRepository(db *gorm.DB) *GormSyncRecordRepository {
	return &GormSyncRecordRepository{db: db}
}

// Save creates or updates a sync record. The unique constraints on order id
// and idempotency key reject duplicate records.
func (r *GormSyncRecordRepository) Save(ctx context.Context, record *ordersync.SyncRecord) error {
	model := models.SyncRecordModelFromDomain(record)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return ordersync.ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// GetByID finds a record by its surrogate id
func (r *GormSyncRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*ordersync.SyncRecord, error) {
	var model models.SyncRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByOrderID finds the record for an order's internal id
func (r *GormSyncRecordRepository) GetByOrderID(ctx context.Context, orderID string) (*ordersync.SyncRecord, error) {
	var model models.SyncRecordModel
	if err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByIncrementID finds the record for an order's human-facing number
func (r *GormSyncRecordRepository) GetByIncrementID(ctx context.Context, incrementID string) (*ordersync.SyncRecord, error) {
	var model models.SyncRecordModel
	if err := r.db.WithContext(ctx).First(&model, "order_increment_id = ?", incrementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByIdempotencyKey finds a record by its deduplication token
func (r *GormSyncRecordRepository) GetByIdempotencyKey(ctx context.Context, key string) (*ordersync.SyncRecord, error) {
	var model models.SyncRecordModel
	if err := r.db.WithContext(ctx).First(&model, "idempotency_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns records matching the filter ordered oldest first, plus the
// total count
func (r *GormSyncRecordRepository) List(ctx context.Context, filter ordersync.RecordFilter) ([]ordersync.SyncRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncRecordModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var recordModels []models.SyncRecordModel
	if err := query.
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]ordersync.SyncRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}

// FindDue returns up to limit records the sweep should process, oldest first
func (r *GormSyncRecordRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]ordersync.SyncRecord, error) {
	var recordModels []models.SyncRecordModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", statusStrings(ordersync.DueStatuses())).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]ordersync.SyncRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// ReleaseStale requeues records whose in-progress claim predates the cutoff
func (r *GormSyncRecordRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncRecordModel{}).
		Where("status = ? AND updated_at <= ?", ordersync.SyncStatusInProgress.String(), before).
		Updates(map[string]interface{}{
			"status":     ordersync.SyncStatusQueued.String(),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// UpdateStatusIf atomically moves a record from one of the expected states
// to the target state. The conditional UPDATE is what keeps overlapping
// sweeps from double-processing a record.
func (r *GormSyncRecordRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected []ordersync.SyncStatus, target ordersync.SyncStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncRecordModel{}).
		Where("id = ? AND status IN ?", id, statusStrings(expected)).
		Updates(map[string]interface{}{
			"status":     target.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ordersync.ErrRecordClaimed
	}
	return nil
}

// Delete removes a sync record
func (r *GormSyncRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SyncRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ordersync.ErrRecordNotFound
	}
	return nil
}

func statusStrings(statuses []ordersync.SyncStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

// isUniqueViolation detects duplicate-key errors across the postgres and
// sqlite drivers
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

var _ ordersync.SyncRecordRepository = (*GormSyncRecordRepository)(nil)
