package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/erpsync/backend/internal/domain/ordersync"
	"github.com/erpsync/backend/internal/infrastructure/persistence/models"
)

// GormOrderStore implements the OrderStore collaborator over the local order
// mirror. The commerce platform owns the orders; this store only reads them
// and maintains the erp_synced flag.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GormOrderStore
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// GetByID loads an order by its internal identifier
func (s *GormOrderStore) GetByID(ctx context.Context, orderID string) (*ordersync.Order, error) {
	var model models.OrderModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByIncrementID loads an order by its human-facing number
func (s *GormOrderStore) GetByIncrementID(ctx context.Context, incrementID string) (*ordersync.Order, error) {
	var model models.OrderModel
	if err := s.db.WithContext(ctx).First(&model, "increment_id = ?", incrementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordersync.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// MarkSynced flags the order as pushed to the ERP
func (s *GormOrderStore) MarkSynced(ctx context.Context, orderID string, erpReference string) error {
	result := s.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"erp_synced":    true,
			"erp_reference": erpReference,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ordersync.ErrOrderNotFound
	}
	return nil
}

// Save inserts or updates an order in the mirror. Used by ingestion and by
// tests; the sync engine itself never writes orders through this path.
func (s *GormOrderStore) Save(ctx context.Context, order *ordersync.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return s.db.WithContext(ctx).Save(&model).Error
}

var _ ordersync.OrderStore = (*GormOrderStore)(nil)
