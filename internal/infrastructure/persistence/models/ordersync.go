package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erpsync/backend/internal/domain/ordersync"
)

// SyncRecordModel is the persistence model for the SyncRecord domain entity.
type SyncRecordModel struct {
	BaseModel
	OrderID          string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_sync_record_order"`
	OrderIncrementID string     `gorm:"type:varchar(50);not null;index:idx_sync_record_increment"`
	Status           string     `gorm:"type:varchar(20);not null;index:idx_sync_record_status"`
	Attempts         int        `gorm:"not null;default:0"`
	MaxAttempts      int        `gorm:"not null"`
	LastAttemptAt    *time.Time
	NextAttemptAt    *time.Time `gorm:"index:idx_sync_record_next_attempt"`
	LastError        string     `gorm:"type:text"`
	ERPReference     string     `gorm:"type:varchar(100);column:erp_reference"`
	IdempotencyKey   string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_sync_record_idempotency_key"`
	Payload          string     `gorm:"type:text"`
	Response         string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncRecordModel) TableName() string {
	return "sync_records"
}

// ToDomain converts the persistence model to a domain SyncRecord entity.
func (m *SyncRecordModel) ToDomain() *ordersync.SyncRecord {
	return &ordersync.SyncRecord{
		BaseEntity:       m.BaseModel.ToDomain(),
		OrderID:          m.OrderID,
		OrderIncrementID: m.OrderIncrementID,
		Status:           ordersync.SyncStatus(m.Status),
		Attempts:         m.Attempts,
		MaxAttempts:      m.MaxAttempts,
		LastAttemptAt:    m.LastAttemptAt,
		NextAttemptAt:    m.NextAttemptAt,
		LastError:        m.LastError,
		ERPReference:     m.ERPReference,
		IdempotencyKey:   m.IdempotencyKey,
		Payload:          m.Payload,
		Response:         m.Response,
	}
}

// FromDomain populates the persistence model from a domain SyncRecord entity.
func (m *SyncRecordModel) FromDomain(r *ordersync.SyncRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.OrderID = r.OrderID
	m.OrderIncrementID = r.OrderIncrementID
	m.Status = r.Status.String()
	m.Attempts = r.Attempts
	m.MaxAttempts = r.MaxAttempts
	m.LastAttemptAt = r.LastAttemptAt
	m.NextAttemptAt = r.NextAttemptAt
	m.LastError = r.LastError
	m.ERPReference = r.ERPReference
	m.IdempotencyKey = r.IdempotencyKey
	m.Payload = r.Payload
	m.Response = r.Response
}

// SyncRecordModelFromDomain creates a new persistence model from a domain SyncRecord.
func SyncRecordModelFromDomain(r *ordersync.SyncRecord) *SyncRecordModel {
	m := &SyncRecordModel{}
	m.FromDomain(r)
	return m
}

// OrderModel is the persistence model for the order mirror the sync engine
// reads. Line items and addresses are denormalized as JSON; the sync engine
// never queries inside them.
type OrderModel struct {
	ID             string          `gorm:"type:varchar(50);primary_key"`
	IncrementID    string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_increment"`
	CustomerEmail  string          `gorm:"type:varchar(255)"`
	CustomerFirst  string          `gorm:"type:varchar(100);column:customer_firstname"`
	CustomerLast   string          `gorm:"type:varchar(100);column:customer_lastname"`
	ItemsJSON      string          `gorm:"type:text;column:items"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,4)"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,4)"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,4)"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,4)"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,4)"`
	BillingJSON    string          `gorm:"type:text;column:billing_address"`
	ShippingJSON   string          `gorm:"type:text;column:shipping_address"`
	IsVirtual      bool            `gorm:"not null;default:false"`
	ERPSynced      bool            `gorm:"not null;default:false;column:erp_synced"`
	ERPReference   string          `gorm:"type:varchar(100);column:erp_reference"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *ordersync.Order {
	order := &ordersync.Order{
		ID:                m.ID,
		IncrementID:       m.IncrementID,
		CustomerEmail:     m.CustomerEmail,
		CustomerFirstname: m.CustomerFirst,
		CustomerLastname:  m.CustomerLast,
		Items:             make([]ordersync.OrderItem, 0),
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		ShippingAmount:    m.ShippingAmount,
		DiscountAmount:    m.DiscountAmount,
		GrandTotal:        m.GrandTotal,
		IsVirtual:         m.IsVirtual,
		ERPSynced:         m.ERPSynced,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}

	if m.ItemsJSON != "" {
		var items []ordersync.OrderItem
		if err := json.Unmarshal([]byte(m.ItemsJSON), &items); err == nil {
			order.Items = items
		}
	}
	if m.BillingJSON != "" {
		var addr ordersync.Address
		if err := json.Unmarshal([]byte(m.BillingJSON), &addr); err == nil {
			order.BillingAddress = &addr
		}
	}
	if m.ShippingJSON != "" {
		var addr ordersync.Address
		if err := json.Unmarshal([]byte(m.ShippingJSON), &addr); err == nil {
			order.ShippingAddress = &addr
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *ordersync.Order) {
	m.ID = o.ID
	m.IncrementID = o.IncrementID
	m.CustomerEmail = o.CustomerEmail
	m.CustomerFirst = o.CustomerFirstname
	m.CustomerLast = o.CustomerLastname
	m.Subtotal = o.Subtotal
	m.TaxAmount = o.TaxAmount
	m.ShippingAmount = o.ShippingAmount
	m.DiscountAmount = o.DiscountAmount
	m.GrandTotal = o.GrandTotal
	m.IsVirtual = o.IsVirtual
	m.ERPSynced = o.ERPSynced
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt

	if b, err := json.Marshal(o.Items); err == nil {
		m.ItemsJSON = string(b)
	}
	if o.BillingAddress != nil {
		if b, err := json.Marshal(o.BillingAddress); err == nil {
			m.BillingJSON = string(b)
		}
	} else {
		m.BillingJSON = ""
	}
	if o.ShippingAddress != nil {
		if b, err := json.Marshal(o.ShippingAddress); err == nil {
			m.ShippingJSON = string(b)
		}
	} else {
		m.ShippingJSON = ""
	}
}
