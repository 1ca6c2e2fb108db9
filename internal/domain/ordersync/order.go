package ordersync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order Collaborator
// ---------------------------------------------------------------------------

// Order is the slice of the commerce platform's order model the sync engine
// needs. The order store owns the full model; this type is read-only here.
type Order struct {
	// ID is the platform's internal order identifier
	ID string
	// IncrementID is the human-facing order number
	IncrementID string
	// CustomerEmail is the buyer's email address
	CustomerEmail string
	// CustomerFirstname is the buyer's first name
	CustomerFirstname string
	// CustomerLastname is the buyer's last name
	CustomerLastname string
	// Items are the order lines, including composite parents
	Items []OrderItem
	// Subtotal is the sum of row totals before tax and shipping
	Subtotal decimal.Decimal
	// TaxAmount is the total tax charged
	TaxAmount decimal.Decimal
	// ShippingAmount is the shipping charge
	ShippingAmount decimal.Decimal
	// DiscountAmount is the total discount applied
	DiscountAmount decimal.Decimal
	// GrandTotal is the amount charged to the customer
	GrandTotal decimal.Decimal
	// BillingAddress is always present
	BillingAddress *Address
	// ShippingAddress is nil for orders without physical shipment
	ShippingAddress *Address
	// IsVirtual indicates the order needs no physical shipment
	IsVirtual bool
	// ERPSynced is the best-effort flag set after a successful push
	ERPSynced bool
	// CreatedAt is when the order was placed
	CreatedAt time.Time
	// UpdatedAt is when the order was last modified
	UpdatedAt time.Time
}

// OrderItem is one order line
type OrderItem struct {
	// SKU identifies the product
	SKU string
	// Name is the product name at purchase time
	Name string
	// Qty is the ordered quantity
	Qty decimal.Decimal
	// Price is the unit price
	Price decimal.Decimal
	// RowTotal is price times quantity after line-level adjustments
	RowTotal decimal.Decimal
	// ParentSKU is set on children of composite products; composite parents
	// themselves carry no parent and a HasParent=false child relationship
	ParentSKU string
	// IsComposite marks a parent line (bundle/configurable) that must not be
	// sent to the ERP; only leaf lines with quantities are exported
	IsComposite bool
}

// Address is a postal address on an order
type Address struct {
	Firstname string
	Lastname  string
	Street    []string
	City      string
	Region    string
	Postcode  string
	CountryID string
	Telephone string
}

// LeafItems returns the order lines that are exported to the ERP, skipping
// composite parent lines
func (o *Order) LeafItems() []OrderItem {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.IsComposite {
			continue
		}
		items = append(items, it)
	}
	return items
}

// ---------------------------------------------------------------------------
// OrderStore Interface
// ---------------------------------------------------------------------------

// OrderStore is the read/update collaborator for the commerce platform's
// order data. Lookups return ErrOrderNotFound when no order matches.
type OrderStore interface {
	// GetByID loads an order by its internal identifier
	GetByID(ctx context.Context, orderID string) (*Order, error)

	// GetByIncrementID loads an order by its human-facing number
	GetByIncrementID(ctx context.Context, incrementID string) (*Order, error)

	// MarkSynced flags the order as pushed to the ERP. Callers treat a
	// failure here as non-fatal.
	MarkSynced(ctx context.Context, orderID string, erpReference string) error
}
