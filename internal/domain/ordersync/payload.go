package ordersync

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPayload is the JSON body sent to the ERP for one order
type OrderPayload struct {
	OrderIncrementID  string          `json:"order_increment_id"`
	OrderID           string          `json:"order_id"`
	CustomerEmail     string          `json:"customer_email"`
	CustomerFirstname string          `json:"customer_firstname"`
	CustomerLastname  string          `json:"customer_lastname"`
	Items             []PayloadItem   `json:"items"`
	Totals            PayloadTotals   `json:"totals"`
	BillingAddress    *PayloadAddress `json:"billing_address"`
	ShippingAddress   *PayloadAddress `json:"shipping_address"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

// PayloadItem is one exported order line
type PayloadItem struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Qty      decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	RowTotal decimal.Decimal `json:"row_total"`
}

// PayloadTotals carries the order's money summary
type PayloadTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// PayloadAddress is a postal address as sent to the ERP
type PayloadAddress struct {
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	Street    []string `json:"street"`
	City      string   `json:"city"`
	Region    string   `json:"region"`
	Postcode  string   `json:"postcode"`
	CountryID string   `json:"country_id"`
	Telephone string   `json:"telephone"`
}

// BuildOrderPayload flattens an order into the wire shape. Composite parent
// lines are skipped and the shipping address is omitted for virtual orders.
func BuildOrderPayload(order *Order) OrderPayload {
	leaves := order.LeafItems()
	items := make([]PayloadItem, 0, len(leaves))
	for _, it := range leaves {
		items = append(items, PayloadItem{
			SKU:      it.SKU,
			Name:     it.Name,
			Qty:      it.Qty,
			Price:    it.Price,
			RowTotal: it.RowTotal,
		})
	}

	payload := OrderPayload{
		OrderIncrementID:  order.IncrementID,
		OrderID:           order.ID,
		CustomerEmail:     order.CustomerEmail,
		CustomerFirstname: order.CustomerFirstname,
		CustomerLastname:  order.CustomerLastname,
		Items:             items,
		Totals: PayloadTotals{
			Subtotal:   order.Subtotal,
			Tax:        order.TaxAmount,
			Shipping:   order.ShippingAmount,
			Discount:   order.DiscountAmount,
			GrandTotal: order.GrandTotal,
		},
		BillingAddress: payloadAddress(order.BillingAddress),
		CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      order.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if !order.IsVirtual {
		payload.ShippingAddress = payloadAddress(order.ShippingAddress)
	}
	return payload
}

func payloadAddress(a *Address) *PayloadAddress {
	if a == nil {
		return nil
	}
	return &PayloadAddress{
		Firstname: a.Firstname,
		Lastname:  a.Lastname,
		Street:    a.Street,
		City:      a.City,
		Region:    a.Region,
		Postcode:  a.Postcode,
		CountryID: a.CountryID,
		Telephone: a.Telephone,
	}
}
