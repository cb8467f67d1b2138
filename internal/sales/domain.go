package sales

import (
	"fmt"
	"time"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// Sale is one completed checkout. Item lines snapshot the product name and
// both prices at the moment of sale, so later catalog edits or deletions
// never rewrite history.
type Sale struct {
	ID          string                `json:"id"`
	OccurredAt  time.Time             `json:"date"`
	Items       []SaleItem            `json:"items"`
	TotalAmount float64               `json:"totalAmount"`
	PaymentMode analytics.PaymentMode `json:"paymentMode"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID            string  `json:"productId"`
	ProductName          string  `json:"productName"`
	Quantity             int64   `json:"quantity"`
	PricePerItem         float64 `json:"pricePerItem"`
	PurchasePricePerItem float64 `json:"purchasePricePerItem"`
}

// Profit is the margin this line contributes.
func (i SaleItem) Profit() float64 {
	return (i.PricePerItem - i.PurchasePricePerItem) * float64(i.Quantity)
}

// RecordSaleRequest is the checkout input. Prices and names are looked up
// fresh inside the recording transaction, never trusted from the client.
type RecordSaleRequest struct {
	Items       []RequestItem `json:"items" validate:"required,min=1,dive"`
	PaymentMode string        `json:"paymentMode" validate:"omitempty,oneof=Cash UPI BankTransfer Other"`
}

// RequestItem references a product purely by identity.
type RequestItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1"`
}

// Validate applies the rules the validator tags cannot express.
func (r RecordSaleRequest) Validate() error {
	if len(r.Items) == 0 {
		return ValidationError{Field: "items", Reason: "at least one item required"}
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			return ValidationError{Field: "productId", Reason: "required"}
		}
		if item.Quantity < 1 {
			return ValidationError{Field: "quantity", Reason: "must be >= 1"}
		}
	}
	return nil
}

// ValidationError rejects malformed input before any transaction is opened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("sales: invalid %s: %s", e.Field, e.Reason)
}

// ErrProductNotFound indicates a checkout referenced a product the tenant
// does not have.
var ErrProductNotFound = fmt.Errorf("sales: product %w", httpx.ErrNotFound)

// InsufficientStockError aborts a checkout that would drive an item's stock
// negative. It names the offending product so the point of sale can tell
// the cashier exactly what ran out.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int64
	Requested   int64
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("sales: insufficient stock for %q: %d available, %d requested",
		e.ProductName, e.Available, e.Requested)
}
