package catalog

import (
	"fmt"
	"strings"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// Kind distinguishes stocked items from untracked services.
type Kind string

const (
	// KindItem tracks stock and purchase cost.
	KindItem Kind = "item"
	// KindService has no stock; its stock-related fields are pinned to zero.
	KindService Kind = "service"
)

// ParseKind coerces arbitrary stored values to a known kind. Anything that
// is not exactly "service" counts as an item, matching how legacy records
// without a kind field behave.
func ParseKind(v string) Kind {
	if Kind(v) == KindService {
		return KindService
	}
	return KindItem
}

// Product is one catalog entry, exclusively owned by a single tenant.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Kind              Kind    `json:"kind"`
	Stock             int64   `json:"stock"`
	PurchasePrice     float64 `json:"purchasePrice"`
	SellingPrice      float64 `json:"sellingPrice"`
	Category          string  `json:"category"`
	LowStockThreshold int64   `json:"lowStockThreshold"`
}

// ErrNotFound indicates the referenced product does not exist for the tenant.
var ErrNotFound = fmt.Errorf("catalog: product %w", httpx.ErrNotFound)

// ValidationError rejects malformed input before any transaction is opened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Reason)
}

// ProductInput is the shape of an add or bulk-import request after DTO
// decoding; the service assigns the identity.
type ProductInput struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Kind              string  `json:"kind" validate:"omitempty,oneof=item service"`
	Stock             int64   `json:"stock" validate:"gte=0"`
	PurchasePrice     float64 `json:"purchasePrice" validate:"gte=0"`
	SellingPrice      float64 `json:"sellingPrice" validate:"gte=0"`
	Category          string  `json:"category" validate:"max=100"`
	LowStockThreshold int64   `json:"lowStockThreshold" validate:"gte=0"`
}

// Validate applies the entity-level rules the validator tags cannot express.
func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ValidationError{Field: "name", Reason: "required"}
	}
	if in.Stock < 0 {
		return ValidationError{Field: "stock", Reason: "must be >= 0"}
	}
	if in.PurchasePrice < 0 || in.SellingPrice < 0 {
		return ValidationError{Field: "price", Reason: "must be >= 0"}
	}
	if in.LowStockThreshold < 0 {
		return ValidationError{Field: "lowStockThreshold", Reason: "must be >= 0"}
	}
	return nil
}

// Product materializes the input with the given identity, normalizing the
// service-kind invariants.
func (in ProductInput) Product(id string) Product {
	p := Product{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Kind:              ParseKind(in.Kind),
		Stock:             in.Stock,
		PurchasePrice:     in.PurchasePrice,
		SellingPrice:      in.SellingPrice,
		Category:          strings.TrimSpace(in.Category),
		LowStockThreshold: in.LowStockThreshold,
	}
	return p.Normalize()
}

// Normalize pins the stock-related fields of a service to zero. Services
// never hold stock, purchase cost, or a low-stock threshold.
func (p Product) Normalize() Product {
	if p.Kind != KindService {
		p.Kind = KindItem
		return p
	}
	p.Stock = 0
	p.PurchasePrice = 0
	p.LowStockThreshold = 0
	return p
}

// Facts projects the product onto the attributes the analytics aggregator
// tracks.
func (p Product) Facts() analytics.ProductFacts {
	return analytics.ProductFacts{IsItem: p.Kind == KindItem, Stock: p.Stock}
}

// LowOnStock reports whether an item has drained to its threshold.
func (p Product) LowOnStock() bool {
	return p.Kind == KindItem && p.Stock <= p.LowStockThreshold
}
