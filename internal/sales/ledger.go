package sales

import (
	"github.com/shoptrack/shoptrack/internal/catalog"
)

// StockUpdate is the post-sale stock of one decremented item.
type StockUpdate struct {
	ProductID string
	NewStock  int64
}

// LedgerResult is the outcome of applying a checkout against the catalog:
// the fully priced sale lines, the stock writes to perform, and the net
// stock change to fold into the analytics summary.
type LedgerResult struct {
	Items       []SaleItem
	Updates     []StockUpdate
	StockChange int64
}

// ApplyItems prices each requested line against its freshly read product
// and decrements item stock. A running balance is kept per product, so a
// sale naming the same item twice cannot oversell it between lines. Service
// products are priced but never touch stock. The whole checkout fails on
// the first line that would drive stock negative.
func ApplyItems(requested []RequestItem, products map[string]catalog.Product) (LedgerResult, error) {
	var result LedgerResult
	running := make(map[string]int64, len(products))
	for id, p := range products {
		running[id] = p.Stock
	}

	touched := map[string]bool{}
	for _, req := range requested {
		product, ok := products[req.ProductID]
		if !ok {
			return LedgerResult{}, ErrProductNotFound
		}

		result.Items = append(result.Items, SaleItem{
			ProductID:            product.ID,
			ProductName:          product.Name,
			Quantity:             req.Quantity,
			PricePerItem:         product.SellingPrice,
			PurchasePricePerItem: product.PurchasePrice,
		})

		if product.Kind != catalog.KindItem {
			continue
		}
		balance := running[req.ProductID]
		if balance < req.Quantity {
			return LedgerResult{}, InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   balance,
				Requested:   req.Quantity,
			}
		}
		running[req.ProductID] = balance - req.Quantity
		result.StockChange -= req.Quantity
		touched[req.ProductID] = true
	}

	for _, req := range requested {
		if !touched[req.ProductID] {
			continue
		}
		touched[req.ProductID] = false
		result.Updates = append(result.Updates, StockUpdate{
			ProductID: req.ProductID,
			NewStock:  running[req.ProductID],
		})
	}
	return result, nil
}
