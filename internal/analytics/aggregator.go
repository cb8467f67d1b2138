package analytics

import (
	"sort"
	"time"
)

// topSellerLimit caps the all-time best-sellers ranking.
const topSellerLimit = 5

// ProductFacts carries the two attributes of a product the aggregator cares
// about. Stock is meaningful only when IsItem is true; service products
// always contribute zero stock.
type ProductFacts struct {
	IsItem bool
	Stock  int64
}

func (p ProductFacts) trackedStock() int64 {
	if !p.IsItem {
		return 0
	}
	return p.Stock
}

// SoldItem is the per-line quantity fed into the best-sellers ranking.
type SoldItem struct {
	Name     string
	Quantity int64
}

// SaleFacts carries everything a recorded sale contributes to the summary.
// StockChange is the sum of negative stock deltas computed by the stock
// ledger; reconciliation passes zero because product stocks already reflect
// historical sales.
type SaleFacts struct {
	TotalAmount float64
	Profit      float64
	Mode        PaymentMode
	OccurredAt  time.Time
	StockChange int64
	Items       []SoldItem
}

// DayKey renders the daily-tier key for a sale timestamp. Keys are anchored
// to UTC so the same sale lands in the same bucket regardless of server or
// client locale.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey renders the monthly-tier key for a sale timestamp, UTC-anchored.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ApplyProductAdded returns the summary after a product joins the catalog.
func ApplyProductAdded(s Summary, p ProductFacts) Summary {
	next := s.Clone()
	next.AllTime.TotalProducts++
	next.AllTime.TotalStock += p.trackedStock()
	return next
}

// ApplyProductUpdated returns the summary after a product edit. Stock counts
// as zero on the service side of an item/service conversion, so converting
// in either direction nets out correctly.
func ApplyProductUpdated(s Summary, old, updated ProductFacts) Summary {
	next := s.Clone()
	next.AllTime.TotalStock += updated.trackedStock() - old.trackedStock()
	return next
}

// ApplyProductDeleted returns the summary after a product leaves the catalog.
func ApplyProductDeleted(s Summary, p ProductFacts) Summary {
	next := s.Clone()
	next.AllTime.TotalProducts--
	next.AllTime.TotalStock -= p.trackedStock()
	return next
}

// ApplySaleRecorded folds one sale into every tier of the summary.
func ApplySaleRecorded(s Summary, sale SaleFacts) Summary {
	next := s.Clone()

	next.AllTime.TotalRevenue += sale.TotalAmount
	next.AllTime.TotalProfit += sale.Profit
	next.AllTime.TotalStock += sale.StockChange
	next.AllTime.PaymentModeStats[sale.Mode] += sale.TotalAmount

	day := next.Daily[DayKey(sale.OccurredAt)]
	day.Revenue += sale.TotalAmount
	day.Profit += sale.Profit
	next.Daily[DayKey(sale.OccurredAt)] = day

	month := next.Monthly[MonthKey(sale.OccurredAt)]
	month.Revenue += sale.TotalAmount
	month.Profit += sale.Profit
	next.Monthly[MonthKey(sale.OccurredAt)] = month

	next.AllTime.TopSellingItems = mergeTopSellers(next.AllTime.TopSellingItems, sale.Items)
	return next
}

// ApplySalesCleared resets every sales-derived stat while preserving the
// inventory-derived product and stock totals.
func ApplySalesCleared(s Summary) Summary {
	next := DefaultSummary()
	next.AllTime.TotalProducts = s.AllTime.TotalProducts
	next.AllTime.TotalStock = s.AllTime.TotalStock
	return next
}

// mergeTopSellers folds newly sold quantities into the running ranking and
// re-derives the top entries. Ties keep the order names were first seen in,
// so repeated application is stable.
func mergeTopSellers(existing []TopSellingItem, sold []SoldItem) []TopSellingItem {
	ranked := make([]TopSellingItem, len(existing))
	copy(ranked, existing)

	index := make(map[string]int, len(ranked))
	for i, item := range ranked {
		index[item.Name] = i
	}
	for _, item := range sold {
		if i, ok := index[item.Name]; ok {
			ranked[i].Quantity += item.Quantity
			continue
		}
		index[item.Name] = len(ranked)
		ranked = append(ranked, TopSellingItem{Name: item.Name, Quantity: item.Quantity})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})
	if len(ranked) > topSellerLimit {
		ranked = ranked[:topSellerLimit]
	}
	return ranked
}
