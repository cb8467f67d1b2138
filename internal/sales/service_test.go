package sales

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/catalog"
)

type memoryRepo struct {
	products     map[string]catalog.Product
	sales        []Sale
	summary      analytics.Summary
	lastPageSize int
}

type memoryTx struct {
	products map[string]catalog.Product
	sales    []Sale
	summary  analytics.Summary
}

func newMemoryRepo(products ...catalog.Product) *memoryRepo {
	repo := &memoryRepo{
		products: map[string]catalog.Product{},
		summary:  analytics.DefaultSummary(),
	}
	for _, p := range products {
		repo.products[p.ID] = p
		repo.summary = analytics.ApplyProductAdded(repo.summary, p.Facts())
	}
	return repo
}

// WithTx stages all writes on a copy and commits only when fn succeeds.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{
		products: make(map[string]catalog.Product, len(r.products)),
		sales:    append([]Sale(nil), r.sales...),
		summary:  r.summary.Clone(),
	}
	for k, v := range r.products {
		tx.products[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.products = tx.products
	r.sales = tx.sales
	r.summary = tx.summary
	return nil
}

func (r *memoryRepo) ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Sale, string, error) {
	r.lastPageSize = pageSize
	return append([]Sale(nil), r.sales...), "", nil
}

func (tx *memoryTx) GetSummaryForUpdate(ctx context.Context, tenantID string) (analytics.Summary, error) {
	return tx.summary.Clone(), nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, tenantID, productID string) (catalog.Product, error) {
	p, ok := tx.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) UpdateProductStock(ctx context.Context, tenantID, productID string, stock int64) error {
	p, ok := tx.products[productID]
	if !ok {
		return catalog.ErrNotFound
	}
	p.Stock = stock
	tx.products[productID] = p
	return nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, tenantID string, sale Sale) error {
	tx.sales = append(tx.sales, sale)
	return nil
}

func (tx *memoryTx) DeleteAllSales(ctx context.Context, tenantID string) error {
	tx.sales = nil
	return nil
}

func (tx *memoryTx) PutSummary(ctx context.Context, tenantID string, s analytics.Summary) error {
	tx.summary = s
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context, tenantID string) error {
	c.calls++
	return nil
}

func rice() catalog.Product {
	return catalog.Product{ID: "rice", Name: "Rice 5kg", Kind: catalog.KindItem, Stock: 10, PurchasePrice: 300, SellingPrice: 400}
}

func photocopy() catalog.Product {
	return catalog.Product{ID: "copy", Name: "Photocopy", Kind: catalog.KindService, SellingPrice: 2}
}

func newTestService(repo *memoryRepo) (*Service, *countingInvalidator) {
	inv := &countingInvalidator{}
	svc := NewService(repo, inv, slog.Default())
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 13, 0, 0, 0, time.UTC)
	}
	return svc, inv
}

func TestRecordSale(t *testing.T) {
	repo := newMemoryRepo(rice(), photocopy())
	svc, inv := newTestService(repo)

	sale, err := svc.RecordSale(context.Background(), "t1", RecordSaleRequest{
		Items: []RequestItem{
			{ProductID: "rice", Quantity: 2},
			{ProductID: "copy", Quantity: 10},
		},
		PaymentMode: "UPI",
	})
	require.NoError(t, err)

	require.NotEmpty(t, sale.ID)
	require.InDelta(t, 820, sale.TotalAmount, 1e-9)
	require.Equal(t, analytics.PaymentModeUPI, sale.PaymentMode)
	require.Len(t, sale.Items, 2)
	require.Equal(t, "Rice 5kg", sale.Items[0].ProductName)

	require.EqualValues(t, 8, repo.products["rice"].Stock)
	require.EqualValues(t, 0, repo.products["copy"].Stock)

	require.InDelta(t, 820, repo.summary.AllTime.TotalRevenue, 1e-9)
	require.InDelta(t, 220, repo.summary.AllTime.TotalProfit, 1e-9)
	require.EqualValues(t, 8, repo.summary.AllTime.TotalStock)
	require.InDelta(t, 820, repo.summary.AllTime.PaymentModeStats[analytics.PaymentModeUPI], 1e-9)
	require.InDelta(t, 820, repo.summary.Daily["2026-03-15"].Revenue, 1e-9)
	require.InDelta(t, 820, repo.summary.Monthly["2026-03"].Revenue, 1e-9)
	require.ElementsMatch(t, []analytics.TopSellingItem{
		{Name: "Photocopy", Quantity: 10},
		{Name: "Rice 5kg", Quantity: 2},
	}, repo.summary.AllTime.TopSellingItems)

	require.Len(t, repo.sales, 1)
	require.Equal(t, 1, inv.calls)
}

func TestRecordSaleDefaultsPaymentModeToCash(t *testing.T) {
	repo := newMemoryRepo(rice())
	svc, _ := newTestService(repo)

	sale, err := svc.RecordSale(context.Background(), "t1", RecordSaleRequest{
		Items: []RequestItem{{ProductID: "rice", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, analytics.PaymentModeCash, sale.PaymentMode)
	require.InDelta(t, 400, repo.summary.AllTime.PaymentModeStats[analytics.PaymentModeCash], 1e-9)
}

func TestRecordSaleInsufficientStockChangesNothing(t *testing.T) {
	repo := newMemoryRepo(rice())
	before := repo.summary.Clone()
	svc, inv := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), "t1", RecordSaleRequest{
		Items: []RequestItem{{ProductID: "rice", Quantity: 11}},
	})
	var stockErr InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	require.EqualValues(t, 10, repo.products["rice"].Stock)
	require.Equal(t, before, repo.summary)
	require.Empty(t, repo.sales)
	require.Zero(t, inv.calls)
}

func TestRecordSaleUnknownProduct(t *testing.T) {
	repo := newMemoryRepo(rice())
	svc, _ := newTestService(repo)

	_, err := svc.RecordSale(context.Background(), "t1", RecordSaleRequest{
		Items: []RequestItem{{ProductID: "ghost", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
	require.Empty(t, repo.sales)
}

func TestRecordSaleRejectsEmptyItems(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	_, err := svc.RecordSale(context.Background(), "t1", RecordSaleRequest{})
	var vErr ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestClearSalesPreservesInventoryTotals(t *testing.T) {
	repo := newMemoryRepo(rice(), photocopy())
	svc, inv := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, "t1", RecordSaleRequest{
		Items:       []RequestItem{{ProductID: "rice", Quantity: 3}},
		PaymentMode: "Cash",
	})
	require.NoError(t, err)
	require.Len(t, repo.sales, 1)

	require.NoError(t, svc.ClearSales(ctx, "t1"))

	require.Empty(t, repo.sales)
	require.Zero(t, repo.summary.AllTime.TotalRevenue)
	require.Zero(t, repo.summary.AllTime.TotalProfit)
	require.Empty(t, repo.summary.Daily)
	require.Empty(t, repo.summary.AllTime.TopSellingItems)
	require.EqualValues(t, 2, repo.summary.AllTime.TotalProducts)
	require.EqualValues(t, 7, repo.summary.AllTime.TotalStock, "stock stays where the sale left it")
	require.EqualValues(t, 7, repo.products["rice"].Stock, "cleared sales do not restock")
	require.Equal(t, 2, inv.calls)
}

func TestListPageClampsPageSize(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, _, err := svc.ListPage(ctx, "t1", 0, "")
	require.NoError(t, err)
	require.Equal(t, 20, repo.lastPageSize)

	_, _, err = svc.ListPage(ctx, "t1", 1000000, "")
	require.NoError(t, err)
	require.Equal(t, 100, repo.lastPageSize)
}
