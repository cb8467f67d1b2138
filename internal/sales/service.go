package sales

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/catalog"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Sale, string, error)
}

// TxRepository exposes the transactional operations used by the service.
// Reads must be issued before the first write of the same transaction.
type TxRepository interface {
	GetSummaryForUpdate(ctx context.Context, tenantID string) (analytics.Summary, error)
	GetProductForUpdate(ctx context.Context, tenantID, productID string) (catalog.Product, error)
	UpdateProductStock(ctx context.Context, tenantID, productID string, stock int64) error
	InsertSale(ctx context.Context, tenantID string, sale Sale) error
	DeleteAllSales(ctx context.Context, tenantID string) error
	PutSummary(ctx context.Context, tenantID string, s analytics.Summary) error
}

// Invalidator lets the service drop cached dashboard reads after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// Service records sales. A checkout is one transaction covering the summary
// document, every referenced product, and the sale record itself; either
// the stock decrements, the analytics update, and the sale all commit, or
// nothing does.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, invalidator Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, logger: logger, now: time.Now}
}

// RecordSale prices and records one checkout. Products are read fresh
// inside the transaction, so concurrent checkouts cannot both spend the
// same stock.
func (s *Service) RecordSale(ctx context.Context, tenantID string, req RecordSaleRequest) (Sale, error) {
	if err := req.Validate(); err != nil {
		return Sale{}, err
	}
	mode := analytics.ParsePaymentMode(req.PaymentMode)

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}

		products := make(map[string]catalog.Product, len(req.Items))
		for _, item := range req.Items {
			if _, ok := products[item.ProductID]; ok {
				continue
			}
			product, err := tx.GetProductForUpdate(ctx, tenantID, item.ProductID)
			if errors.Is(err, catalog.ErrNotFound) {
				return ErrProductNotFound
			}
			if err != nil {
				return err
			}
			products[item.ProductID] = product
		}

		ledger, err := ApplyItems(req.Items, products)
		if err != nil {
			return err
		}

		sale = Sale{
			ID:          uuid.NewString(),
			OccurredAt:  s.now().UTC(),
			Items:       ledger.Items,
			PaymentMode: mode,
		}
		var profit float64
		facts := analytics.SaleFacts{
			Mode:        mode,
			OccurredAt:  sale.OccurredAt,
			StockChange: ledger.StockChange,
		}
		for _, item := range ledger.Items {
			sale.TotalAmount += item.PricePerItem * float64(item.Quantity)
			profit += item.Profit()
			facts.Items = append(facts.Items, analytics.SoldItem{Name: item.ProductName, Quantity: item.Quantity})
		}
		facts.TotalAmount = sale.TotalAmount
		facts.Profit = profit

		next := analytics.ApplySaleRecorded(summary, facts)
		for _, update := range ledger.Updates {
			if err := tx.UpdateProductStock(ctx, tenantID, update.ProductID, update.NewStock); err != nil {
				return err
			}
		}
		if err := tx.InsertSale(ctx, tenantID, sale); err != nil {
			return err
		}
		return tx.PutSummary(ctx, tenantID, next)
	})
	if err != nil {
		return Sale{}, err
	}

	s.bump(ctx, tenantID)
	s.logger.Info("sale recorded",
		slog.String("tenant_id", tenantID),
		slog.String("sale_id", sale.ID),
		slog.Float64("total", sale.TotalAmount),
		slog.Int("lines", len(sale.Items)))
	return sale, nil
}

// ClearSales deletes every sale and resets the sales-derived analytics
// while keeping the inventory totals intact. Product stocks are not
// restored; cleared sales are history, not refunds.
func (s *Service) ClearSales(ctx context.Context, tenantID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if err := tx.DeleteAllSales(ctx, tenantID); err != nil {
			return err
		}
		return tx.PutSummary(ctx, tenantID, analytics.ApplySalesCleared(summary))
	})
	if err != nil {
		return err
	}

	s.bump(ctx, tenantID)
	s.logger.Info("sales cleared", slog.String("tenant_id", tenantID))
	return nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListPage returns one page of sales, most recent first, plus the cursor
// for the next page ("" when exhausted).
func (s *Service) ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Sale, string, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.ListPage(ctx, tenantID, pageSize, cursor)
}

func (s *Service) bump(ctx context.Context, tenantID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn("invalidate dashboard cache",
			slog.String("tenant_id", tenantID), slog.Any("error", err))
	}
}
