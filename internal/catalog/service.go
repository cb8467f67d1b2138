package catalog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shoptrack/shoptrack/internal/analytics"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, tenantID, productID string) (Product, error)
	ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Product, string, error)
	ListLowStock(ctx context.Context, tenantID string) ([]Product, error)
	ListAll(ctx context.Context, tenantID string) ([]Product, error)
}

// TxRepository exposes the transactional operations used by the service.
// Reads must be issued before the first write of the same transaction.
type TxRepository interface {
	GetSummaryForUpdate(ctx context.Context, tenantID string) (analytics.Summary, error)
	GetProductForUpdate(ctx context.Context, tenantID, productID string) (Product, error)
	InsertProduct(ctx context.Context, tenantID string, p Product) error
	UpdateProduct(ctx context.Context, tenantID string, p Product) error
	DeleteProduct(ctx context.Context, tenantID, productID string) error
	PutSummary(ctx context.Context, tenantID string, s analytics.Summary) error
}

// Invalidator lets the service drop cached dashboard reads after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// Service coordinates catalog mutations. Every write runs through a single
// read-validate-compute-write transaction together with the analytics
// summary, so the summary's product and stock totals never drift from the
// live records.
type Service struct {
	repo        RepositoryPort
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, invalidator Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, invalidator: invalidator, logger: logger}
}

// AddProduct inserts one product and folds it into the analytics summary
// atomically.
func (s *Service) AddProduct(ctx context.Context, tenantID string, input ProductInput) (Product, error) {
	if err := input.Validate(); err != nil {
		return Product{}, err
	}
	product := input.Product(uuid.NewString())

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		next := analytics.ApplyProductAdded(summary, product.Facts())
		if err := tx.InsertProduct(ctx, tenantID, product); err != nil {
			return err
		}
		return tx.PutSummary(ctx, tenantID, next)
	})
	if err != nil {
		return Product{}, err
	}

	s.bump(ctx, tenantID)
	s.logger.Info("product added",
		slog.String("tenant_id", tenantID),
		slog.String("product_id", product.ID),
		slog.String("kind", string(product.Kind)))
	return product, nil
}

// BulkImport inserts a batch of already-parsed products as one transaction,
// applying the product-added accounting per record. Either every row lands
// or none do.
func (s *Service) BulkImport(ctx context.Context, tenantID string, inputs []ProductInput) ([]Product, error) {
	if len(inputs) == 0 {
		return nil, ValidationError{Field: "products", Reason: "empty import"}
	}
	products := make([]Product, 0, len(inputs))
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		products = append(products, in.Product(uuid.NewString()))
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		next := summary
		for _, p := range products {
			next = analytics.ApplyProductAdded(next, p.Facts())
		}
		for _, p := range products {
			if err := tx.InsertProduct(ctx, tenantID, p); err != nil {
				return err
			}
		}
		return tx.PutSummary(ctx, tenantID, next)
	})
	if err != nil {
		return nil, err
	}

	s.bump(ctx, tenantID)
	s.logger.Info("products imported",
		slog.String("tenant_id", tenantID),
		slog.Int("count", len(products)))
	return products, nil
}

// UpdateProduct rewrites a product and nets the stock difference into the
// summary. Converting between item and service counts the service side as
// zero stock.
func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID string, input ProductInput) (Product, error) {
	if err := input.Validate(); err != nil {
		return Product{}, err
	}
	updated := input.Product(productID)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		old, err := tx.GetProductForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		next := analytics.ApplyProductUpdated(summary, old.Facts(), updated.Facts())
		if err := tx.UpdateProduct(ctx, tenantID, updated); err != nil {
			return err
		}
		return tx.PutSummary(ctx, tenantID, next)
	})
	if err != nil {
		return Product{}, err
	}

	s.bump(ctx, tenantID)
	return updated, nil
}

// DeleteProduct removes a product and subtracts it from the summary.
// Historical sales keep their captured name and prices; only the live
// catalog entry disappears.
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		summary, err := tx.GetSummaryForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		old, err := tx.GetProductForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		next := analytics.ApplyProductDeleted(summary, old.Facts())
		if err := tx.DeleteProduct(ctx, tenantID, productID); err != nil {
			return err
		}
		return tx.PutSummary(ctx, tenantID, next)
	})
	if err != nil {
		return err
	}

	s.bump(ctx, tenantID)
	s.logger.Info("product deleted",
		slog.String("tenant_id", tenantID),
		slog.String("product_id", productID))
	return nil
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, tenantID, productID string) (Product, error) {
	return s.repo.GetProduct(ctx, tenantID, productID)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListPage returns one page of the catalog ordered by name ascending, plus
// the cursor for the next page ("" when exhausted).
func (s *Service) ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Product, string, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.ListPage(ctx, tenantID, pageSize, cursor)
}

// ListLowStock returns items at or below their low-stock threshold.
func (s *Service) ListLowStock(ctx context.Context, tenantID string) ([]Product, error) {
	return s.repo.ListLowStock(ctx, tenantID)
}

// ListAll returns the full catalog, name ascending. Used by the CSV export.
func (s *Service) ListAll(ctx context.Context, tenantID string) ([]Product, error) {
	return s.repo.ListAll(ctx, tenantID)
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
