package analytics

import (
	"context"
	"log/slog"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSummary(ctx context.Context, tenantID string) (Summary, error)
}

// Service serves dashboard reads and owns the reconciliation operation.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
}

// NewService wires a RepositoryPort with the cache helper.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Dashboard returns the tenant's summary document, served from cache when
// warm. The summary is never recomputed here; it reads the materialized view
// maintained by the catalog and sales coordinators.
func (s *Service) Dashboard(ctx context.Context, tenantID string) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, tenantID, "summary")
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.GetSummary(ctx, tenantID)
	})
	if err != nil {
		return Summary{}, err
	}
	return out.Normalize(), nil
}

// Reconcile rebuilds a tenant's summary by full rescan of the product and
// sale records inside one transaction. It is the corrective tool for drift;
// the regular mutation paths keep the summary consistent on their own.
func (s *Service) Reconcile(ctx context.Context, tenantID string) (Summary, error) {
	var rebuilt Summary
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		// Lock the document first so concurrent mutations serialize
		// against the rebuild.
		if err := tx.LockSummary(ctx, tenantID); err != nil {
			return err
		}
		products, err := tx.ListProductFacts(ctx, tenantID)
		if err != nil {
			return err
		}
		sales, err := tx.ListSaleFacts(ctx, tenantID)
		if err != nil {
			return err
		}

		rebuilt = DefaultSummary()
		for _, p := range products {
			rebuilt = ApplyProductAdded(rebuilt, p)
		}
		for _, sale := range sales {
			// Product stocks already reflect historical sales, so a
			// rebuilt sale must not subtract stock again.
			sale.StockChange = 0
			rebuilt = ApplySaleRecorded(rebuilt, sale)
		}

		return tx.PutSummary(ctx, tenantID, rebuilt)
	})
	if err != nil {
		return Summary{}, err
	}

	if err := s.cache.Bump(ctx, tenantID); err != nil && s.logger != nil {
		s.logger.Warn("bump analytics cache", slog.String("tenant_id", tenantID), slog.Any("error", err))
	}
	if s.logger != nil {
		s.logger.Info("analytics summary reconciled",
			slog.String("tenant_id", tenantID),
			slog.Int64("total_products", rebuilt.AllTime.TotalProducts),
			slog.Int64("total_stock", rebuilt.AllTime.TotalStock))
	}
	return rebuilt, nil
}

// Invalidate bumps the tenant's cache version. The catalog and sales
// services call it after every committed mutation.
func (s *Service) Invalidate(ctx context.Context, tenantID string) error {
	return s.cache.Bump(ctx, tenantID)
}
