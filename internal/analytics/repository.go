package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoptrack/shoptrack/internal/platform/db"
)

// Repository persists and rebuilds analytics summaries in PostgreSQL. The
// summary itself is one JSONB document per tenant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional reads and writes Reconcile needs.
type TxRepository interface {
	LockSummary(ctx context.Context, tenantID string) error
	ListProductFacts(ctx context.Context, tenantID string) ([]ProductFacts, error)
	ListSaleFacts(ctx context.Context, tenantID string) ([]SaleFacts, error)
	PutSummary(ctx context.Context, tenantID string, s Summary) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetSummary loads a tenant's summary document, returning a
// structurally-complete default when none exists yet.
func (r *Repository) GetSummary(ctx context.Context, tenantID string) (Summary, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM analytics_summaries WHERE tenant_id = $1`, tenantID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSummary(), nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: get summary: %w", err)
	}
	return decodeSummary(raw), nil
}

func (t *txRepo) LockSummary(ctx context.Context, tenantID string) error {
	var raw []byte
	err := t.tx.QueryRow(ctx,
		`SELECT data FROM analytics_summaries WHERE tenant_id = $1 FOR UPDATE`, tenantID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (t *txRepo) ListProductFacts(ctx context.Context, tenantID string) ([]ProductFacts, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT kind, stock FROM products WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []ProductFacts
	for rows.Next() {
		var kind string
		var stock int64
		if err := rows.Scan(&kind, &stock); err != nil {
			return nil, err
		}
		facts = append(facts, ProductFacts{IsItem: kind != "service", Stock: stock})
	}
	return facts, rows.Err()
}

func (t *txRepo) ListSaleFacts(ctx context.Context, tenantID string) ([]SaleFacts, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT total_amount, payment_mode, occurred_at, items
		 FROM sales WHERE tenant_id = $1 ORDER BY occurred_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []SaleFacts
	for rows.Next() {
		var (
			total    float64
			mode     string
			occurred time.Time
			items    []byte
		)
		if err := rows.Scan(&total, &mode, &occurred, &items); err != nil {
			return nil, err
		}
		fact := SaleFacts{
			TotalAmount: total,
			Mode:        ParsePaymentMode(mode),
			OccurredAt:  occurred,
		}
		fact.Profit, fact.Items = decodeSaleItems(items)
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

func (t *txRepo) PutSummary(ctx context.Context, tenantID string, s Summary) error {
	return WriteSummary(ctx, t.tx, tenantID, s)
}

// ReadSummaryForUpdate loads and row-locks a tenant's summary inside an open
// transaction. Catalog and sales repositories share it so every coordinated
// mutation serializes on the same document.
func ReadSummaryForUpdate(ctx context.Context, tx pgx.Tx, tenantID string) (Summary, error) {
	var raw []byte
	err := tx.QueryRow(ctx,
		`SELECT data FROM analytics_summaries WHERE tenant_id = $1 FOR UPDATE`, tenantID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSummary(), nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("analytics: read summary: %w", err)
	}
	return decodeSummary(raw), nil
}

// WriteSummary upserts a tenant's summary document inside an open transaction.
func WriteSummary(ctx context.Context, tx pgx.Tx, tenantID string, s Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("analytics: encode summary: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO analytics_summaries (tenant_id, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		tenantID, raw)
	return err
}

// decodeSummary tolerates malformed stored documents: whatever fields decode
// survive, everything else falls back to the structurally-complete default.
func decodeSummary(raw []byte) Summary {
	s := DefaultSummary()
	if len(raw) == 0 {
		return s
	}
	var stored Summary
	if err := json.Unmarshal(raw, &stored); err != nil {
		return s
	}
	return stored.Normalize()
}

// saleItemDoc mirrors the embedded sale line JSON. Field coercion happens
// via pointer-free numeric defaults: missing fields decode to zero.
type saleItemDoc struct {
	ProductName          string  `json:"productName"`
	Quantity             int64   `json:"quantity"`
	PricePerItem         float64 `json:"pricePerItem"`
	PurchasePricePerItem float64 `json:"purchasePricePerItem"`
}

func decodeSaleItems(raw []byte) (float64, []SoldItem) {
	var docs []saleItemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return 0, nil
	}
	var profit float64
	sold := make([]SoldItem, 0, len(docs))
	for _, d := range docs {
		profit += (d.PricePerItem - d.PurchasePricePerItem) * float64(d.Quantity)
		sold = append(sold, SoldItem{Name: d.ProductName, Quantity: d.Quantity})
	}
	return profit, sold
}
