package sales

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/catalog"
	"github.com/shoptrack/shoptrack/internal/platform/db"
)

// Repository persists sales in PostgreSQL. Sale lines are embedded in the
// sale row as a JSONB document since they are only ever read together.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
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

// pageCursor is the keyset position of the last row of a page.
type pageCursor struct {
	OccurredAt time.Time `json:"t"`
	ID         string    `json:"id"`
}

func encodeCursor(c pageCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (pageCursor, error) {
	var c pageCursor
	if s == "" {
		return c, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("sales: bad cursor: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("sales: bad cursor: %w", err)
	}
	return c, nil
}

// ListPage returns one page ordered by occurred_at descending (id breaks
// ties) and the cursor for the next page.
func (r *Repository) ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Sale, string, error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := `SELECT id, occurred_at, total_amount, payment_mode, items
	          FROM sales WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if after.ID != "" {
		query += ` AND (occurred_at, id) < ($2, $3)`
		args = append(args, after.OccurredAt, after.ID)
	}
	query += fmt.Sprintf(` ORDER BY occurred_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, pageSize+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("sales: list page: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var (
			sale Sale
			mode string
			raw  []byte
		)
		if err := rows.Scan(&sale.ID, &sale.OccurredAt, &sale.TotalAmount, &mode, &raw); err != nil {
			return nil, "", err
		}
		sale.PaymentMode = analytics.ParsePaymentMode(mode)
		if err := json.Unmarshal(raw, &sale.Items); err != nil {
			sale.Items = []SaleItem{}
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(sales) > pageSize {
		sales = sales[:pageSize]
		last := sales[len(sales)-1]
		next = encodeCursor(pageCursor{OccurredAt: last.OccurredAt, ID: last.ID})
	}
	return sales, next, nil
}

func (t *txRepo) GetSummaryForUpdate(ctx context.Context, tenantID string) (analytics.Summary, error) {
	return analytics.ReadSummaryForUpdate(ctx, t.tx, tenantID)
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, tenantID, productID string) (catalog.Product, error) {
	var (
		p    catalog.Product
		kind string
	)
	err := t.tx.QueryRow(ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(kind, 'item'), COALESCE(stock, 0),
		        COALESCE(purchase_price, 0), COALESCE(selling_price, 0), COALESCE(category, ''),
		        COALESCE(low_stock_threshold, 0)
		 FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, productID,
	).Scan(&p.ID, &p.Name, &kind, &p.Stock, &p.PurchasePrice, &p.SellingPrice, &p.Category, &p.LowStockThreshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	p.Kind = catalog.ParseKind(kind)
	return p, nil
}

func (t *txRepo) UpdateProductStock(ctx context.Context, tenantID, productID string, stock int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, productID, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertSale(ctx context.Context, tenantID string, sale Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("sales: encode items: %w", err)
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO sales (tenant_id, id, occurred_at, total_amount, payment_mode, items)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tenantID, sale.ID, sale.OccurredAt, sale.TotalAmount, string(sale.PaymentMode), items)
	return err
}

func (t *txRepo) DeleteAllSales(ctx context.Context, tenantID string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE tenant_id = $1`, tenantID)
	return err
}

func (t *txRepo) PutSummary(ctx context.Context, tenantID string, s analytics.Summary) error {
	return analytics.WriteSummary(ctx, t.tx, tenantID, s)
}
