package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoptrack/shoptrack/internal/analytics"
	"github.com/shoptrack/shoptrack/internal/platform/db"
)

// Repository persists catalog data in PostgreSQL.
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

const productColumns = `id, COALESCE(name, ''), COALESCE(kind, 'item'), COALESCE(stock, 0),
	COALESCE(purchase_price, 0), COALESCE(selling_price, 0), COALESCE(category, ''),
	COALESCE(low_stock_threshold, 0)`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var kind string
	err := row.Scan(&p.ID, &p.Name, &kind, &p.Stock, &p.PurchasePrice, &p.SellingPrice, &p.Category, &p.LowStockThreshold)
	if err != nil {
		return Product{}, err
	}
	p.Kind = ParseKind(kind)
	return p, nil
}

// GetProduct fetches one product outside any transaction.
func (r *Repository) GetProduct(ctx context.Context, tenantID, productID string) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2`,
		tenantID, productID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product: %w", err)
	}
	return p, nil
}

// pageCursor is the keyset position of the last row of a page.
type pageCursor struct {
	Name string `json:"n"`
	ID   string `json:"id"`
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
		return c, fmt.Errorf("catalog: bad cursor: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("catalog: bad cursor: %w", err)
	}
	return c, nil
}

// ListPage returns one page ordered by name ascending (id breaks ties) and
// the cursor for the next page.
func (r *Repository) ListPage(ctx context.Context, tenantID string, pageSize int, cursor string) ([]Product, string, error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if after.ID != "" {
		query += ` AND (name, id) > ($2, $3)`
		args = append(args, after.Name, after.ID)
	}
	query += fmt.Sprintf(` ORDER BY name, id LIMIT $%d`, len(args)+1)
	args = append(args, pageSize+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("catalog: list page: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, "", err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(products) > pageSize {
		products = products[:pageSize]
		last := products[len(products)-1]
		next = encodeCursor(pageCursor{Name: last.Name, ID: last.ID})
	}
	return products, next, nil
}

// ListLowStock returns items at or below their threshold, name ascending.
func (r *Repository) ListLowStock(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE tenant_id = $1 AND kind = 'item' AND stock <= low_stock_threshold
		 ORDER BY name, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list low stock: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// ListAll returns the full catalog, name ascending.
func (r *Repository) ListAll(ctx context.Context, tenantID string) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 ORDER BY name, id`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list all: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (t *txRepo) GetSummaryForUpdate(ctx context.Context, tenantID string) (analytics.Summary, error) {
	return analytics.ReadSummaryForUpdate(ctx, t.tx, tenantID)
}

func (t *txRepo) GetProductForUpdate(ctx context.Context, tenantID, productID string) (Product, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, productID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (t *txRepo) InsertProduct(ctx context.Context, tenantID string, p Product) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO products (tenant_id, id, name, kind, stock, purchase_price, selling_price, category, low_stock_threshold)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tenantID, p.ID, p.Name, string(p.Kind), p.Stock, p.PurchasePrice, p.SellingPrice, p.Category, p.LowStockThreshold)
	return err
}

func (t *txRepo) UpdateProduct(ctx context.Context, tenantID string, p Product) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET name = $3, kind = $4, stock = $5, purchase_price = $6,
		        selling_price = $7, category = $8, low_stock_threshold = $9
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, p.ID, p.Name, string(p.Kind), p.Stock, p.PurchasePrice, p.SellingPrice, p.Category, p.LowStockThreshold)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteProduct(ctx context.Context, tenantID, productID string) error {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) PutSummary(ctx context.Context, tenantID string, s analytics.Summary) error {
	return analytics.WriteSummary(ctx, t.tx, tenantID, s)
}
