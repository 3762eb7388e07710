package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// Open connects to Postgres and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// InventoryRepository reads the catalog table.
type InventoryRepository struct {
	DB *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

// Seed inserts items that are not present yet.
func (r *InventoryRepository) Seed(ctx context.Context, items []inventory.Item) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: seed inventory: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (id, content) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			it.ID, it.Content,
		); err != nil {
			return fmt.Errorf("postgres: seed inventory %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: seed inventory: %w", err)
	}
	return nil
}

func (r *InventoryRepository) List(ctx context.Context) ([]inventory.Item, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, content FROM inventory ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list inventory: %w", err)
	}
	defer rows.Close()

	out := []inventory.Item{}
	for rows.Next() {
		var it inventory.Item
		if err := rows.Scan(&it.ID, &it.Content); err != nil {
			return nil, fmt.Errorf("postgres: scan inventory: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (inventory.Item, error) {
	var it inventory.Item
	err := r.DB.QueryRowContext(ctx, `SELECT id, content FROM inventory WHERE id = $1`, id).Scan(&it.ID, &it.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Item{}, inventory.ErrNotFound
	}
	if err != nil {
		return inventory.Item{}, fmt.Errorf("postgres: get inventory: %w", err)
	}
	return it, nil
}

// CartRepository stores cart lines.
type CartRepository struct {
	DB *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{DB: db}
}

func (r *CartRepository) List(ctx context.Context) ([]cart.Line, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, content, amount FROM cart_lines ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list cart: %w", err)
	}
	defer rows.Close()

	out := []cart.Line{}
	for rows.Next() {
		var l cart.Line
		if err := rows.Scan(&l.ID, &l.Content, &l.Amount); err != nil {
			return nil, fmt.Errorf("postgres: scan cart line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CartRepository) Get(ctx context.Context, id string) (cart.Line, error) {
	var l cart.Line
	err := r.DB.QueryRowContext(ctx, `SELECT id, content, amount FROM cart_lines WHERE id = $1`, id).
		Scan(&l.ID, &l.Content, &l.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.Line{}, cart.ErrNotFound
	}
	if err != nil {
		return cart.Line{}, fmt.Errorf("postgres: get cart line: %w", err)
	}
	return l, nil
}

func (r *CartRepository) Insert(ctx context.Context, l cart.Line) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO cart_lines (id, content, amount) VALUES ($1, $2, $3)`,
		l.ID, l.Content, l.Amount,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return cart.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert cart line: %w", err)
	}
	return nil
}

func (r *CartRepository) Update(ctx context.Context, l cart.Line) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE cart_lines SET amount = $2 WHERE id = $1`, l.ID, l.Amount)
	if err != nil {
		return fmt.Errorf("postgres: update cart line: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update cart line: %w", err)
	}
	if n == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) (cart.Line, error) {
	var l cart.Line
	err := r.DB.QueryRowContext(ctx,
		`DELETE FROM cart_lines WHERE id = $1 RETURNING id, content, amount`, id,
	).Scan(&l.ID, &l.Content, &l.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.Line{}, cart.ErrNotFound
	}
	if err != nil {
		return cart.Line{}, fmt.Errorf("postgres: delete cart line: %w", err)
	}
	return l, nil
}
