package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusswap/exchange"
)

const productColumns = `id, student_id, title, monetary_worth, status, created_at, updated_at`

type Repository interface {
	Get(ctx context.Context, id string) (exchange.Product, error)
	// MarkDeleted soft-deletes a product that is still available or sold.
	MarkDeleted(ctx context.Context, id string, at time.Time) (exchange.Product, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Get(ctx context.Context, id string) (exchange.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exchange.Product{}, ErrNotFound
		}
		return exchange.Product{}, fmt.Errorf("product: get: %w", err)
	}
	return p, nil
}

func (r *PGRepository) MarkDeleted(ctx context.Context, id string, at time.Time) (exchange.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `
        UPDATE products
        SET status = 'deleted', updated_at = $2
        WHERE id = $1 AND status IN ('available', 'sold')
        RETURNING `+productColumns, id, at))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return exchange.Product{}, fmt.Errorf("product: mark deleted: %w", err)
	}

	// Nothing matched: tell a missing product apart from one in the wrong state.
	current, err := r.Get(ctx, id)
	if err != nil {
		return exchange.Product{}, err
	}
	return exchange.Product{}, stateError(current.Status)
}

func scanProduct(row pgx.Row) (exchange.Product, error) {
	var (
		p      exchange.Product
		status string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.MonetaryWorth, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return exchange.Product{}, err
	}
	p.Status = exchange.ProductStatus(status)
	return p, nil
}
