package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusswap/apperr"
)

const (
	requestColumns = `id, requester_id, receiver_id, requested_product_id, offered_product_id, status, message, created_at, updated_at`
	productColumns = `id, student_id, title, monetary_worth, status, created_at, updated_at`
	partyColumns   = `id, name, matric_number, image_url`
)

// PGStore is the PostgreSQL Store. Transactions run at read committed; row
// locks and status-conditional updates keep concurrent writers apart.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) GetProduct(ctx context.Context, id string) (Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("exchange: get product: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetParty(ctx context.Context, id string) (Party, error) {
	var p Party
	err := s.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM students WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.MatricNumber, &p.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Party{}, ErrPartyNotFound
		}
		return Party{}, fmt.Errorf("exchange: get party: %w", err)
	}
	return p, nil
}

func (s *PGStore) GetExchange(ctx context.Context, id string) (Request, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM exchange_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrExchangeNotFound
		}
		return Request{}, fmt.Errorf("exchange: get exchange: %w", err)
	}
	return req, nil
}

func (s *PGStore) ListExchanges(ctx context.Context, filter ListFilter) ([]Details, error) {
	where := []string{"1=1"}
	args := []any{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		n := len(args)
		switch filter.Direction {
		case DirectionSent:
			where = append(where, fmt.Sprintf("e.requester_id = $%d", n))
		case DirectionReceived:
			where = append(where, fmt.Sprintf("e.receiver_id = $%d", n))
		default:
			where = append(where, fmt.Sprintf("(e.requester_id = $%d OR e.receiver_id = $%d)", n, n))
		}
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("e.status = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := fmt.Sprintf(`
        SELECT e.id, e.requester_id, e.receiver_id, e.requested_product_id, e.offered_product_id,
               e.status, e.message, e.created_at, e.updated_at,
               rq.id, rq.name, rq.matric_number, rq.image_url,
               rc.id, rc.name, rc.matric_number, rc.image_url,
               rp.id, rp.student_id, rp.title, rp.monetary_worth, rp.status, rp.created_at, rp.updated_at,
               op.id, op.student_id, op.title, op.monetary_worth, op.status, op.created_at, op.updated_at
        FROM exchange_requests e
        JOIN students rq ON rq.id = e.requester_id
        JOIN students rc ON rc.id = e.receiver_id
        JOIN products rp ON rp.id = e.requested_product_id
        JOIN products op ON op.id = e.offered_product_id
        WHERE %s
        ORDER BY e.created_at DESC, e.id DESC
        LIMIT %d`, strings.Join(where, " AND "), limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exchange: query list: %w", err)
	}
	defer rows.Close()

	list := []Details{}
	for rows.Next() {
		var (
			d           Details
			status      string
			reqStatus   string
			offerStatus string
		)
		if err := rows.Scan(
			&d.ID, &d.RequesterID, &d.ReceiverID, &d.RequestedProductID, &d.OfferedProductID,
			&status, &d.Message, &d.CreatedAt, &d.UpdatedAt,
			&d.Requester.ID, &d.Requester.Name, &d.Requester.MatricNumber, &d.Requester.ImageURL,
			&d.Receiver.ID, &d.Receiver.Name, &d.Receiver.MatricNumber, &d.Receiver.ImageURL,
			&d.RequestedProduct.ID, &d.RequestedProduct.OwnerID, &d.RequestedProduct.Title,
			&d.RequestedProduct.MonetaryWorth, &reqStatus, &d.RequestedProduct.CreatedAt, &d.RequestedProduct.UpdatedAt,
			&d.OfferedProduct.ID, &d.OfferedProduct.OwnerID, &d.OfferedProduct.Title,
			&d.OfferedProduct.MonetaryWorth, &offerStatus, &d.OfferedProduct.CreatedAt, &d.OfferedProduct.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("exchange: scan list: %w", err)
		}
		d.Status = Status(status)
		d.RequestedProduct.Status = ProductStatus(reqStatus)
		d.OfferedProduct.Status = ProductStatus(offerStatus)
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exchange: iterate list: %w", err)
	}
	return list, nil
}

func (s *PGStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("exchange: begin tx: %w", mapPGError(err))
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return mapPGError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("exchange: commit tx: %w", mapPGError(err))
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockProducts(ctx context.Context, ids ...string) (map[string]Product, error) {
	rows, err := t.tx.Query(ctx, `
        SELECT `+productColumns+`
        FROM products
        WHERE id = ANY($1)
        ORDER BY id
        FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("exchange: lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("exchange: scan locked product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exchange: lock products: %w", err)
	}
	return out, nil
}

func (t *pgTx) LockExchange(ctx context.Context, id string) (Request, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM exchange_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrExchangeNotFound
		}
		return Request{}, fmt.Errorf("exchange: lock exchange: %w", err)
	}
	return req, nil
}

func (t *pgTx) HasPending(ctx context.Context, requesterID, requestedProductID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM exchange_requests
            WHERE requester_id = $1 AND requested_product_id = $2 AND status = 'pending'
        )`, requesterID, requestedProductID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exchange: check pending: %w", err)
	}
	return exists, nil
}

func (t *pgTx) InsertExchange(ctx context.Context, req Request) (Request, error) {
	row := t.tx.QueryRow(ctx, `
        INSERT INTO exchange_requests (id, requester_id, receiver_id, requested_product_id, offered_product_id,
            status, message, created_at, updated_at)
        VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+requestColumns,
		req.ID, req.RequesterID, req.ReceiverID, req.RequestedProductID, req.OfferedProductID,
		string(req.Status), req.Message, req.CreatedAt, req.UpdatedAt,
	)
	created, err := scanRequest(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Request{}, ErrDuplicatePending
		}
		return Request{}, fmt.Errorf("exchange: insert exchange: %w", err)
	}
	return created, nil
}

func (t *pgTx) SetExchangeStatus(ctx context.Context, id string, from, to Status, at time.Time) (Request, error) {
	row := t.tx.QueryRow(ctx, `
        UPDATE exchange_requests
        SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2
        RETURNING `+requestColumns, id, string(from), string(to), at)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrStatusChanged
		}
		return Request{}, fmt.Errorf("exchange: update exchange status: %w", err)
	}
	return req, nil
}

func (t *pgTx) SetProductStatus(ctx context.Context, id string, from, to ProductStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE products
        SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2`, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("exchange: update product status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductTaken
	}
	return nil
}

// mapPGError classifies server errors that have a fixed meaning for callers.
// Anything else is left for the service to report as unavailable.
func mapPGError(err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return ErrDuplicatePending
	case "23503":
		return apperr.Wrap(apperr.NotFound, op, "Referenced student or product not found", err)
	case "40001", "40P01":
		return apperr.Wrap(apperr.Unavailable, op, "Service temporarily unavailable, please retry", err)
	default:
		return err
	}
}

func scanRequest(row pgx.Row) (Request, error) {
	var (
		req    Request
		status string
	)
	if err := row.Scan(
		&req.ID, &req.RequesterID, &req.ReceiverID, &req.RequestedProductID, &req.OfferedProductID,
		&status, &req.Message, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return Request{}, err
	}
	req.Status = Status(status)
	return req, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p      Product
		status string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.MonetaryWorth, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Status = ProductStatus(status)
	return p, nil
}
