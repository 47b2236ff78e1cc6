package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notificationColumns = `id, student_id, type, title, message, data, read, created_at`

type Repository interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	List(ctx context.Context, studentID string, unreadOnly bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, studentID string) (int, error)
	Get(ctx context.Context, id string) (Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, studentID string) (int64, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Insert(ctx context.Context, n Notification) (Notification, error) {
	data, err := EncodePayload(n.Payload)
	if err != nil {
		return Notification{}, err
	}
	row := r.pool.QueryRow(ctx, `
        INSERT INTO notifications (id, student_id, type, title, message, data, read, created_at)
        VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6::jsonb, false, $7)
        RETURNING `+notificationColumns,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, string(data), n.CreatedAt,
	)
	created, err := scanNotification(row)
	if err != nil {
		return Notification{}, fmt.Errorf("notification: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) List(ctx context.Context, studentID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE student_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("notification: query list: %w", err)
	}
	defer rows.Close()

	list := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notification: scan list: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification: iterate list: %w", err)
	}
	return list, nil
}

func (r *PGRepository) CountUnread(ctx context.Context, studentID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE student_id = $1 AND NOT read`, studentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("notification: count unread: %w", err)
	}
	return count, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("notification: get: %w", err)
	}
	return n, nil
}

func (r *PGRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) MarkAllRead(ctx context.Context, studentID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE student_id = $1 AND NOT read`, studentID)
	if err != nil {
		return 0, fmt.Errorf("notification: mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		n   Notification
		typ string
		raw []byte
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &raw, &n.Read, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	n.Type = Type(typ)
	payload, err := DecodePayload(n.Type, raw)
	if err != nil {
		return Notification{}, err
	}
	n.Payload = payload
	return n, nil
}
