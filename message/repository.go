package message

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, m Message) (Message, error)
	ListByExchange(ctx context.Context, exchangeID string) ([]Message, error)
	MarkRead(ctx context.Context, exchangeID, recipientID string) (int64, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectMessages = `
    SELECT m.id, m.exchange_request_id, m.sender_id, m.recipient_id, m.content, m.read, m.created_at,
           s.id, s.name, s.matric_number, s.image_url,
           r.id, r.name, r.matric_number, r.image_url
    FROM messages m
    JOIN students s ON s.id = m.sender_id
    JOIN students r ON r.id = m.recipient_id`

func (r *PGRepository) Insert(ctx context.Context, m Message) (Message, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
        INSERT INTO messages (id, exchange_request_id, sender_id, recipient_id, content, created_at)
        VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6)
        RETURNING id`,
		m.ID, m.ExchangeID, m.SenderID, m.RecipientID, m.Content, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return Message{}, fmt.Errorf("message: insert: %w", err)
	}

	stored, err := scanMessage(r.pool.QueryRow(ctx, selectMessages+` WHERE m.id = $1`, id))
	if err != nil {
		return Message{}, fmt.Errorf("message: reload: %w", err)
	}
	return stored, nil
}

func (r *PGRepository) ListByExchange(ctx context.Context, exchangeID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx, selectMessages+` WHERE m.exchange_request_id = $1 ORDER BY m.created_at ASC, m.id ASC`, exchangeID)
	if err != nil {
		return nil, fmt.Errorf("message: query list: %w", err)
	}
	defer rows.Close()

	list := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("message: scan list: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("message: iterate list: %w", err)
	}
	return list, nil
}

func (r *PGRepository) MarkRead(ctx context.Context, exchangeID, recipientID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE messages SET read = true
        WHERE exchange_request_id = $1 AND recipient_id = $2 AND NOT read`, exchangeID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("message: mark read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(
		&m.ID, &m.ExchangeID, &m.SenderID, &m.RecipientID, &m.Content, &m.Read, &m.CreatedAt,
		&m.Sender.ID, &m.Sender.Name, &m.Sender.MatricNumber, &m.Sender.ImageURL,
		&m.Recipient.ID, &m.Recipient.Name, &m.Recipient.MatricNumber, &m.Recipient.ImageURL,
	)
	return m, err
}
