package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All lists queries that must return no rows at any point of a run.
func All() []Oracle {
	return []Oracle{
		{
			Name: "single_winning_exchange_per_product",
			SQL: `SELECT product_id, COUNT(*) FROM (
                      SELECT requested_product_id AS product_id FROM exchange_requests
                      WHERE status IN ('accepted','completed')
                      UNION ALL
                      SELECT offered_product_id FROM exchange_requests
                      WHERE status IN ('accepted','completed')
                  ) won
                  GROUP BY product_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "single_pending_per_requester_product",
			SQL: `SELECT requester_id, requested_product_id, COUNT(*) FROM exchange_requests
                  WHERE status = 'pending'
                  GROUP BY requester_id, requested_product_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "winning_products_marked_exchanged",
			SQL: `SELECT e.id, p.id, p.status FROM exchange_requests e
                  JOIN products p ON p.id IN (e.requested_product_id, e.offered_product_id)
                  WHERE e.status IN ('accepted','completed') AND p.status <> 'exchanged'`,
		},
		{
			Name: "exchanged_products_have_winner",
			SQL: `SELECT p.id FROM products p
                  WHERE p.status = 'exchanged'
                    AND NOT EXISTS (
                        SELECT 1 FROM exchange_requests e
                        WHERE e.status IN ('accepted','completed')
                          AND p.id IN (e.requested_product_id, e.offered_product_id))`,
		},
		{
			Name: "receiver_owns_requested_product",
			SQL: `SELECT e.id FROM exchange_requests e
                  JOIN products rp ON rp.id = e.requested_product_id
                  JOIN products op ON op.id = e.offered_product_id
                  WHERE rp.student_id <> e.receiver_id OR op.student_id <> e.requester_id`,
		},
		{
			Name: "message_between_parties",
			SQL: `SELECT m.id FROM messages m
                  JOIN exchange_requests e ON e.id = m.exchange_request_id
                  WHERE NOT (m.sender_id IN (e.requester_id, e.receiver_id)
                         AND m.recipient_id IN (e.requester_id, e.receiver_id)
                         AND m.sender_id <> m.recipient_id)`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}
