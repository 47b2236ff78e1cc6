package chaos

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TerminateRandomBackend periodically kills one backend connected to the
// current database so in-flight transactions fail mid-statement.
func TerminateRandomBackend(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rng.Intn(3) != 0 {
				continue
			}
			_, _ = pool.Exec(ctx, `SELECT pg_terminate_backend(pid)
                                   FROM pg_stat_activity
                                   WHERE datname = current_database()
                                     AND pid <> pg_backend_pid()
                                     AND backend_type = 'client backend'
                                   ORDER BY random() LIMIT 1`)
		}
	}
}
