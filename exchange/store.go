package exchange

import (
	"context"
	"time"

	"campusswap/notification"
)

// Store is the persistence the engine runs against. Reads outside RunInTx see
// committed state only.
type Store interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	GetParty(ctx context.Context, id string) (Party, error)
	GetExchange(ctx context.Context, id string) (Request, error)
	ListExchanges(ctx context.Context, filter ListFilter) ([]Details, error)
	// RunInTx commits when fn returns nil and rolls back otherwise. The error
	// returned by fn is passed through.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional handle handed to RunInTx callbacks. Locks are held
// until the transaction ends.
type Tx interface {
	// LockProducts locks the given products in id order. Unknown ids are
	// missing from the result.
	LockProducts(ctx context.Context, ids ...string) (map[string]Product, error)
	// LockExchange locks one exchange row. Unknown ids yield ErrExchangeNotFound.
	LockExchange(ctx context.Context, id string) (Request, error)
	HasPending(ctx context.Context, requesterID, requestedProductID string) (bool, error)
	// InsertExchange stores a new request. A second pending request for the
	// same requester and product yields ErrDuplicatePending.
	InsertExchange(ctx context.Context, req Request) (Request, error)
	// SetExchangeStatus moves an exchange from one status to another. It yields
	// ErrStatusChanged when the stored status is no longer from.
	SetExchangeStatus(ctx context.Context, id string, from, to Status, at time.Time) (Request, error)
	// SetProductStatus moves a product from one status to another. It yields
	// ErrProductTaken when the stored status is no longer from.
	SetProductStatus(ctx context.Context, id string, from, to ProductStatus, at time.Time) error
}

// Notifier delivers notifications produced by committed transitions.
type Notifier interface {
	Notify(ctx context.Context, draft notification.Draft) error
}
