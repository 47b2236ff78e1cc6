package exchange

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. One transaction runs at a time and its
// writes become visible only when it commits, which gives the same outcomes
// the row locks give in PostgreSQL.
type MemoryStore struct {
	mu        sync.Mutex
	products  map[string]Product
	parties   map[string]Party
	exchanges map[string]Request
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  map[string]Product{},
		parties:   map[string]Party{},
		exchanges: map[string]Request{},
	}
}

// PutParty seeds or replaces a student.
func (m *MemoryStore) PutParty(p Party) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parties[p.ID] = p
}

// PutProduct seeds or replaces a product. A missing status defaults to available.
func (m *MemoryStore) PutProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.Status == "" {
		p.Status = ProductAvailable
	}
	m.products[p.ID] = p
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (m *MemoryStore) GetParty(ctx context.Context, id string) (Party, error) {
	if err := ctx.Err(); err != nil {
		return Party{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[id]
	if !ok {
		return Party{}, ErrPartyNotFound
	}
	return p, nil
}

func (m *MemoryStore) GetExchange(ctx context.Context, id string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.exchanges[id]
	if !ok {
		return Request{}, ErrExchangeNotFound
	}
	return req, nil
}

func (m *MemoryStore) ListExchanges(ctx context.Context, filter ListFilter) ([]Details, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []Details{}
	for _, req := range m.exchanges {
		if !matches(req, filter) {
			continue
		}
		list = append(list, Details{
			Request:          req,
			Requester:        m.parties[req.RequesterID],
			Receiver:         m.parties[req.ReceiverID],
			RequestedProduct: m.products[req.RequestedProductID],
			OfferedProduct:   m.products[req.OfferedProductID],
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func matches(req Request, filter ListFilter) bool {
	if filter.Status != "" && req.Status != filter.Status {
		return false
	}
	if filter.StudentID == "" {
		return true
	}
	switch filter.Direction {
	case DirectionSent:
		return req.RequesterID == filter.StudentID
	case DirectionReceived:
		return req.ReceiverID == filter.StudentID
	default:
		return req.IsParty(filter.StudentID)
	}
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		products:  make(map[string]Product, len(m.products)),
		exchanges: make(map[string]Request, len(m.exchanges)),
	}
	for k, v := range m.products {
		tx.products[k] = v
	}
	for k, v := range m.exchanges {
		tx.exchanges[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.products = tx.products
	m.exchanges = tx.exchanges
	return nil
}

type memTx struct {
	products  map[string]Product
	exchanges map[string]Request
}

func (t *memTx) LockProducts(ctx context.Context, ids ...string) (map[string]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]Product, len(ids))
	for _, id := range ids {
		if p, ok := t.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (t *memTx) LockExchange(ctx context.Context, id string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	req, ok := t.exchanges[id]
	if !ok {
		return Request{}, ErrExchangeNotFound
	}
	return req, nil
}

func (t *memTx) HasPending(ctx context.Context, requesterID, requestedProductID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, req := range t.exchanges {
		if req.Status == StatusPending && req.RequesterID == requesterID && req.RequestedProductID == requestedProductID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertExchange(ctx context.Context, req Request) (Request, error) {
	pending, err := t.HasPending(ctx, req.RequesterID, req.RequestedProductID)
	if err != nil {
		return Request{}, err
	}
	if pending && req.Status == StatusPending {
		return Request{}, ErrDuplicatePending
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if _, exists := t.exchanges[req.ID]; exists {
		return Request{}, ErrDuplicatePending
	}
	if req.Message != nil {
		msg := *req.Message
		req.Message = &msg
	}
	t.exchanges[req.ID] = req
	return req, nil
}

func (t *memTx) SetExchangeStatus(ctx context.Context, id string, from, to Status, at time.Time) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	req, ok := t.exchanges[id]
	if !ok {
		return Request{}, ErrExchangeNotFound
	}
	if req.Status != from {
		return Request{}, ErrStatusChanged
	}
	req.Status = to
	req.UpdatedAt = at
	t.exchanges[id] = req
	return req, nil
}

func (t *memTx) SetProductStatus(ctx context.Context, id string, from, to ProductStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := t.products[id]
	if !ok {
		return ErrProductNotFound
	}
	if p.Status != from {
		return ErrProductTaken
	}
	p.Status = to
	p.UpdatedAt = at
	t.products[id] = p
	return nil
}
