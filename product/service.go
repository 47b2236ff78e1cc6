// Package product implements administrator moderation of listed products.
package product

import (
	"context"
	"strings"
	"time"

	"campusswap/apperr"
	"campusswap/exchange"
	"campusswap/logger"
	"campusswap/notification"
)

var (
	ErrIDRequired     = apperr.E(apperr.InvalidArgument, "product", "Product id is required")
	ErrNotFound       = apperr.E(apperr.NotFound, "product", "Product not found")
	ErrExchanged      = apperr.E(apperr.InvalidState, "product", "Exchanged products cannot be removed")
	ErrAlreadyDeleted = apperr.E(apperr.InvalidState, "product", "Product was already removed")
)

// stateError explains why a product in status s cannot be removed.
func stateError(s exchange.ProductStatus) error {
	switch s {
	case exchange.ProductExchanged:
		return ErrExchanged
	case exchange.ProductDeleted:
		return ErrAlreadyDeleted
	default:
		return apperr.E(apperr.InvalidState, "product", "Product cannot be removed in status "+string(s))
	}
}

type RemoveParams struct {
	ProductID string
	Reason    string
}

type Service struct {
	repo          Repository
	notifier      exchange.Notifier
	log           *logger.Logger
	now           func() time.Time
	notifyTimeout time.Duration
}

func NewService(repo Repository, notifier exchange.Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:          repo,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
		notifyTimeout: 2 * time.Second,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithNotifyTimeout(d time.Duration) *Service {
	if d > 0 {
		s.notifyTimeout = d
	}
	return s
}

func (s *Service) Get(ctx context.Context, id string) (exchange.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return exchange.Product{}, ErrIDRequired
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return exchange.Product{}, classify(err)
	}
	return p, nil
}

// Remove soft-deletes a product on behalf of an administrator and tells its
// owner why. Exchanged products keep their status.
func (s *Service) Remove(ctx context.Context, params RemoveParams) (exchange.Product, error) {
	id := strings.TrimSpace(params.ProductID)
	if id == "" {
		return exchange.Product{}, ErrIDRequired
	}
	removed, err := s.repo.MarkDeleted(ctx, id, s.now().UTC())
	if err != nil {
		return exchange.Product{}, classify(err)
	}

	s.log.Info("product: removed by admin", "product_id", removed.ID, "owner_id", removed.OwnerID)
	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		draft := notification.ProductRemoved(removed.OwnerID, removed.Title, strings.TrimSpace(params.Reason))
		if err := s.notifier.Notify(nctx, draft); err != nil {
			s.log.Warn("product: notification dropped", "product_id", removed.ID, "error", err)
		}
	}
	return removed, nil
}

func classify(err error) error {
	return apperr.AsUnavailable("product", "Products temporarily unavailable", err)
}
