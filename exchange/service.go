package exchange

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"campusswap/apperr"
	"campusswap/logger"
	"campusswap/notification"
)

const defaultNotifyTimeout = 2 * time.Second

// Service runs the exchange negotiation lifecycle. It keeps no state of its
// own; correctness rests on the store's locks and conditional updates.
type Service struct {
	store         Store
	notifier      Notifier
	log           *logger.Logger
	idGenerator   func() string
	now           func() time.Time
	notifyTimeout time.Duration
}

func NewService(store Store, notifier Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:         store,
		notifier:      notifier,
		log:           log,
		idGenerator:   func() string { return uuid.NewString() },
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithNotifyTimeout bounds each post-commit notification delivery.
func (s *Service) WithNotifyTimeout(d time.Duration) *Service {
	if d > 0 {
		s.notifyTimeout = d
	}
	return s
}

// Create opens a pending exchange request offering one of the requester's
// products for another student's product.
func (s *Service) Create(ctx context.Context, params CreateParams) (Details, error) {
	requesterID := strings.TrimSpace(params.RequesterID)
	requestedID := strings.TrimSpace(params.RequestedProductID)
	offeredID := strings.TrimSpace(params.OfferedProductID)
	if requesterID == "" {
		return Details{}, ErrActorRequired
	}
	if requestedID == "" || offeredID == "" {
		return Details{}, ErrProductsRequired
	}
	if requestedID == offeredID {
		return Details{}, ErrSameProduct
	}
	message := trimMessage(params.Message)

	var (
		created   Request
		requested Product
		offered   Product
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		locked, err := tx.LockProducts(ctx, requestedID, offeredID)
		if err != nil {
			return err
		}
		var okRequested, okOffered bool
		requested, okRequested = locked[requestedID]
		offered, okOffered = locked[offeredID]
		if !okRequested || !okOffered {
			return ErrProductNotFound
		}
		if requested.Status != ProductAvailable || offered.Status != ProductAvailable {
			return ErrProductUnavailable
		}
		if offered.OwnerID != requesterID {
			return ErrNotOfferOwner
		}
		if requested.OwnerID == requesterID {
			return ErrOwnProduct
		}

		pending, err := tx.HasPending(ctx, requesterID, requestedID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePending
		}

		now := s.now().UTC()
		created, err = tx.InsertExchange(ctx, Request{
			ID:                 s.idGenerator(),
			RequesterID:        requesterID,
			ReceiverID:         requested.OwnerID,
			RequestedProductID: requestedID,
			OfferedProductID:   offeredID,
			Status:             StatusPending,
			Message:            message,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		return err
	})
	if err != nil {
		return Details{}, classify(err)
	}

	details := s.resolveAfterCommit(ctx, created)
	s.notify(ctx, notification.ExchangeRequested(
		created.ReceiverID, displayName(details.Requester), requested.Title, created.ID,
	))
	return details, nil
}

// Transition applies a party's action to an exchange. Accepting also marks
// both products exchanged in the same transaction.
func (s *Service) Transition(ctx context.Context, params TransitionParams) (Details, error) {
	if !params.Action.Valid() {
		return Details{}, ErrInvalidAction
	}
	exchangeID := strings.TrimSpace(params.ExchangeID)
	actorID := strings.TrimSpace(params.ActorID)
	if exchangeID == "" {
		return Details{}, ErrExchangeIDRequired
	}
	if actorID == "" {
		return Details{}, ErrActorRequired
	}

	var updated Request
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.LockExchange(ctx, exchangeID)
		if err != nil {
			return err
		}
		if err := authorize(current, actorID, params.Action); err != nil {
			return err
		}
		if err := guard(current.Status, params.Action); err != nil {
			return err
		}

		now := s.now().UTC()
		if params.Action == ActionAccept {
			for _, productID := range lockOrder(current.RequestedProductID, current.OfferedProductID) {
				if err := tx.SetProductStatus(ctx, productID, ProductAvailable, ProductExchanged, now); err != nil {
					return err
				}
			}
		}
		updated, err = tx.SetExchangeStatus(ctx, current.ID, current.Status, params.Action.Target(), now)
		return err
	})
	if err != nil {
		return Details{}, classify(err)
	}

	details := s.resolveAfterCommit(ctx, updated)
	switch params.Action {
	case ActionAccept:
		s.notify(ctx, notification.ExchangeAccepted(
			updated.RequesterID, displayName(details.Receiver), details.RequestedProduct.Title, updated.ID,
		))
	case ActionReject:
		s.notify(ctx, notification.ExchangeRejected(
			updated.RequesterID, displayName(details.Receiver), details.RequestedProduct.Title, updated.ID,
		))
	}
	return details, nil
}

// Get returns one exchange to either of its parties.
func (s *Service) Get(ctx context.Context, exchangeID, actorID string) (Details, error) {
	exchangeID = strings.TrimSpace(exchangeID)
	if exchangeID == "" {
		return Details{}, ErrExchangeIDRequired
	}
	if strings.TrimSpace(actorID) == "" {
		return Details{}, ErrActorRequired
	}
	req, err := s.store.GetExchange(ctx, exchangeID)
	if err != nil {
		return Details{}, classify(err)
	}
	if !req.IsParty(actorID) {
		return Details{}, ErrNotParty
	}
	details, err := s.resolve(ctx, req)
	if err != nil {
		return Details{}, classify(err)
	}
	return details, nil
}

// List returns the exchanges a student takes part in, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Details, error) {
	filter.StudentID = strings.TrimSpace(filter.StudentID)
	if filter.StudentID == "" {
		return nil, ErrActorRequired
	}
	return s.list(ctx, filter)
}

// ListAll returns every exchange, newest first. It backs the admin view.
func (s *Service) ListAll(ctx context.Context, status Status, limit int) ([]Details, error) {
	return s.list(ctx, ListFilter{Direction: DirectionAll, Status: status, Limit: limit})
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]Details, error) {
	if filter.Direction == "" {
		filter.Direction = DirectionAll
	}
	if _, err := ParseDirection(string(filter.Direction)); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	items, err := s.store.ListExchanges(ctx, filter)
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func authorize(req Request, actorID string, action Action) error {
	switch action {
	case ActionAccept, ActionReject:
		if actorID != req.ReceiverID {
			return ErrNotReceiver
		}
	case ActionCancel:
		if actorID != req.RequesterID {
			return ErrNotRequester
		}
	case ActionComplete:
		if !req.IsParty(actorID) {
			return ErrNotParty
		}
	default:
		return ErrInvalidAction
	}
	return nil
}

func guard(current Status, action Action) error {
	if CanTransition(current, action.Target()) {
		return nil
	}
	switch action {
	case ActionAccept, ActionReject:
		return ErrAlreadyProcessed
	case ActionComplete:
		return ErrNotAccepted
	case ActionCancel:
		return ErrNotCancellable
	default:
		return ErrInvalidAction
	}
}

// resolve loads the parties and products of req concurrently.
func (s *Service) resolve(ctx context.Context, req Request) (Details, error) {
	details := Details{Request: req}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.store.GetParty(gctx, req.RequesterID)
		details.Requester = p
		return err
	})
	g.Go(func() error {
		p, err := s.store.GetParty(gctx, req.ReceiverID)
		details.Receiver = p
		return err
	})
	g.Go(func() error {
		p, err := s.store.GetProduct(gctx, req.RequestedProductID)
		details.RequestedProduct = p
		return err
	})
	g.Go(func() error {
		p, err := s.store.GetProduct(gctx, req.OfferedProductID)
		details.OfferedProduct = p
		return err
	})
	if err := g.Wait(); err != nil {
		return Details{}, err
	}
	return details, nil
}

// resolveAfterCommit never fails: the write is already durable, so a failed
// lookup degrades to ids only.
func (s *Service) resolveAfterCommit(ctx context.Context, req Request) Details {
	details, err := s.resolve(ctx, req)
	if err == nil {
		return details
	}
	s.log.Warn("exchange: resolve details after commit", "exchange_id", req.ID, "error", err)
	return Details{
		Request:          req,
		Requester:        Party{ID: req.RequesterID},
		Receiver:         Party{ID: req.ReceiverID},
		RequestedProduct: Product{ID: req.RequestedProductID},
		OfferedProduct:   Product{ID: req.OfferedProductID},
	}
}

func (s *Service) notify(ctx context.Context, draft notification.Draft) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, draft); err != nil {
		s.log.Warn("exchange: notification dropped",
			"type", draft.Type,
			"recipient_id", draft.RecipientID,
			"error", err,
		)
	}
}

// classify leaves kinded errors alone and turns everything else (timeouts,
// cancellations, connection and serialization failures) into Unavailable.
func classify(err error) error {
	return apperr.AsUnavailable(op, "Service temporarily unavailable, please retry", err)
}

func lockOrder(a, b string) []string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids
}

func trimMessage(msg *string) *string {
	if msg == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*msg)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func displayName(p Party) string {
	if p.Name != "" {
		return p.Name
	}
	return "A student"
}
