package message

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"campusswap/apperr"
	"campusswap/exchange"
	"campusswap/logger"
	"campusswap/notification"
)

// Exchanges is the read access the chat needs to check who may talk on an exchange.
type Exchanges interface {
	GetExchange(ctx context.Context, id string) (exchange.Request, error)
	GetParty(ctx context.Context, id string) (exchange.Party, error)
}

type Service struct {
	repo          Repository
	exchanges     Exchanges
	notifier      exchange.Notifier
	log           *logger.Logger
	idGenerator   func() string
	now           func() time.Time
	notifyTimeout time.Duration
}

func NewService(repo Repository, exchanges Exchanges, notifier exchange.Notifier, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:          repo,
		exchanges:     exchanges,
		notifier:      notifier,
		log:           log,
		idGenerator:   func() string { return uuid.NewString() },
		now:           time.Now,
		notifyTimeout: 2 * time.Second,
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

func (s *Service) WithNotifyTimeout(d time.Duration) *Service {
	if d > 0 {
		s.notifyTimeout = d
	}
	return s
}

// Send posts a message from one party of an exchange to the other and tells
// the recipient about it.
func (s *Service) Send(ctx context.Context, params SendParams) (Message, error) {
	exchangeID := strings.TrimSpace(params.ExchangeID)
	content := strings.TrimSpace(params.Content)
	if strings.TrimSpace(params.SenderID) == "" {
		return Message{}, ErrActorRequired
	}
	if exchangeID == "" || content == "" {
		return Message{}, ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return Message{}, ErrContentTooLong
	}

	ex, err := s.exchanges.GetExchange(ctx, exchangeID)
	if err != nil {
		return Message{}, classify(err)
	}
	if !ex.IsParty(params.SenderID) {
		return Message{}, ErrNotParty
	}
	recipientID := ex.RequesterID
	if params.SenderID == ex.RequesterID {
		recipientID = ex.ReceiverID
	}

	stored, err := s.repo.Insert(ctx, Message{
		ID:          s.idGenerator(),
		ExchangeID:  ex.ID,
		SenderID:    params.SenderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return Message{}, classify(err)
	}

	senderName := stored.Sender.Name
	if senderName == "" {
		if p, err := s.exchanges.GetParty(ctx, params.SenderID); err == nil {
			senderName = p.Name
			stored.Sender = p
		}
	}
	s.notify(ctx, notification.NewMessage(recipientID, senderName, ex.ID))
	return stored, nil
}

// List returns an exchange's messages oldest first and marks the ones
// addressed to the actor as read.
func (s *Service) List(ctx context.Context, exchangeID, actorID string) ([]Message, error) {
	exchangeID = strings.TrimSpace(exchangeID)
	if exchangeID == "" {
		return nil, apperr.E(apperr.InvalidArgument, "message", "Exchange ID is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrActorRequired
	}
	ex, err := s.exchanges.GetExchange(ctx, exchangeID)
	if err != nil {
		return nil, classify(err)
	}
	if !ex.IsParty(actorID) {
		return nil, ErrNotParty
	}

	items, err := s.repo.ListByExchange(ctx, ex.ID)
	if err != nil {
		return nil, classify(err)
	}
	if _, err := s.repo.MarkRead(ctx, ex.ID, actorID); err != nil {
		s.log.Warn("message: mark read failed", "exchange_id", ex.ID, "error", err)
	}
	return items, nil
}

func (s *Service) notify(ctx context.Context, draft notification.Draft) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, draft); err != nil {
		s.log.Warn("message: notification dropped", "recipient_id", draft.RecipientID, "error", err)
	}
}

func classify(err error) error {
	return apperr.AsUnavailable("message", "Messages temporarily unavailable", err)
}
