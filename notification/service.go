package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusswap/apperr"
	"campusswap/logger"
)

// Service stores notifications and fans them out to realtime publishers.
// The stored row is the source of truth; publishing is best effort.
type Service struct {
	repo        Repository
	publishers  []Publisher
	log         *logger.Logger
	idGenerator func() string
	now         func() time.Time
}

func NewService(repo Repository, log *logger.Logger, publishers ...Publisher) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:        repo,
		publishers:  publishers,
		log:         log,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
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

// Notify validates and stores a draft, then publishes it.
func (s *Service) Notify(ctx context.Context, draft Draft) error {
	_, err := s.Create(ctx, draft)
	return err
}

// Create is Notify returning the stored notification.
func (s *Service) Create(ctx context.Context, draft Draft) (Notification, error) {
	if err := draft.Validate(); err != nil {
		return Notification{}, apperr.Wrap(apperr.InvalidArgument, "notification", "Invalid notification", err)
	}
	stored, err := s.repo.Insert(ctx, Notification{
		ID:          s.idGenerator(),
		RecipientID: draft.RecipientID,
		Type:        draft.Type,
		Title:       draft.Title,
		Message:     draft.Message,
		Payload:     draft.Payload,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return Notification{}, classify(err)
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, stored); err != nil {
			s.log.Warn("notification: publish failed",
				"notification_id", stored.ID,
				"recipient_id", stored.RecipientID,
				"error", err,
			)
		}
	}
	return stored, nil
}

// List returns a student's newest notifications and their unread total.
func (s *Service) List(ctx context.Context, studentID string, unreadOnly bool) (ListResult, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return ListResult{}, ErrStudentRequired
	}
	items, err := s.repo.List(ctx, studentID, unreadOnly, DefaultListLimit)
	if err != nil {
		return ListResult{}, classify(err)
	}
	unread, err := s.repo.CountUnread(ctx, studentID)
	if err != nil {
		return ListResult{}, classify(err)
	}
	return ListResult{Items: items, UnreadCount: unread}, nil
}

// MarkRead flips one notification to read. Only its recipient may do so.
func (s *Service) MarkRead(ctx context.Context, id, studentID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}
	if strings.TrimSpace(studentID) == "" {
		return ErrStudentRequired
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return classify(err)
	}
	if n.RecipientID != studentID {
		return ErrNotRecipient
	}
	if n.Read {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return classify(err)
	}
	return nil
}

// MarkAllRead flips every unread notification of a student and reports how many changed.
func (s *Service) MarkAllRead(ctx context.Context, studentID string) (int64, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return 0, ErrStudentRequired
	}
	n, err := s.repo.MarkAllRead(ctx, studentID)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// Close releases every publisher.
func (s *Service) Close() error {
	var errs []error
	for _, p := range s.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func classify(err error) error {
	return apperr.AsUnavailable("notification", "Notifications temporarily unavailable", err)
}
