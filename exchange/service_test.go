package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"campusswap/apperr"
	"campusswap/logger"
	"campusswap/notification"
)

// scenario seeds three students: A owns P1 and P3, B owns P2, C owns P4.
func scenario(t *testing.T) (*Service, *MemoryStore, *recordingNotifier) {
	t.Helper()
	store := NewMemoryStore()
	store.PutParty(Party{ID: "A", Name: "Ada", MatricNumber: "CSC/001"})
	store.PutParty(Party{ID: "B", Name: "Bola", MatricNumber: "CSC/002"})
	store.PutParty(Party{ID: "C", Name: "Chidi", MatricNumber: "CSC/003"})
	store.PutProduct(Product{ID: "P1", OwnerID: "A", Title: "Desk lamp", MonetaryWorth: 5000})
	store.PutProduct(Product{ID: "P2", OwnerID: "B", Title: "Calculator", MonetaryWorth: 3000})
	store.PutProduct(Product{ID: "P3", OwnerID: "A", Title: "Kettle", MonetaryWorth: 4000})
	store.PutProduct(Product{ID: "P4", OwnerID: "C", Title: "Backpack", MonetaryWorth: 2500})

	notifier := &recordingNotifier{}
	seq := 0
	var mu sync.Mutex
	svc := NewService(store, notifier, logger.Nop()).
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("ex-%d", seq)
		}).
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) })
	return svc, store, notifier
}

func mustCreate(t *testing.T, svc *Service, requester, requested, offered string) Details {
	t.Helper()
	d, err := svc.Create(context.Background(), CreateParams{
		RequesterID:        requester,
		RequestedProductID: requested,
		OfferedProductID:   offered,
	})
	if err != nil {
		t.Fatalf("create %s->%s: %v", offered, requested, err)
	}
	return d
}

func productStatus(t *testing.T, store *MemoryStore, id string) ProductStatus {
	t.Helper()
	p, err := store.GetProduct(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return p.Status
}

func TestCreate_PendingWithReceiverFromRequestedOwner(t *testing.T) {
	svc, store, notifier := scenario(t)
	msg := "  swap? "

	d, err := svc.Create(context.Background(), CreateParams{
		RequesterID:        "A",
		RequestedProductID: "P2",
		OfferedProductID:   "P1",
		Message:            &msg,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Status != StatusPending {
		t.Fatalf("expected pending, got %s", d.Status)
	}
	if d.ReceiverID != "B" {
		t.Fatalf("expected receiver B, got %s", d.ReceiverID)
	}
	if d.Message == nil || *d.Message != "swap?" {
		t.Fatalf("expected trimmed message, got %v", d.Message)
	}
	if d.Requester.Name != "Ada" || d.Receiver.Name != "Bola" {
		t.Fatalf("expected parties resolved, got %+v / %+v", d.Requester, d.Receiver)
	}
	if d.RequestedProduct.Title != "Calculator" || d.OfferedProduct.Title != "Desk lamp" {
		t.Fatalf("expected products resolved, got %+v / %+v", d.RequestedProduct, d.OfferedProduct)
	}
	for _, id := range []string{"P1", "P2"} {
		if got := productStatus(t, store, id); got != ProductAvailable {
			t.Fatalf("expected %s available after create, got %s", id, got)
		}
	}

	sent := notifier.drafts()
	if len(sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sent))
	}
	n := sent[0]
	if n.RecipientID != "B" || n.Type != notification.TypeExchangeRequest {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.Message != "Ada wants to exchange for your Calculator" {
		t.Fatalf("unexpected notification text %q", n.Message)
	}
	if p, ok := n.Payload.(notification.ExchangePayload); !ok || p.ExchangeID != d.ID {
		t.Fatalf("expected exchange payload for %s, got %#v", d.ID, n.Payload)
	}
}

func TestCreate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		params CreateParams
		setup  func(*MemoryStore)
		kind   apperr.Kind
		want   error
	}{
		{
			name:   "missing product",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P2"},
			kind:   apperr.InvalidArgument,
			want:   ErrProductsRequired,
		},
		{
			name:   "same product twice",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P1", OfferedProductID: "P1"},
			kind:   apperr.InvalidArgument,
			want:   ErrSameProduct,
		},
		{
			name:   "unknown product",
			params: CreateParams{RequesterID: "A", RequestedProductID: "nope", OfferedProductID: "P1"},
			kind:   apperr.NotFound,
			want:   ErrProductNotFound,
		},
		{
			name:   "offered product owned by someone else",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P4"},
			kind:   apperr.Forbidden,
			want:   ErrNotOfferOwner,
		},
		{
			name:   "requesting own product",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P3", OfferedProductID: "P1"},
			kind:   apperr.Forbidden,
			want:   ErrOwnProduct,
		},
		{
			name:   "requested product not available",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P1"},
			setup: func(m *MemoryStore) {
				m.PutProduct(Product{ID: "P2", OwnerID: "B", Title: "Calculator", Status: ProductSold})
			},
			kind: apperr.InvalidState,
			want: ErrProductUnavailable,
		},
		{
			name:   "offered product already exchanged",
			params: CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P1"},
			setup: func(m *MemoryStore) {
				m.PutProduct(Product{ID: "P1", OwnerID: "A", Title: "Desk lamp", Status: ProductExchanged})
			},
			kind: apperr.InvalidState,
			want: ErrProductUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, notifier := scenario(t)
			if tc.setup != nil {
				tc.setup(store)
			}
			_, err := svc.Create(context.Background(), tc.params)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected kind %s, got %v", tc.kind, err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got, _ := store.ListExchanges(context.Background(), ListFilter{}); len(got) != 0 {
				t.Fatalf("expected no exchange stored, got %d", len(got))
			}
			if len(notifier.drafts()) != 0 {
				t.Fatalf("expected no notification on failure")
			}
		})
	}
}

func TestCreate_DuplicatePendingIsConflict(t *testing.T) {
	svc, _, _ := scenario(t)
	mustCreate(t, svc, "A", "P2", "P1")

	_, err := svc.Create(context.Background(), CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P3"})
	if !errors.Is(err, apperr.Conflict) || !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("expected duplicate pending conflict, got %v", err)
	}
}

func TestCreate_AllowedAgainAfterRejection(t *testing.T) {
	svc, _, _ := scenario(t)
	first := mustCreate(t, svc, "A", "P2", "P1")
	if _, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: first.ID, ActorID: "B", Action: ActionReject}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	second := mustCreate(t, svc, "A", "P2", "P3")
	if second.Status != StatusPending {
		t.Fatalf("expected new pending request, got %s", second.Status)
	}
}

func TestCreate_ReverseDirectionPendingPairAllowed(t *testing.T) {
	svc, _, _ := scenario(t)
	mustCreate(t, svc, "A", "P2", "P1")
	reverse := mustCreate(t, svc, "B", "P1", "P2")
	if reverse.ReceiverID != "A" {
		t.Fatalf("expected reverse request received by A, got %s", reverse.ReceiverID)
	}
}

func TestCreate_ConcurrentDuplicatesYieldOneSuccess(t *testing.T) {
	svc, store, _ := scenario(t)
	store.PutProduct(Product{ID: "P5", OwnerID: "A", Title: "Mirror"})

	offers := []string{"P1", "P3", "P5"}
	errs := make([]error, len(offers))
	var wg sync.WaitGroup
	for i, offered := range offers {
		wg.Add(1)
		go func(i int, offered string) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: offered})
		}(i, offered)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, apperr.Conflict):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one pending request, got %d", success)
	}
}

func TestScenario_AcceptThenComplete(t *testing.T) {
	svc, store, notifier := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")

	accepted, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionAccept})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}
	if accepted.RequestedProduct.Status != ProductExchanged || accepted.OfferedProduct.Status != ProductExchanged {
		t.Fatalf("expected resolved products exchanged, got %s / %s", accepted.RequestedProduct.Status, accepted.OfferedProduct.Status)
	}
	for _, id := range []string{"P1", "P2"} {
		if got := productStatus(t, store, id); got != ProductExchanged {
			t.Fatalf("expected %s exchanged, got %s", id, got)
		}
	}

	sent := notifier.drafts()
	last := sent[len(sent)-1]
	if last.RecipientID != "A" || last.Type != notification.TypeExchangeAccepted {
		t.Fatalf("expected acceptance notification to A, got %+v", last)
	}
	if last.Message != "Bola accepted your exchange request for Calculator" {
		t.Fatalf("unexpected acceptance text %q", last.Message)
	}

	completed, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: "A", Action: ActionComplete})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if len(notifier.drafts()) != len(sent) {
		t.Fatalf("expected no notification on complete")
	}
}

func TestReject_NotifiesRequesterWithoutTouchingProducts(t *testing.T) {
	svc, store, notifier := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")

	rejected, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionReject})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	for _, id := range []string{"P1", "P2"} {
		if got := productStatus(t, store, id); got != ProductAvailable {
			t.Fatalf("expected %s still available, got %s", id, got)
		}
	}
	sent := notifier.drafts()
	last := sent[len(sent)-1]
	if last.Type != notification.TypeExchangeRejected || last.RecipientID != "A" {
		t.Fatalf("expected rejection notification to A, got %+v", last)
	}
}

func TestAccept_TwiceYieldsInvalidState(t *testing.T) {
	svc, store, _ := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")
	params := TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionAccept}

	if _, err := svc.Transition(context.Background(), params); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := svc.Transition(context.Background(), params)
	if !errors.Is(err, apperr.InvalidState) || !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}
	if got := productStatus(t, store, "P1"); got != ProductExchanged {
		t.Fatalf("expected P1 exchanged once, got %s", got)
	}
}

func TestTransition_AuthorizationAndGuards(t *testing.T) {
	cases := []struct {
		name    string
		prepare []TransitionParams
		actor   string
		action  Action
		want    error
		kind    apperr.Kind
	}{
		{name: "non receiver accepts", actor: "C", action: ActionAccept, want: ErrNotReceiver, kind: apperr.Forbidden},
		{name: "requester rejects", actor: "A", action: ActionReject, want: ErrNotReceiver, kind: apperr.Forbidden},
		{name: "receiver cancels", actor: "B", action: ActionCancel, want: ErrNotRequester, kind: apperr.Forbidden},
		{name: "outsider completes", actor: "C", action: ActionComplete, want: ErrNotParty, kind: apperr.Forbidden},
		{name: "complete while pending", actor: "A", action: ActionComplete, want: ErrNotAccepted, kind: apperr.InvalidState},
		{
			name:    "cancel after accept",
			prepare: []TransitionParams{{ActorID: "B", Action: ActionAccept}},
			actor:   "A", action: ActionCancel, want: ErrNotCancellable, kind: apperr.InvalidState,
		},
		{
			name:    "reject after cancel",
			prepare: []TransitionParams{{ActorID: "A", Action: ActionCancel}},
			actor:   "B", action: ActionReject, want: ErrAlreadyProcessed, kind: apperr.InvalidState,
		},
		{
			name: "complete twice",
			prepare: []TransitionParams{
				{ActorID: "B", Action: ActionAccept},
				{ActorID: "B", Action: ActionComplete},
			},
			actor: "A", action: ActionComplete, want: ErrNotAccepted, kind: apperr.InvalidState,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := scenario(t)
			created := mustCreate(t, svc, "A", "P2", "P1")
			for _, p := range tc.prepare {
				p.ExchangeID = created.ID
				if _, err := svc.Transition(context.Background(), p); err != nil {
					t.Fatalf("prepare %s: %v", p.Action, err)
				}
			}
			before, _ := store.GetExchange(context.Background(), created.ID)

			_, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: tc.actor, Action: tc.action})
			if !errors.Is(err, tc.want) || !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v (%s), got %v", tc.want, tc.kind, err)
			}
			after, _ := store.GetExchange(context.Background(), created.ID)
			if after.Status != before.Status {
				t.Fatalf("status changed on failure: %s -> %s", before.Status, after.Status)
			}
		})
	}
}

func TestTransition_InvalidInput(t *testing.T) {
	svc, _, _ := scenario(t)

	_, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: "ex-1", ActorID: "B", Action: "approve"})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
	_, err = svc.Transition(context.Background(), TransitionParams{ExchangeID: "missing", ActorID: "B", Action: ActionAccept})
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = svc.Transition(context.Background(), TransitionParams{ActorID: "B", Action: ActionAccept})
	if !errors.Is(err, apperr.InvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestAccept_ConcurrentSharedProductOneWins(t *testing.T) {
	svc, store, _ := scenario(t)
	// Both requests want B's calculator.
	first := mustCreate(t, svc, "A", "P2", "P1")
	second := mustCreate(t, svc, "C", "P2", "P4")

	ids := []string{first.ID, second.ID}
	errs := make([]error, len(ids))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Transition(context.Background(), TransitionParams{ExchangeID: id, ActorID: "B", Action: ActionAccept})
		}(i, id)
	}
	close(start)
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperr.Conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected one win and one conflict, got %d/%d", wins, conflicts)
	}

	accepted := 0
	for _, id := range ids {
		req, _ := store.GetExchange(context.Background(), id)
		if req.Status == StatusAccepted {
			accepted++
		} else if req.Status != StatusPending {
			t.Fatalf("loser should stay pending, got %s", req.Status)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected one accepted exchange, got %d", accepted)
	}
	// The loser's offered product must not have been flipped.
	exchanged := 0
	for _, id := range []string{"P1", "P4"} {
		if productStatus(t, store, id) == ProductExchanged {
			exchanged++
		}
	}
	if exchanged != 1 {
		t.Fatalf("expected exactly one offered product exchanged, got %d", exchanged)
	}
}

func TestAccept_LostRaceRollsBackAllWrites(t *testing.T) {
	svc, store, _ := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")
	// P1 is taken by another deal before B responds.
	store.PutProduct(Product{ID: "P1", OwnerID: "A", Title: "Desk lamp", Status: ProductExchanged})

	_, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionAccept})
	if !errors.Is(err, ErrProductTaken) {
		t.Fatalf("expected product taken conflict, got %v", err)
	}
	if got := productStatus(t, store, "P2"); got != ProductAvailable {
		t.Fatalf("expected P2 untouched, got %s", got)
	}
	req, _ := store.GetExchange(context.Background(), created.ID)
	if req.Status != StatusPending {
		t.Fatalf("expected exchange still pending, got %s", req.Status)
	}
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	svc, store, notifier := scenario(t)
	notifier.err = errors.New("sink down")

	created := mustCreate(t, svc, "A", "P2", "P1")
	if _, err := svc.Transition(context.Background(), TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionAccept}); err != nil {
		t.Fatalf("accept should succeed despite notifier error: %v", err)
	}
	req, _ := store.GetExchange(context.Background(), created.ID)
	if req.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", req.Status)
	}
}

func TestNotifyOutlivesCallerCancellation(t *testing.T) {
	svc, _, notifier := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")

	ctx, cancel := context.WithCancel(context.Background())
	notifier.onNotify = func(nctx context.Context) {
		cancel()
		if err := nctx.Err(); err != nil {
			t.Errorf("notification context should not inherit cancellation: %v", err)
		}
		if _, ok := nctx.Deadline(); !ok {
			t.Errorf("notification context should carry a deadline")
		}
	}
	if _, err := svc.Transition(ctx, TransitionParams{ExchangeID: created.ID, ActorID: "B", Action: ActionReject}); err != nil {
		t.Fatalf("reject: %v", err)
	}
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	svc, store, _ := scenario(t)
	svc.store = &failingStore{MemoryStore: store, err: errors.New("connection reset by peer")}

	_, err := svc.Create(context.Background(), CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P1"})
	if !errors.Is(err, apperr.Unavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if !apperr.KindOf(err).Retryable() {
		t.Fatalf("expected retryable error")
	}
}

func TestCancelledContextIsUnavailable(t *testing.T) {
	svc, _, _ := scenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, CreateParams{RequesterID: "A", RequestedProductID: "P2", OfferedProductID: "P1"})
	if !errors.Is(err, apperr.Unavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected unavailable wrapping context.Canceled, got %v", err)
	}
}

func TestGet_PartyOnly(t *testing.T) {
	svc, _, _ := scenario(t)
	created := mustCreate(t, svc, "A", "P2", "P1")

	for _, actor := range []string{"A", "B"} {
		d, err := svc.Get(context.Background(), created.ID, actor)
		if err != nil {
			t.Fatalf("get as %s: %v", actor, err)
		}
		if d.ID != created.ID {
			t.Fatalf("unexpected exchange %s", d.ID)
		}
	}
	if _, err := svc.Get(context.Background(), created.ID, "C"); !errors.Is(err, ErrNotParty) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", "A"); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestList_Directions(t *testing.T) {
	svc, _, _ := scenario(t)
	sent := mustCreate(t, svc, "A", "P2", "P1")
	received := mustCreate(t, svc, "C", "P3", "P4")

	cases := []struct {
		direction Direction
		want      []string
	}{
		{DirectionAll, []string{received.ID, sent.ID}},
		{DirectionSent, []string{sent.ID}},
		{DirectionReceived, []string{received.ID}},
	}
	for _, tc := range cases {
		items, err := svc.List(context.Background(), ListFilter{StudentID: "A", Direction: tc.direction})
		if err != nil {
			t.Fatalf("list %s: %v", tc.direction, err)
		}
		if len(items) != len(tc.want) {
			t.Fatalf("list %s: expected %d items, got %d", tc.direction, len(tc.want), len(items))
		}
		for i, id := range tc.want {
			if items[i].ID != id {
				t.Fatalf("list %s: expected %v order, got %s at %d", tc.direction, tc.want, items[i].ID, i)
			}
		}
	}

	if _, err := svc.List(context.Background(), ListFilter{StudentID: "A", Direction: "outbox"}); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected invalid direction, got %v", err)
	}
	if _, err := svc.List(context.Background(), ListFilter{}); !errors.Is(err, apperr.InvalidArgument) {
		t.Fatalf("expected missing student to be rejected, got %v", err)
	}

	all, err := svc.ListAll(context.Background(), StatusPending, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two pending exchanges, got %d", len(all))
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []notification.Draft
	err      error
	onNotify func(ctx context.Context)
}

func (r *recordingNotifier) Notify(ctx context.Context, draft notification.Draft) error {
	if r.onNotify != nil {
		r.onNotify(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := draft.Validate(); err != nil {
		return err
	}
	r.sent = append(r.sent, draft)
	return r.err
}

func (r *recordingNotifier) drafts() []notification.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Draft(nil), r.sent...)
}

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return fmt.Errorf("exchange: begin tx: %w", f.err)
}
