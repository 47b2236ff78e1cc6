package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"campusswap/apperr"
	"campusswap/exchange"
	"campusswap/message"
	"campusswap/product"
)

// Student is a seeded account and the products it listed.
type Student struct {
	ID       string
	Products []string
}

// Exchanges is the slice of the exchange service the actors drive.
type Exchanges interface {
	Create(ctx context.Context, params exchange.CreateParams) (exchange.Details, error)
	Transition(ctx context.Context, params exchange.TransitionParams) (exchange.Details, error)
	List(ctx context.Context, filter exchange.ListFilter) ([]exchange.Details, error)
}

type Products interface {
	Remove(ctx context.Context, params product.RemoveParams) (exchange.Product, error)
}

type Messages interface {
	Send(ctx context.Context, params message.SendParams) (message.Message, error)
	List(ctx context.Context, exchangeID, actorID string) ([]message.Message, error)
}

// expected reports whether err is an outcome the engine is allowed to
// produce under contention or while backends are being killed.
func expected(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.Conflict, apperr.InvalidState, apperr.Unavailable:
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func pause(rng *rand.Rand, base, jitter int) {
	time.Sleep(time.Duration(base+rng.Intn(jitter)) * time.Millisecond)
}

// Requester keeps offering one of its own products for a random product of
// another student.
func Requester(ctx context.Context, svc Exchanges, rng *rand.Rand, me Student, others []Student, stop <-chan struct{}) error {
	if len(me.Products) == 0 || len(others) == 0 {
		return nil
	}
	for !stopped(ctx, stop) {
		other := others[rng.Intn(len(others))]
		if len(other.Products) == 0 {
			continue
		}
		msg := fmt.Sprintf("swap? #%d", rng.Intn(1000))
		_, err := svc.Create(ctx, exchange.CreateParams{
			RequesterID:        me.ID,
			RequestedProductID: other.Products[rng.Intn(len(other.Products))],
			OfferedProductID:   me.Products[rng.Intn(len(me.Products))],
			Message:            &msg,
		})
		if err != nil && !expected(err) {
			return fmt.Errorf("requester %s create: %w", me.ID, err)
		}
		pause(rng, 5, 20)
	}
	return nil
}

// Responder accepts or rejects pending requests addressed to it and
// completes accepted ones.
func Responder(ctx context.Context, svc Exchanges, rng *rand.Rand, me Student, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		status := exchange.StatusPending
		if rng.Intn(4) == 0 {
			status = exchange.StatusAccepted
		}
		items, err := svc.List(ctx, exchange.ListFilter{
			StudentID: me.ID,
			Direction: exchange.DirectionReceived,
			Status:    status,
			Limit:     20,
		})
		if err != nil {
			if expected(err) {
				pause(rng, 10, 20)
				continue
			}
			return fmt.Errorf("responder %s list: %w", me.ID, err)
		}
		if len(items) == 0 {
			pause(rng, 10, 20)
			continue
		}

		target := items[rng.Intn(len(items))]
		action := exchange.ActionReject
		switch {
		case status == exchange.StatusAccepted:
			action = exchange.ActionComplete
		case rng.Intn(3) == 0:
			action = exchange.ActionAccept
		}
		_, err = svc.Transition(ctx, exchange.TransitionParams{
			ExchangeID: target.ID,
			ActorID:    me.ID,
			Action:     action,
		})
		if err != nil && !expected(err) {
			return fmt.Errorf("responder %s %s %s: %w", me.ID, action, target.ID, err)
		}
		pause(rng, 10, 30)
	}
	return nil
}

// Canceller withdraws pending requests it sent.
func Canceller(ctx context.Context, svc Exchanges, rng *rand.Rand, me Student, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		items, err := svc.List(ctx, exchange.ListFilter{
			StudentID: me.ID,
			Direction: exchange.DirectionSent,
			Status:    exchange.StatusPending,
			Limit:     20,
		})
		if err != nil && !expected(err) {
			return fmt.Errorf("canceller %s list: %w", me.ID, err)
		}
		if len(items) > 0 {
			target := items[rng.Intn(len(items))]
			_, err := svc.Transition(ctx, exchange.TransitionParams{
				ExchangeID: target.ID,
				ActorID:    me.ID,
				Action:     exchange.ActionCancel,
			})
			if err != nil && !expected(err) {
				return fmt.Errorf("canceller %s cancel %s: %w", me.ID, target.ID, err)
			}
		}
		pause(rng, 40, 60)
	}
	return nil
}

// Chatter posts into the threads of its exchanges and reads them back.
func Chatter(ctx context.Context, ex Exchanges, msgs Messages, rng *rand.Rand, me Student, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		items, err := ex.List(ctx, exchange.ListFilter{StudentID: me.ID, Limit: 20})
		if err != nil && !expected(err) {
			return fmt.Errorf("chatter %s list: %w", me.ID, err)
		}
		if len(items) > 0 {
			target := items[rng.Intn(len(items))]
			_, err := msgs.Send(ctx, message.SendParams{
				ExchangeID: target.ID,
				SenderID:   me.ID,
				Content:    fmt.Sprintf("still up for it? %d", rng.Intn(100)),
			})
			if err != nil && !expected(err) {
				return fmt.Errorf("chatter %s send: %w", me.ID, err)
			}
			if _, err := msgs.List(ctx, target.ID, me.ID); err != nil && !expected(err) {
				return fmt.Errorf("chatter %s read: %w", me.ID, err)
			}
		}
		pause(rng, 30, 50)
	}
	return nil
}

// Moderator occasionally takes down a random listed product while exchanges
// on it may still be in flight.
func Moderator(ctx context.Context, svc Products, rng *rand.Rand, students []Student, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		pause(rng, 500, 1000)
		if stopped(ctx, stop) {
			return nil
		}
		s := students[rng.Intn(len(students))]
		if len(s.Products) == 0 {
			continue
		}
		_, err := svc.Remove(ctx, product.RemoveParams{
			ProductID: s.Products[rng.Intn(len(s.Products))],
			Reason:    "Stress moderation",
		})
		if err != nil && !expected(err) {
			return fmt.Errorf("moderator remove: %w", err)
		}
	}
	return nil
}
