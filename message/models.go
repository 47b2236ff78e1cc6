package message

import (
	"time"

	"campusswap/apperr"
	"campusswap/exchange"
)

// Message is one chat line between the two parties of an exchange.
type Message struct {
	ID          string
	ExchangeID  string
	SenderID    string
	RecipientID string
	Content     string
	Read        bool
	CreatedAt   time.Time
	Sender      exchange.Party
	Recipient   exchange.Party
}

type SendParams struct {
	ExchangeID string
	SenderID   string
	Content    string
}

// MaxContentLength bounds a single message, counted in runes.
const MaxContentLength = 2000

var (
	ErrContentRequired = apperr.E(apperr.InvalidArgument, "message", "Exchange ID and content are required")
	ErrContentTooLong  = apperr.E(apperr.InvalidArgument, "message", "Message is too long")
	ErrActorRequired   = apperr.E(apperr.InvalidArgument, "message", "Actor id is required")
	ErrNotParty        = apperr.E(apperr.Forbidden, "message", "You are not a party to this exchange")
)
