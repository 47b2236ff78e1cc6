package notification

import (
	"fmt"
	"strings"
	"time"
)

// Type enumerates the events a student can be notified about.
type Type string

const (
	TypeExchangeRequest  Type = "exchange_request"
	TypeExchangeAccepted Type = "exchange_accepted"
	TypeExchangeRejected Type = "exchange_rejected"
	TypeMessage          Type = "message"
	TypeProductDeleted   Type = "product_deleted"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeExchangeRequest, TypeExchangeAccepted, TypeExchangeRejected, TypeMessage, TypeProductDeleted:
		return true
	default:
		return false
	}
}

// Notification mirrors the notifications table. Only Read ever changes after insert.
type Notification struct {
	ID          string
	RecipientID string
	Type        Type
	Title       string
	Message     string
	Payload     Payload
	Read        bool
	CreatedAt   time.Time
}

// Draft is a notification that has not been stored yet.
type Draft struct {
	RecipientID string
	Type        Type
	Title       string
	Message     string
	Payload     Payload
}

// Validate checks the draft is complete and that its payload variant belongs to its type.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.RecipientID) == "" {
		return fmt.Errorf("notification: recipient required")
	}
	if !d.Type.Valid() {
		return fmt.Errorf("notification: unknown type %q", d.Type)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("notification: title required")
	}
	if d.Payload == nil {
		return fmt.Errorf("notification: payload required for %s", d.Type)
	}
	if !d.Payload.allows(d.Type) {
		return fmt.Errorf("notification: payload %T does not match type %s", d.Payload, d.Type)
	}
	return nil
}

// ListResult bundles an inbox page with the unread total.
type ListResult struct {
	Items       []Notification
	UnreadCount int
}

// DefaultListLimit caps inbox listings.
const DefaultListLimit = 50
