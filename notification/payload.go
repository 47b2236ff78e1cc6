package notification

import (
	"encoding/json"
	"fmt"
)

// Payload is the typed data attached to a notification. Each variant lists
// the notification types it may accompany.
type Payload interface {
	allows(t Type) bool
}

// ExchangePayload points at an exchange request. It accompanies exchange
// lifecycle events and chat messages.
type ExchangePayload struct {
	ExchangeID string `json:"exchangeId"`
}

func (ExchangePayload) allows(t Type) bool {
	switch t {
	case TypeExchangeRequest, TypeExchangeAccepted, TypeExchangeRejected, TypeMessage:
		return true
	default:
		return false
	}
}

// ModerationPayload describes a product removed by an administrator.
type ModerationPayload struct {
	ProductTitle string `json:"productTitle"`
	Reason       string `json:"reason"`
}

func (ModerationPayload) allows(t Type) bool { return t == TypeProductDeleted }

// EncodePayload renders p as the JSON stored in the data column.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("notification: marshal payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses stored JSON into the variant that belongs to t.
func DecodePayload(t Type, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch t {
	case TypeExchangeRequest, TypeExchangeAccepted, TypeExchangeRejected, TypeMessage:
		var p ExchangePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("notification: decode %s payload: %w", t, err)
		}
		return p, nil
	case TypeProductDeleted:
		var p ModerationPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("notification: decode %s payload: %w", t, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("notification: unknown type %q", t)
	}
}
