package notification

import "fmt"

// DefaultModerationReason is used when an administrator removes a product without a reason.
const DefaultModerationReason = "Moderation"

func ExchangeRequested(receiverID, requesterName, productTitle, exchangeID string) Draft {
	return Draft{
		RecipientID: receiverID,
		Type:        TypeExchangeRequest,
		Title:       "New Exchange Request",
		Message:     fmt.Sprintf("%s wants to exchange for your %s", requesterName, productTitle),
		Payload:     ExchangePayload{ExchangeID: exchangeID},
	}
}

func ExchangeAccepted(requesterID, receiverName, productTitle, exchangeID string) Draft {
	return Draft{
		RecipientID: requesterID,
		Type:        TypeExchangeAccepted,
		Title:       "Exchange Accepted",
		Message:     fmt.Sprintf("%s accepted your exchange request for %s", receiverName, productTitle),
		Payload:     ExchangePayload{ExchangeID: exchangeID},
	}
}

func ExchangeRejected(requesterID, receiverName, productTitle, exchangeID string) Draft {
	return Draft{
		RecipientID: requesterID,
		Type:        TypeExchangeRejected,
		Title:       "Exchange Rejected",
		Message:     fmt.Sprintf("%s rejected your exchange request for %s", receiverName, productTitle),
		Payload:     ExchangePayload{ExchangeID: exchangeID},
	}
}

func NewMessage(recipientID, senderName, exchangeID string) Draft {
	return Draft{
		RecipientID: recipientID,
		Type:        TypeMessage,
		Title:       "New Message",
		Message:     fmt.Sprintf("You have a new message from %s", senderName),
		Payload:     ExchangePayload{ExchangeID: exchangeID},
	}
}

// ProductRemoved tells an owner their product was deleted by an administrator.
func ProductRemoved(ownerID, productTitle, reason string) Draft {
	if reason == "" {
		reason = DefaultModerationReason
	}
	return Draft{
		RecipientID: ownerID,
		Type:        TypeProductDeleted,
		Title:       "Product Removed",
		Message:     fmt.Sprintf("Your product %q was deleted by admin. Reason: %s", productTitle, reason),
		Payload:     ModerationPayload{ProductTitle: productTitle, Reason: reason},
	}
}
