package exchange

import "time"

// Status is the lifecycle state of an exchange request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ProductStatus is the availability of a listed product.
type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductExchanged ProductStatus = "exchanged"
	ProductSold      ProductStatus = "sold"
	ProductDeleted   ProductStatus = "deleted"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductAvailable, ProductExchanged, ProductSold, ProductDeleted:
		return true
	default:
		return false
	}
}

// Action is a negotiation step requested by one of the parties.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

type Product struct {
	ID            string
	OwnerID       string
	Title         string
	Status        ProductStatus
	MonetaryWorth int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Party is the display view of a student taking part in an exchange.
type Party struct {
	ID           string
	Name         string
	MatricNumber string
	ImageURL     string
}

// Request is a stored exchange request.
type Request struct {
	ID                 string
	RequesterID        string
	ReceiverID         string
	RequestedProductID string
	OfferedProductID   string
	Status             Status
	Message            *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsParty reports whether studentID is the requester or the receiver.
func (r Request) IsParty(studentID string) bool {
	return studentID != "" && (studentID == r.RequesterID || studentID == r.ReceiverID)
}

// Details is a request with its parties and products resolved for display.
type Details struct {
	Request
	Requester        Party
	Receiver         Party
	RequestedProduct Product
	OfferedProduct   Product
}

type CreateParams struct {
	RequesterID        string
	RequestedProductID string
	OfferedProductID   string
	Message            *string
}

type TransitionParams struct {
	ExchangeID string
	ActorID    string
	Action     Action
}

// Direction selects which side of an exchange a listing is taken from.
type Direction string

const (
	DirectionAll      Direction = "all"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// ListFilter narrows an exchange listing. An empty StudentID lists every exchange.
type ListFilter struct {
	StudentID string
	Direction Direction
	Status    Status
	Limit     int
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)
