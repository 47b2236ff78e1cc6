package exchange

import "campusswap/apperr"

const op = "exchange"

var (
	ErrActorRequired      = apperr.E(apperr.InvalidArgument, op, "Actor id is required")
	ErrProductsRequired   = apperr.E(apperr.InvalidArgument, op, "Both products are required")
	ErrSameProduct        = apperr.E(apperr.InvalidArgument, op, "You cannot offer the product you are requesting")
	ErrExchangeIDRequired = apperr.E(apperr.InvalidArgument, op, "Exchange id is required")
	ErrInvalidAction      = apperr.E(apperr.InvalidArgument, op, "Invalid action")
	ErrInvalidDirection   = apperr.E(apperr.InvalidArgument, op, "Invalid type filter")
	ErrInvalidStatus      = apperr.E(apperr.InvalidArgument, op, "Invalid status filter")

	ErrProductNotFound  = apperr.E(apperr.NotFound, op, "One or both products not found")
	ErrExchangeNotFound = apperr.E(apperr.NotFound, op, "Exchange request not found")
	ErrPartyNotFound    = apperr.E(apperr.NotFound, op, "Student not found")

	ErrNotOfferOwner = apperr.E(apperr.Forbidden, op, "You can only offer your own products")
	ErrOwnProduct    = apperr.E(apperr.Forbidden, op, "You cannot request your own product")
	ErrNotReceiver   = apperr.E(apperr.Forbidden, op, "Only the receiver can accept or reject")
	ErrNotRequester  = apperr.E(apperr.Forbidden, op, "Only the requester can cancel")
	ErrNotParty      = apperr.E(apperr.Forbidden, op, "You are not a party to this exchange")

	ErrProductUnavailable = apperr.E(apperr.InvalidState, op, "Products must be available for exchange")
	ErrAlreadyProcessed   = apperr.E(apperr.InvalidState, op, "This request has already been processed")
	ErrNotAccepted        = apperr.E(apperr.InvalidState, op, "Exchange must be accepted first")
	ErrNotCancellable     = apperr.E(apperr.InvalidState, op, "Only pending requests can be cancelled")

	ErrDuplicatePending = apperr.E(apperr.Conflict, op, "You already have a pending request for this product")
	ErrProductTaken     = apperr.E(apperr.Conflict, op, "One or both products are no longer available")
	ErrStatusChanged    = apperr.E(apperr.Conflict, op, "Exchange was updated by another request")
)
