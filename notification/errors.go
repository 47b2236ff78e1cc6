package notification

import "campusswap/apperr"

var (
	ErrStudentRequired = apperr.E(apperr.InvalidArgument, "notification", "Student id is required")
	ErrIDRequired      = apperr.E(apperr.InvalidArgument, "notification", "Notification id is required")
	ErrNotFound        = apperr.E(apperr.NotFound, "notification", "Notification not found")
	ErrNotRecipient    = apperr.E(apperr.Forbidden, "notification", "You can only update your own notifications")
)
