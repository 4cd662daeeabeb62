package model

import "errors"

var (
	// ErrAuthRejected is returned when a handshake carries no valid session.
	ErrAuthRejected = errors.New("unauthorized")

	// ErrAuthInternal is returned when the session store fails during validation.
	ErrAuthInternal = errors.New("internal_auth_error")

	// ErrValidation is returned when an inbound payload is malformed or out of bounds.
	ErrValidation = errors.New("validation error")

	// ErrPublishFailed is returned when a notification cannot be serialized or handed to the bus.
	ErrPublishFailed = errors.New("publish failed")

	// ErrUserNotFound is returned when a user update targets an unknown user.
	ErrUserNotFound = errors.New("user not found")

	// ErrConnectionOwned is returned when a connection is already registered to another user.
	ErrConnectionOwned = errors.New("connection registered to another user")
)

// Machine-readable codes sent with system:error.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeChatValidation    = "CHAT_VALIDATION_ERROR"
	CodePublishFailed     = "NOTIFICATION_PUBLISH_FAILED"
	CodeSubscribeFailed   = "SUBSCRIBE_FAILED"
	CodeUnknownEvent      = "UNKNOWN_EVENT"
	CodeUnauthorized      = "unauthorized"
	CodeInternalAuthError = "internal_auth_error"
	CodeInternalError     = "INTERNAL_ERROR"
)
