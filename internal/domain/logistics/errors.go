package logistics

import "errors"

var (
	// ErrUnknownMessageType is returned for events whose type has no handler
	ErrUnknownMessageType = errors.New("unknown logistics message type")
	// ErrMalformedMessage is returned when a payload lacks required fields
	ErrMalformedMessage = errors.New("malformed logistics message")
	// ErrProviderRejected is returned when a provider answers with a failure
	ErrProviderRejected = errors.New("logistics provider rejected request")
	// ErrProviderNotConfigured is returned when no adapter exists for a provider
	ErrProviderNotConfigured = errors.New("logistics provider not configured")
)
