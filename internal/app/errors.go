package app

import "errors"

// Exchange error taxonomy. Everything except ErrProvider and a failed model
// message write is detected before streaming starts.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNotFound          = errors.New("not found")
	ErrMissingPersona    = errors.New("persona id is required to start a chat")
	ErrProvider          = errors.New("model provider error")
	ErrStore             = errors.New("store error")

	ErrInvalidInput = errors.New("invalid input")
	ErrMessageEmpty = errors.New("message content is empty")
	ErrCanceled     = errors.New("exchange canceled by caller")
)
