package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUpgradeRequired     = errors.New("upgrade required")
	ErrAdminOnly           = errors.New("admin only")
	ErrBusy                = errors.New("generation already in flight")
	ErrMissingPrompt       = errors.New("prompt is required")
	ErrMissingImage        = errors.New("source image is required")
	ErrProviderFailure     = errors.New("provider failure")
)
