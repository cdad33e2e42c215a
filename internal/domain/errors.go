package domain

import "errors"

// Sentinel errors used throughout the application. Callers branch on
// them with errors.Is; none of them carry dynamic context.
var (
	ErrNotFound           = errors.New("not found")
	ErrNoPushSubscription = errors.New("no push subscription registered for user")
	ErrNoChannels         = errors.New("no notification channels configured")
	ErrUnauthorized       = errors.New("invalid or missing dispatch secret")
)
