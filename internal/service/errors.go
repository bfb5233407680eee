package service

import "errors"

// Protocol errors. These are caught at the callback boundary and turned
// into a generic client-facing message.
var (
	ErrDiscovery          = errors.New("failed to fetch provider configuration")
	ErrInvalidNonce       = errors.New("invalid or missing nonce")
	ErrIdentityResolution = errors.New("unable to resolve identity from provider response")
)

// Business rejections. Surfaced to the client with their own messages.
var (
	ErrAlreadyRegistered      = errors.New("an account with this email already exists, please sign in with your password")
	ErrUnauthenticatedForLink = errors.New("you must be signed in to link a provider")
	ErrRegistrationDisabled   = errors.New("registration is disabled on this instance")
)

var ErrProviderNotFound = errors.New("oauth provider not found")
