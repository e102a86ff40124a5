// Package common defines shared constants and sentinel errors used across
// the accountlink client, its services and the dev API server. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Local persistence errors. ErrStorage wraps any failure of the secure
	// store or the account registry tables.
	ErrStorage  = errors.New("storage error")
	ErrNotFound = errors.New("not found")

	// Remote API errors.
	ErrNetwork            = errors.New("network error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")

	// Account linking errors.
	ErrAlreadyLinked       = errors.New("account already linked")
	ErrNoCachedCredentials = errors.New("no cached credentials")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSameAccount         = errors.New("account is already active")
)

// Message is one of the user-visible failure categories shown by login and
// switch screens.
type Message string

const (
	MessageInvalidCredentials Message = "Invalid phone number or password"
	MessageNetwork            Message = "Network error, please try again"
	MessageGeneric            Message = "Something went wrong"
)

// UserMessage collapses err into a single human-readable category.
func UserMessage(err error) Message {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenInvalid):
		return MessageInvalidCredentials
	case errors.Is(err, ErrNetwork):
		return MessageNetwork
	default:
		return MessageGeneric
	}
}
