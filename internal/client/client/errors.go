package client

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/accountlink/internal/common"
)

// APIError is a non-2xx answer from the account API.
type APIError struct {
	Status  int
	Kind    string
	Message string

	err error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Kind != "" {
		return fmt.Sprintf("%v: %d %s: %s", e.err, e.Status, e.Kind, msg)
	}
	return fmt.Sprintf("%v: %d %s", e.err, e.Status, msg)
}

func (e *APIError) Unwrap() error { return e.err }

type operation int

const (
	opLogin operation = iota
	opGetUser
)

// mapStatus picks the sentinel for a non-2xx status of op.
func mapStatus(op operation, status int) error {
	switch {
	case status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return common.ErrNetwork
	case op == opLogin:
		return common.ErrInvalidCredentials
	default:
		return common.ErrTokenInvalid
	}
}
