// Package client talks to the remote account API.
//
// # Overview
//
// Client is the transport-agnostic contract the services depend on:
//
//	POST {base}/login           {phone, password} -> {accountId, token, name, role}
//	GET  {base}/users/{id}      Authorization: Bearer <token> -> profile
//
// HTTPClient implements it over net/http. Every request carries the device
// installation id (X-Device-ID) and a fresh request id (X-Request-ID).
//
// # Error Handling
//
// Transport outcomes are mapped in one place (mapStatus) onto the sentinels of
// package common, so callers match with errors.Is:
//
//   - login 4xx                         -> common.ErrInvalidCredentials
//   - profile non-2xx or bad payload    -> common.ErrTokenInvalid
//   - dial/timeout/5xx/bad login reply  -> common.ErrNetwork
//
// Non-2xx responses surface as *APIError, which keeps the status and the
// server's error kind and unwraps to the sentinel.
package client
