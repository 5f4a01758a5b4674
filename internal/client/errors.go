// Package client implements the Lumina HTTP client: session handling,
// typed resource requests and the error taxonomy callers reconcile against.
package client

import "fmt"

// AuthError is a 401. It is owned by the session guard; callers only ever see
// it after the session has already been evicted.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Message
}

// NetworkError means no usable response was received: transport failure,
// connection refused, or the client-side timeout firing.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError is a non-401 4xx/5xx with the server-provided message.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}
