// Package generation provides an HTTP client for the remote animation
// generation service.
package generation

import "fmt"

// Kind classifies a failed generation call.
type Kind string

const (
	// KindService means the service answered with a non-success status.
	KindService Kind = "service"
	// KindTransport means the call failed below the service contract:
	// unreachable host, aborted connection or malformed response.
	KindTransport Kind = "transport"
)

// DefaultErrorMessage is used when a failed response carries no usable message.
const DefaultErrorMessage = "Failed to generate animation"

// Error is returned by Generate for every failure.
// Message is the human-readable description shown to the user.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // Only set for KindService
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation: %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("generation: %s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// generateRequest is the request body for the generate endpoint.
type generateRequest struct {
	Prompt string `json:"prompt"`
}

// errorResponse is the optional JSON body of a failed response.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the body of the service health endpoint.
type healthResponse struct {
	Status string `json:"status"`
}
