// Package server provides the HTTP render surface for animgen.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// SubmitRequest is the JSON request body for submitting a prompt.
type SubmitRequest struct {
	// Prompt is the natural-language description to animate.
	Prompt string `json:"prompt"`
}

// StateResponse is the HTTP representation of the session state.
type StateResponse struct {
	// State is one of idle, submitting, succeeded, failed.
	State string `json:"state"`
	// Seq is the sequence number of the latest submission.
	Seq uint64 `json:"seq"`
	// Prompt is the latest submitted prompt.
	Prompt string `json:"prompt,omitempty"`
	// Error is the failure message (state failed only).
	Error string `json:"error,omitempty"`
	// Video describes the rendered video (state succeeded only).
	Video *VideoResponse `json:"video,omitempty"`
}

// VideoResponse describes the current video handle.
type VideoResponse struct {
	// ID is the handle identifier.
	ID string `json:"id"`
	// URL serves the video inline for playback.
	URL string `json:"url"`
	// DownloadURL serves the video as an attachment.
	DownloadURL string `json:"download_url"`
	// Filename is the suggested download filename.
	Filename string `json:"filename"`
	// ContentType is the media type of the video.
	ContentType string `json:"content_type"`
	// Size is the video length in bytes.
	Size int64 `json:"size"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of this process.
	Status string `json:"status"`
	// Service is the health of the generation service, when probed.
	Service string `json:"service,omitempty"`
	// LiveHandles is the number of video handles currently held.
	LiveHandles int `json:"live_handles"`
}
