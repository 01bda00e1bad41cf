// Package media manages the video resources minted from generation results.
// A Handle is an owned reference to stored bytes; the Manager is the only
// component that creates or releases handles.
package media

import (
	"errors"
	"time"
)

// Defaults for rendered video.
const (
	// ContentType is the media type served for every handle.
	ContentType = "video/mp4"
	// DownloadFilename is the suggested filename offered for download.
	DownloadFilename = "animation.mp4"
)

// ErrHandleNotFound is returned when a handle is unknown or already released.
var ErrHandleNotFound = errors.New("media: handle not found")

// Handle is an opaque reference to one stored video payload.
// Handles are immutable; their validity is tracked by the Manager.
type Handle struct {
	// ID is the unique identifier, also used as the storage key.
	ID string
	// Size is the payload length in bytes.
	Size int64
	// ContentType is the media type of the payload.
	ContentType string
	// Filename is the suggested download filename.
	Filename string
	// CreatedAt is when the handle was minted.
	CreatedAt time.Time
}
