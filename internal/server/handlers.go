package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/animgen/internal/media"
	mediaid "github.com/maauso/animgen/internal/media/id"
	"github.com/maauso/animgen/internal/session"
)

// DefaultMaxPromptLength is the prompt cap used when none is configured.
const DefaultMaxPromptLength = 4000

const healthProbeTimeout = 2 * time.Second

// MediaSource serves the bytes behind live handles.
type MediaSource interface {
	Open(ctx context.Context, id string) (*media.Handle, io.ReadCloser, error)
	Live() int
}

// HealthChecker probes the generation service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers contains the HTTP handlers for the render surface.
type Handlers struct {
	controller      *session.Controller
	media           MediaSource
	service         HealthChecker
	validator       *validator.Validate
	logger          *slog.Logger
	maxPromptLength int
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithServiceHealth makes /health probe the generation service.
func WithServiceHealth(hc HealthChecker) HandlerOption {
	return func(h *Handlers) {
		h.service = hc
	}
}

// WithMaxPromptLength caps the prompt length in characters.
func WithMaxPromptLength(n int) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxPromptLength = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(controller *session.Controller, source MediaSource, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		controller:      controller,
		media:           source,
		validator:       validator.New(),
		logger:          logger,
		maxPromptLength: DefaultMaxPromptLength,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Index handles GET / requests.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	snap := h.controller.Snapshot()

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, newPageData(snap, h.maxPromptLength)); err != nil {
		h.logger.Error("failed to render page",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to render page", "RENDER_FAILED")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Submit handles POST /submit requests. It accepts a JSON body or a form.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)

	prompt, err := h.readPrompt(r, asJSON)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
			return
		}
		h.logger.Warn("failed to decode submit request",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Var(prompt, "max="+strconv.Itoa(h.maxPromptLength)); err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("prompt must be at most %d characters", h.maxPromptLength), "PROMPT_TOO_LONG")
		return
	}

	// The generation call outlives the request that started it.
	p := h.controller.Start(context.WithoutCancel(r.Context()), prompt)

	if !asJSON {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	select {
	case <-p.Done():
		if _, err := p.Wait(); errors.Is(err, session.ErrEmptyPrompt) {
			writeError(w, http.StatusBadRequest, session.EmptyPromptMessage, "VALIDATION_ERROR")
			return
		}
	default:
	}

	writeJSON(w, http.StatusAccepted, toStateResponse(h.controller.Snapshot()))
}

func (h *Handlers) readPrompt(r *http.Request, asJSON bool) (string, error) {
	if asJSON {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return req.Prompt, nil
	}
	if err := r.ParseForm(); err != nil {
		return "", err
	}
	return r.PostForm.Get("prompt"), nil
}

// State handles GET /api/state requests.
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(h.controller.Snapshot()))
}

// Reset handles POST /api/reset requests. The current video is released
// and the session returns to idle.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Close(r.Context()); err != nil {
		h.logger.Error("failed to reset session",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reset session", "RESET_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.controller.Snapshot()))
}

// Media handles GET /media/{id} requests for inline playback.
func (h *Handlers) Media(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, "inline")
}

// Download handles GET /media/{id}/download requests.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, "attachment")
}

func (h *Handlers) serveMedia(w http.ResponseWriter, r *http.Request, disposition string) {
	handleID := r.PathValue("id")
	if !mediaid.Valid(handleID) {
		writeError(w, http.StatusNotFound, "media not found", "MEDIA_NOT_FOUND")
		return
	}

	handle, rc, err := h.media.Open(r.Context(), handleID)
	if err != nil {
		if errors.Is(err, media.ErrHandleNotFound) {
			writeError(w, http.StatusNotFound, "media not found", "MEDIA_NOT_FOUND")
			return
		}
		h.logger.Error("failed to open media",
			slog.String("handle_id", handleID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open media", "MEDIA_READ_FAILED")
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", handle.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, handle.Filename))
	w.Header().Set("Cache-Control", "no-store")

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, handle.Filename, handle.CreatedAt, rs)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(handle.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("media stream interrupted",
			slog.String("handle_id", handleID),
			slog.String("error", err.Error()),
		)
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "healthy",
		LiveHandles: h.media.Live(),
	}

	if h.service != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp.Service = "healthy"
		if err := h.service.Health(ctx); err != nil {
			h.logger.Warn("generation service health check failed",
				slog.String("error", err.Error()),
			)
			resp.Service = "unhealthy"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func toStateResponse(s session.State) StateResponse {
	resp := StateResponse{
		State:  string(s.Status),
		Seq:    s.Seq,
		Prompt: s.Prompt,
		Error:  s.Error,
	}
	if s.Status == session.StateSucceeded && s.Handle != nil {
		resp.Video = &VideoResponse{
			ID:          s.Handle.ID,
			URL:         mediaURL(s.Handle.ID),
			DownloadURL: downloadURL(s.Handle.ID),
			Filename:    s.Handle.Filename,
			ContentType: s.Handle.ContentType,
			Size:        s.Handle.Size,
		}
	}
	return resp
}

func mediaURL(handleID string) string {
	return "/media/" + handleID
}

func downloadURL(handleID string) string {
	return "/media/" + handleID + "/download"
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
