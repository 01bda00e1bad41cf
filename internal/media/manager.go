package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maauso/animgen/internal/media/id"
	"github.com/maauso/animgen/internal/storage"
)

// Manager mints and releases handles backed by a Storage.
// Every handle returned by Create must be passed to Release exactly once.
type Manager struct {
	store    storage.Storage
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a Manager that stores payloads in store.
func NewManager(store storage.Storage, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		registry: NewRegistry(),
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores payload and returns a live handle for it.
func (m *Manager) Create(ctx context.Context, payload []byte) (*Handle, error) {
	h := &Handle{
		ID:          id.Generate(),
		Size:        int64(len(payload)),
		ContentType: ContentType,
		Filename:    DownloadFilename,
		CreatedAt:   m.now(),
	}

	if err := m.store.Put(ctx, h.ID, bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("media: store payload: %w", err)
	}
	m.registry.Add(h)

	m.logger.Debug("media handle created",
		slog.String("handle_id", h.ID),
		slog.Int64("size", h.Size),
		slog.Int("live", m.registry.Len()),
	)
	return h, nil
}

// Release invalidates h and deletes its bytes. A nil or already released
// handle is a no-op. The handle is unregistered before its bytes are
// deleted, so Open never serves a handle that is being released.
func (m *Manager) Release(ctx context.Context, h *Handle) error {
	if h == nil || !m.registry.Remove(h.ID) {
		return nil
	}

	if err := m.store.Delete(ctx, h.ID); err != nil {
		m.logger.Warn("failed to delete released media",
			slog.String("handle_id", h.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("media: delete payload: %w", err)
	}

	m.logger.Debug("media handle released",
		slog.String("handle_id", h.ID),
		slog.Int("live", m.registry.Len()),
	)
	return nil
}

// ReleaseAll releases every live handle, returning the joined errors.
func (m *Manager) ReleaseAll(ctx context.Context) error {
	var errs []error
	for _, h := range m.registry.List() {
		if err := m.Release(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the live handle with the given id.
func (m *Manager) Lookup(handleID string) (*Handle, error) {
	h, ok := m.registry.Get(handleID)
	if !ok {
		return nil, ErrHandleNotFound
	}
	return h, nil
}

// Open returns the live handle with the given id and a reader over its bytes.
// The caller is responsible for closing the returned ReadCloser.
func (m *Manager) Open(ctx context.Context, handleID string) (*Handle, io.ReadCloser, error) {
	h, err := m.Lookup(handleID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := m.store.Open(ctx, h.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrHandleNotFound
		}
		return nil, nil, fmt.Errorf("media: open payload: %w", err)
	}
	return h, rc, nil
}

// Bytes reads back the full payload of a live handle.
func (m *Manager) Bytes(ctx context.Context, h *Handle) ([]byte, error) {
	if h == nil {
		return nil, ErrHandleNotFound
	}
	_, rc, err := m.Open(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("media: read payload: %w", err)
	}
	return data, nil
}

// Live returns the number of handles created and not yet released.
func (m *Manager) Live() int {
	return m.registry.Len()
}
