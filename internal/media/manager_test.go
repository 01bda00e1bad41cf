package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/animgen/internal/storage"
)

// mockStorage implements storage.Storage for testing.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Put(ctx context.Context, key string, data io.Reader) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewManager(store, testLogger())
}

func TestManager_CreateRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"ten bytes": {0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09},
		"empty":     {},
		"binary":    {0xff, 0x00, 0x0d, 0x0a, 0x1a, 0x80},
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t)
			ctx := context.Background()

			h, err := m.Create(ctx, payload)
			require.NoError(t, err)

			assert.NotEmpty(t, h.ID)
			assert.Equal(t, int64(len(payload)), h.Size)
			assert.Equal(t, "video/mp4", h.ContentType)
			assert.Equal(t, "animation.mp4", h.Filename)
			assert.False(t, h.CreatedAt.IsZero())

			got, err := m.Bytes(ctx, h)
			require.NoError(t, err)
			assert.Equal(t, len(payload), len(got))
			if len(payload) > 0 {
				assert.Equal(t, payload, got)
			}
		})
	}
}

func TestManager_Release(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	h, err := m.Create(ctx, []byte("video"))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Live())

	require.NoError(t, m.Release(ctx, h))
	assert.Equal(t, 0, m.Live())

	_, _, err = m.Open(ctx, h.ID)
	assert.ErrorIs(t, err, ErrHandleNotFound)

	_, err = m.Bytes(ctx, h)
	assert.ErrorIs(t, err, ErrHandleNotFound)

	t.Run("second release is a no-op", func(t *testing.T) {
		assert.NoError(t, m.Release(ctx, h))
	})

	t.Run("nil handle is a no-op", func(t *testing.T) {
		assert.NoError(t, m.Release(ctx, nil))
	})
}

func TestManager_NoAccumulationAcrossSupersession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var current *Handle
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Release(ctx, current))
		current = nil

		h, err := m.Create(ctx, []byte{byte(i)})
		require.NoError(t, err)
		current = h

		assert.Equal(t, 1, m.Live())
	}

	require.NoError(t, m.ReleaseAll(ctx))
	assert.Equal(t, 0, m.Live())
}

func TestManager_OpenUnknown(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.Open(context.Background(), "media-unknown")
	assert.ErrorIs(t, err, ErrHandleNotFound)

	_, err = m.Lookup("media-unknown")
	assert.ErrorIs(t, err, ErrHandleNotFound)
}

func TestManager_CreateStoreError(t *testing.T) {
	store := &mockStorage{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	m := NewManager(store, testLogger())

	h, err := m.Create(context.Background(), []byte("video"))
	require.Error(t, err)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, m.Live())
	store.AssertExpectations(t)
}

func TestManager_ReleaseDeleteError(t *testing.T) {
	store := &mockStorage{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Delete", mock.Anything, mock.Anything).Return(errors.New("permission denied"))
	m := NewManager(store, testLogger())
	ctx := context.Background()

	h, err := m.Create(ctx, []byte("video"))
	require.NoError(t, err)

	err = m.Release(ctx, h)
	require.Error(t, err)

	// The handle is invalid even when the backing delete fails.
	assert.Equal(t, 0, m.Live())
	_, err = m.Lookup(h.ID)
	assert.ErrorIs(t, err, ErrHandleNotFound)
}

func TestManager_OpenMissingBackingObject(t *testing.T) {
	store := &mockStorage{}
	store.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Open", mock.Anything, mock.Anything).Return(nil, storage.ErrNotFound)
	m := NewManager(store, testLogger())
	ctx := context.Background()

	h, err := m.Create(ctx, []byte("video"))
	require.NoError(t, err)

	_, _, err = m.Open(ctx, h.ID)
	assert.ErrorIs(t, err, ErrHandleNotFound)
}
