package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_MissingBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestNewClient_Options(t *testing.T) {
	custom := &http.Client{}
	c, err := NewClient("http://localhost:5500/",
		WithAPIKey("secret"),
		WithHTTPClient(custom),
		WithTimeout(5*time.Second),
		WithMaxBodyBytes(1024),
		WithGeneratePath("/v2/generate"),
	)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5500", c.baseURL)
	assert.Equal(t, "secret", c.apiKey)
	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 5*time.Second, custom.Timeout)
	assert.Equal(t, int64(1024), c.maxBodyBytes)
	assert.Equal(t, "/v2/generate", c.generatePath)
}

func TestGenerate_Success(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"prompt": "Pythagorean theorem"}, body)

		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), "Pythagorean theorem")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestGenerate_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, WithAPIKey("secret"))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
}

func TestGenerate_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"structured error", http.StatusInternalServerError, `{"error": "quota exceeded"}`, "quota exceeded"},
		{"bad request", http.StatusBadRequest, `{"error": "Prompt is required"}`, "Prompt is required"},
		{"unparseable body", http.StatusInternalServerError, `<html>oops</html>`, DefaultErrorMessage},
		{"empty body", http.StatusBadGateway, ``, DefaultErrorMessage},
		{"missing field", http.StatusInternalServerError, `{"detail": "nope"}`, DefaultErrorMessage},
		{"empty field", http.StatusInternalServerError, `{"error": ""}`, DefaultErrorMessage},
		{"non-string field", http.StatusInternalServerError, `{"error": 42}`, DefaultErrorMessage},
		{"json array", http.StatusInternalServerError, `["quota exceeded"]`, DefaultErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c, err := NewClient(server.URL)
			require.NoError(t, err)

			data, err := c.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Nil(t, data)

			var ge *Error
			require.True(t, errors.As(err, &ge))
			assert.Equal(t, KindService, ge.Kind)
			assert.Equal(t, tt.status, ge.StatusCode)
			assert.Equal(t, tt.wantMsg, ge.Message)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestGenerate_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindTransport, ge.Kind)
	assert.NotEmpty(t, ge.Message)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestGenerate_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Generate(ctx, "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindTransport, ge.Kind)
}

func TestGenerate_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 32))
	}))
	defer server.Close()

	c, err := NewClient(server.URL, WithMaxBodyBytes(16))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, KindTransport, ge.Kind)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"healthy", http.StatusOK, `{"status": "healthy"}`, false},
		{"no body", http.StatusOK, ``, false},
		{"degraded", http.StatusOK, `{"status": "degraded"}`, true},
		{"server error", http.StatusInternalServerError, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c, err := NewClient(server.URL)
			require.NoError(t, err)

			err = c.Health(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnhealthy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessage_PlainError(t *testing.T) {
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
