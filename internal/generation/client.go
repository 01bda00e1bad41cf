package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Static errors for client construction and health checks.
var (
	// ErrBaseURLRequired is returned when the service URL is not provided.
	ErrBaseURLRequired = errors.New("generation: base URL is required")
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("generation: service unhealthy")
	// ErrBodyTooLarge is wrapped when a success body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("generation: response body too large")
)

// Client defines the interface for requesting an animation.
type Client interface {
	// Generate submits prompt and returns the raw video bytes.
	// Failures are reported as *Error.
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// HTTPClient is the HTTP implementation of Client.
// It makes exactly one attempt per call.
type HTTPClient struct {
	baseURL      string
	generatePath string
	apiKey       string
	maxBodyBytes int64
	httpClient   *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets a bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithTimeout sets the timeout of the default HTTP client. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient.Timeout = d
	}
}

// WithMaxBodyBytes caps the size of an accepted video payload.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(hc *HTTPClient) {
		if n > 0 {
			hc.maxBodyBytes = n
		}
	}
}

// WithGeneratePath overrides the generate endpoint path.
func WithGeneratePath(path string) ClientOption {
	return func(hc *HTTPClient) {
		hc.generatePath = path
	}
}

// NewClient creates a new generation service client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		generatePath: "/api/generate",
		maxBodyBytes: 256 << 20,
		httpClient:   &http.Client{Timeout: 10 * time.Minute},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Generate posts {"prompt": prompt} to the service and returns the body of
// a successful response.
func (c *HTTPClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "video/mp4")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:       KindService,
			Message:    serviceMessage(resp.Body),
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	if int64(len(data)) > c.maxBodyBytes {
		err := fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodyBytes)
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	return data, nil
}

// Health checks the service health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("generation: create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}

	var hr healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&hr); err == nil && hr.Status != "" && hr.Status != "healthy" && hr.Status != "ok" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, hr.Status)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// serviceMessage extracts the "error" field of a JSON object body,
// falling back to DefaultErrorMessage.
func serviceMessage(body io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&er); err != nil {
		return DefaultErrorMessage
	}
	if er.Error == "" {
		return DefaultErrorMessage
	}
	return er.Error
}

// Message returns the user-facing description of a Generate failure.
func Message(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Message
	}
	return err.Error()
}
