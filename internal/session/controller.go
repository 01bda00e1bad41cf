package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maauso/animgen/internal/generation"
	"github.com/maauso/animgen/internal/media"
)

// EmptyPromptMessage is shown when a blank prompt is submitted.
const EmptyPromptMessage = "Please enter a prompt"

// Static errors returned by Pending.Wait.
var (
	// ErrEmptyPrompt is returned for prompts that are empty after trimming.
	ErrEmptyPrompt = errors.New("session: " + strings.ToLower(EmptyPromptMessage))
	// ErrSuperseded is returned when a newer submission replaced this one
	// before its outcome arrived; the outcome was discarded.
	ErrSuperseded = errors.New("session: superseded by a newer submission")
	// ErrPanicked is returned when the generation call panicked.
	ErrPanicked = errors.New("session: generation panicked")
)

// Resources mints and releases media handles.
type Resources interface {
	Create(ctx context.Context, payload []byte) (*media.Handle, error)
	Release(ctx context.Context, h *media.Handle) error
}

// Controller owns the state of one session and runs its submissions.
// Submissions may overlap; only the latest one can change the state.
type Controller struct {
	mu        sync.Mutex
	state     State
	client    generation.Client
	resources Resources
	logger    *slog.Logger
}

// NewController creates a Controller in the Idle state.
func NewController(client generation.Client, resources Resources, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		state:     Initial(),
		client:    client,
		resources: resources,
		logger:    logger,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one submission and blocks until its outcome has been applied
// or discarded. See Start.
func (c *Controller) Submit(ctx context.Context, prompt string) (State, error) {
	return c.Start(ctx, prompt).Wait()
}

// Start issues a submission. The state change is synchronous: when Start
// returns, the previous handle has been released and the state is either
// Submitting or, for a blank prompt, Failed without any network call.
// The generation call runs in its own goroutine using ctx; it is never
// cancelled by a newer submission, its outcome is just discarded.
func (c *Controller) Start(ctx context.Context, prompt string) *Pending {
	c.mu.Lock()
	seq := c.state.Seq + 1

	if strings.TrimSpace(prompt) == "" {
		c.issueLocked(ctx, Rejected{Seq: seq, Prompt: prompt, Message: EmptyPromptMessage})
		snap := c.state
		c.mu.Unlock()

		c.logger.Info("submission rejected",
			slog.Uint64("seq", seq),
			slog.String("reason", EmptyPromptMessage),
		)
		return resolved(seq, snap, ErrEmptyPrompt)
	}

	c.issueLocked(ctx, Started{Seq: seq, Prompt: prompt})
	c.mu.Unlock()

	c.logger.Info("submission started",
		slog.Uint64("seq", seq),
		slog.Int("prompt_length", len(prompt)),
	)

	p := &Pending{Seq: seq, done: make(chan struct{})}
	go c.run(ctx, p, prompt)
	return p
}

// Close ends the session: in-flight outcomes are discarded, the current
// handle is released and the state returns to Idle.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked(ctx, Reset{Seq: c.state.Seq + 1})
}

// issueLocked applies an issuing event and releases the handle it
// supersedes. The state stops referencing the handle in the same step.
// c.mu must be held.
func (c *Controller) issueLocked(ctx context.Context, e Event) error {
	previous := c.state.Handle
	if !c.applyLocked(e) {
		return nil
	}

	if err := c.resources.Release(ctx, previous); err != nil {
		c.logger.Warn("failed to release media handle",
			slog.String("handle_id", previous.ID),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (c *Controller) applyLocked(e Event) bool {
	next, ok := Reduce(c.state, e)
	if ok {
		c.state = next
	}
	return ok
}

func (c *Controller) run(ctx context.Context, p *Pending, prompt string) {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			p.state, p.err = c.complete(ctx, p.Seq, nil, fmt.Errorf("%w: %v", ErrPanicked, r))
		}
	}()

	video, err := c.client.Generate(ctx, prompt)
	p.state, p.err = c.complete(ctx, p.Seq, video, err)
}

// complete applies the outcome of submission seq if it is still the latest.
// The handle is minted only after that check, under the lock, so a stale
// payload never becomes a live handle.
func (c *Controller) complete(ctx context.Context, seq uint64, video []byte, genErr error) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.state.Seq || c.state.Status != StateSubmitting {
		c.logger.Debug("discarding stale outcome",
			slog.Uint64("seq", seq),
			slog.Uint64("latest_seq", c.state.Seq),
		)
		return c.state, ErrSuperseded
	}

	if genErr != nil {
		msg := generation.Message(genErr)
		c.applyLocked(Failed{Seq: seq, Message: msg})
		c.logger.Warn("submission failed",
			slog.Uint64("seq", seq),
			slog.String("kind", kindOf(genErr)),
			slog.String("error", genErr.Error()),
		)
		return c.state, genErr
	}

	h, err := c.resources.Create(ctx, video)
	if err != nil {
		c.applyLocked(Failed{Seq: seq, Message: err.Error()})
		c.logger.Error("failed to create media handle",
			slog.Uint64("seq", seq),
			slog.String("error", err.Error()),
		)
		return c.state, err
	}

	c.applyLocked(Succeeded{Seq: seq, Handle: h})
	c.logger.Info("submission succeeded",
		slog.Uint64("seq", seq),
		slog.String("handle_id", h.ID),
		slog.Int64("size", h.Size),
	)
	return c.state, nil
}

func kindOf(err error) string {
	var ge *generation.Error
	if errors.As(err, &ge) {
		return string(ge.Kind)
	}
	return "unknown"
}

// Pending is an issued submission.
type Pending struct {
	// Seq is the sequence number of the submission.
	Seq   uint64
	done  chan struct{}
	state State
	err   error
}

func resolved(seq uint64, s State, err error) *Pending {
	p := &Pending{Seq: seq, done: make(chan struct{}), state: s, err: err}
	close(p.done)
	return p
}

// Done is closed once the outcome has been applied or discarded.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the outcome is known. It returns the session state
// right after the outcome was handled and a nil error only if this
// submission's video is now the current one.
func (p *Pending) Wait() (State, error) {
	<-p.done
	return p.state, p.err
}
