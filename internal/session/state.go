// Package session implements the submission lifecycle for one user session:
// a pure state reducer and a Controller that drives it from generation calls.
//
// Every submission is tagged with a sequence number. Only events carrying
// the latest issued sequence number may change the visible state; outcomes
// of superseded submissions are discarded.
package session

import (
	"slices"

	"github.com/maauso/animgen/internal/media"
)

// RequestState represents the visible state of the session.
type RequestState string

const (
	// StateIdle is the initial state; nothing has been submitted.
	StateIdle RequestState = "idle"
	// StateSubmitting indicates a generation request is in flight.
	StateSubmitting RequestState = "submitting"
	// StateSucceeded indicates the latest submission produced a video.
	StateSucceeded RequestState = "succeeded"
	// StateFailed indicates the latest submission failed or was rejected.
	StateFailed RequestState = "failed"
)

// validTransitions defines which state transitions are allowed.
// There is no terminal state.
var validTransitions = map[RequestState][]RequestState{
	StateIdle:       {StateSubmitting, StateFailed, StateIdle},
	StateSubmitting: {StateSucceeded, StateFailed, StateSubmitting, StateIdle},
	StateSucceeded:  {StateSubmitting, StateFailed, StateIdle},
	StateFailed:     {StateSubmitting, StateFailed, StateIdle},
}

// canTransition checks if a transition from one state to another is valid.
func canTransition(from, to RequestState) bool {
	return slices.Contains(validTransitions[from], to)
}

// State is an immutable snapshot of the session.
type State struct {
	// Status is the current request state.
	Status RequestState
	// Seq is the sequence number of the most recently issued submission.
	Seq uint64
	// Prompt is the prompt of the most recent submission.
	Prompt string
	// Error is the user-facing message; set only in StateFailed.
	Error string
	// Handle is the rendered video; set only in StateSucceeded.
	Handle *media.Handle
}

// InFlight reports whether a submission is awaiting its outcome.
func (s State) InFlight() bool {
	return s.Status == StateSubmitting
}

// Event is an input to Reduce.
type Event interface {
	sequence() uint64
	// issues reports whether the event opens a new sequence number
	// rather than resolving the current one.
	issues() bool
}

// Started issues a valid submission.
type Started struct {
	Seq    uint64
	Prompt string
}

// Rejected issues a submission that failed local validation.
type Rejected struct {
	Seq     uint64
	Prompt  string
	Message string
}

// Reset ends the session and returns it to Idle.
type Reset struct {
	Seq uint64
}

// Succeeded resolves a submission with a minted handle.
type Succeeded struct {
	Seq    uint64
	Handle *media.Handle
}

// Failed resolves a submission with an error message.
type Failed struct {
	Seq     uint64
	Message string
}

func (e Started) sequence() uint64   { return e.Seq }
func (e Rejected) sequence() uint64  { return e.Seq }
func (e Reset) sequence() uint64     { return e.Seq }
func (e Succeeded) sequence() uint64 { return e.Seq }
func (e Failed) sequence() uint64    { return e.Seq }

func (Started) issues() bool   { return true }
func (Rejected) issues() bool  { return true }
func (Reset) issues() bool     { return true }
func (Succeeded) issues() bool { return false }
func (Failed) issues() bool    { return false }

// Reduce applies e to s and returns the next state. The boolean is false
// when the event was not applied: an issuing event whose sequence number
// does not advance s.Seq, or an outcome for any submission other than the
// latest in-flight one.
func Reduce(s State, e Event) (State, bool) {
	if e.issues() {
		if e.sequence() <= s.Seq {
			return s, false
		}
	} else if e.sequence() != s.Seq || s.Status != StateSubmitting {
		return s, false
	}

	next := State{Seq: e.sequence(), Prompt: s.Prompt}
	switch ev := e.(type) {
	case Started:
		next.Status = StateSubmitting
		next.Prompt = ev.Prompt
	case Rejected:
		next.Status = StateFailed
		next.Prompt = ev.Prompt
		next.Error = ev.Message
	case Reset:
		next.Status = StateIdle
		next.Prompt = ""
	case Succeeded:
		next.Status = StateSucceeded
		next.Handle = ev.Handle
	case Failed:
		next.Status = StateFailed
		next.Error = ev.Message
	default:
		return s, false
	}

	if !canTransition(s.Status, next.Status) {
		return s, false
	}
	return next, true
}

// Initial returns the state of a new session.
func Initial() State {
	return State{Status: StateIdle}
}
