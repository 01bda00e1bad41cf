package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maauso/animgen/internal/media"
)

func TestInitial(t *testing.T) {
	s := Initial()
	assert.Equal(t, StateIdle, s.Status)
	assert.Zero(t, s.Seq)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Handle)
	assert.False(t, s.InFlight())
}

func TestReduce_Transitions(t *testing.T) {
	h := &media.Handle{ID: "media-1"}
	idle := Initial()
	submitting := State{Status: StateSubmitting, Seq: 1, Prompt: "p"}
	succeeded := State{Status: StateSucceeded, Seq: 1, Prompt: "p", Handle: h}
	failed := State{Status: StateFailed, Seq: 1, Prompt: "p", Error: "boom"}

	tests := []struct {
		name        string
		from        State
		event       Event
		wantApplied bool
		want        State
	}{
		{"idle submit", idle, Started{Seq: 1, Prompt: "p"}, true, State{Status: StateSubmitting, Seq: 1, Prompt: "p"}},
		{"idle empty", idle, Rejected{Seq: 1, Message: EmptyPromptMessage}, true, State{Status: StateFailed, Seq: 1, Error: EmptyPromptMessage}},
		{"submitting success", submitting, Succeeded{Seq: 1, Handle: h}, true, State{Status: StateSucceeded, Seq: 1, Prompt: "p", Handle: h}},
		{"submitting failure", submitting, Failed{Seq: 1, Message: "quota exceeded"}, true, State{Status: StateFailed, Seq: 1, Prompt: "p", Error: "quota exceeded"}},
		{"succeeded resubmit clears handle", succeeded, Started{Seq: 2, Prompt: "q"}, true, State{Status: StateSubmitting, Seq: 2, Prompt: "q"}},
		{"failed resubmit clears error", failed, Started{Seq: 2, Prompt: "q"}, true, State{Status: StateSubmitting, Seq: 2, Prompt: "q"}},
		{"succeeded empty clears handle", succeeded, Rejected{Seq: 2, Message: EmptyPromptMessage}, true, State{Status: StateFailed, Seq: 2, Error: EmptyPromptMessage}},
		{"failed empty", failed, Rejected{Seq: 2, Message: EmptyPromptMessage}, true, State{Status: StateFailed, Seq: 2, Error: EmptyPromptMessage}},
		{"submitting superseded", submitting, Started{Seq: 2, Prompt: "q"}, true, State{Status: StateSubmitting, Seq: 2, Prompt: "q"}},
		{"reset", succeeded, Reset{Seq: 2}, true, State{Status: StateIdle, Seq: 2}},

		{"stale success", State{Status: StateSubmitting, Seq: 2}, Succeeded{Seq: 1, Handle: h}, false, State{Status: StateSubmitting, Seq: 2}},
		{"stale failure", State{Status: StateSubmitting, Seq: 2}, Failed{Seq: 1, Message: "x"}, false, State{Status: StateSubmitting, Seq: 2}},
		{"outcome after resolution", failed, Succeeded{Seq: 1, Handle: h}, false, failed},
		{"outcome while idle", idle, Failed{Seq: 0, Message: "x"}, false, idle},
		{"issue without advancing seq", submitting, Started{Seq: 1, Prompt: "again"}, false, submitting},
		{"issue with older seq", State{Status: StateFailed, Seq: 5}, Rejected{Seq: 3}, false, State{Status: StateFailed, Seq: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := Reduce(tt.from, tt.event)
			assert.Equal(t, tt.wantApplied, applied)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduce_ErrorOnlyInFailed_HandleOnlyInSucceeded(t *testing.T) {
	h := &media.Handle{ID: "media-1"}
	events := []Event{
		Started{Seq: 1, Prompt: "a"},
		Succeeded{Seq: 1, Handle: h},
		Rejected{Seq: 2, Message: EmptyPromptMessage},
		Started{Seq: 3, Prompt: "b"},
		Failed{Seq: 3, Message: "boom"},
		Started{Seq: 4, Prompt: "c"},
		Reset{Seq: 5},
	}

	s := Initial()
	for _, e := range events {
		var applied bool
		s, applied = Reduce(s, e)
		assert.True(t, applied, "%T", e)

		assert.Equal(t, s.Status == StateFailed, s.Error != "", "error set outside Failed: %+v", s)
		assert.Equal(t, s.Status == StateSucceeded, s.Handle != nil, "handle set outside Succeeded: %+v", s)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StateIdle, StateSubmitting))
	assert.True(t, canTransition(StateSubmitting, StateSucceeded))
	assert.False(t, canTransition(StateIdle, StateSucceeded))
	assert.False(t, canTransition(StateSucceeded, StateSucceeded))
	assert.False(t, canTransition("", StateSubmitting))
}
