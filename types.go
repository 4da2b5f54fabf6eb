package gosequence

import (
	"context"
	"time"
)

// StageName identifies one stage within a sequence. Names are opaque to the
// engine and must be unique within a single sequence's stage list.
type StageName string

// Message is an advisory control signal carried by an Inbox.
type Message string

const (
	// MessageSkip asks the current stage to skip whatever it is doing.
	MessageSkip Message = "skip"
	// MessageStop asks the current stage to stop the run.
	MessageStop Message = "stop"
)

// SequenceState describes where a sequence is in its lifecycle.
// Transitions are monotonic: Idle -> InProgress -> Succeeded or Failed.
type SequenceState int

const (
	// StateIdle means the sequence has been built but not started.
	StateIdle SequenceState = iota
	// StateInProgress means the sequence is executing stages.
	StateInProgress
	// StateSucceeded means the run finished and its last stage succeeded.
	StateSucceeded
	// StateFailed means the run finished and its last stage failed.
	StateFailed
)

// String returns a human-readable name for the state.
func (s SequenceState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in-progress"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UpdateType classifies a SequenceUpdate.
type UpdateType int

const (
	// UpdateSequenceStart is emitted exactly once when the run begins.
	UpdateSequenceStart UpdateType = iota + 1
	// UpdateStageStart is emitted just before a stage's action runs.
	UpdateStageStart
	// UpdateStageEnd is emitted once the stage's action (or its timeout)
	// has resolved.
	UpdateStageEnd
	// UpdateSequenceEnd is emitted exactly once when the run finalizes,
	// after which the update stream closes.
	UpdateSequenceEnd
)

// String returns a human-readable name for the update type.
func (t UpdateType) String() string {
	switch t {
	case UpdateSequenceStart:
		return "sequence-start"
	case UpdateStageStart:
		return "stage-start"
	case UpdateStageEnd:
		return "stage-end"
	case UpdateSequenceEnd:
		return "sequence-end"
	default:
		return "unknown"
	}
}

// SequenceUpdate is one lifecycle event of a run.
//
// Stage is set only for UpdateStageStart and UpdateStageEnd. Success is set
// only for UpdateStageEnd and UpdateSequenceEnd. Extra carries the value the
// stage's Result attached, if any.
type SequenceUpdate struct {
	Type    UpdateType
	Stage   StageName
	Success *bool
	Extra   any
}

// UpdateFilter selects updates by type, stage, and success flag. Zero-value
// fields match anything: a zero Type matches every type, an empty Stage
// matches every stage, a nil Success matches both outcomes.
type UpdateFilter struct {
	Type    UpdateType
	Stage   StageName
	Success *bool
}

// Match reports whether the update passes the filter.
func (f UpdateFilter) Match(u SequenceUpdate) bool {
	if f.Type != 0 && u.Type != f.Type {
		return false
	}
	if f.Stage != "" && u.Stage != f.Stage {
		return false
	}
	if f.Success != nil && (u.Success == nil || *u.Success != *f.Success) {
		return false
	}
	return true
}

// ActionContext provides an action with everything it may touch while
// running: its outcome accumulator, its fixed arguments, and a borrowed
// handle on the sequence's Inbox.
type ActionContext struct {
	// GoContext is the context the run was started with. The engine never
	// cancels it on timeout; it is passed through so callers can wire their
	// own cooperative cancellation.
	GoContext context.Context

	// Result is the fresh outcome record for this invocation. The action
	// reports success, failure, and navigation through it.
	Result *Result

	// Args holds the fixed arguments the action was constructed with.
	Args map[string]any

	// Inbox is the sequence's mailbox. The action may poll or await it to
	// observe Skip/Stop requests; it must not close it.
	Inbox *Inbox

	// Stage is the name of the stage this invocation belongs to.
	Stage StageName

	// Logger is the sequence's logger.
	Logger Logger
}

// ActionFunc is the function an Action executes. It reports its outcome by
// mutating ctx.Result; a function that sets no directive advances the
// sequence to the next stage with Succeeded left false.
type ActionFunc func(ctx *ActionContext)

// Action pairs an ActionFunc with its fixed arguments and an optional
// per-invocation deadline. A zero Timeout means the engine waits for the
// function indefinitely.
type Action struct {
	Fn      ActionFunc
	Args    map[string]any
	Timeout time.Duration
}

// Stage is one named, ordered unit of work in a sequence. Stages are
// immutable once the sequence is built.
type Stage struct {
	Name   StageName
	Action Action
}
