package gosequence

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when the sequence is not idle,
	// whether a run is in flight or has already finished.
	ErrAlreadyStarted = errors.New("sequence already started")

	// ErrNoStages is returned when building a sequence with an empty stage
	// list.
	ErrNoStages = errors.New("sequence has no stages")

	// ErrDuplicateStage is returned when two stages share a name.
	ErrDuplicateStage = errors.New("duplicate stage name")

	// ErrNilAction is returned when a stage carries no action function.
	ErrNilAction = errors.New("stage has no action function")

	// ErrInboxClosed is returned when leaving a message on, or waiting on,
	// an inbox whose run has ended.
	ErrInboxClosed = errors.New("inbox is closed")

	// ErrStreamClosed is returned by WaitFor when the update stream closes
	// before a matching update was emitted.
	ErrStreamClosed = errors.New("update stream closed")

	// ErrUnknownAction is returned when a definition references an action
	// id that was never registered.
	ErrUnknownAction = errors.New("action not found in registry")
)
