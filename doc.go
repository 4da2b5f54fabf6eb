// Package gosequence provides a small embeddable engine for multi-step
// procedures whose control flow is decided step by step at runtime.
//
// A Sequence executes a named, ordered list of stages one at a time. Each
// stage runs an asynchronous action that reports its outcome through a
// Result; the Result's directive decides which stage runs next: advance,
// jump back or forward a number of stages, jump to a named stage, or
// terminate the run.
//
// Core components include:
//   - Sequence: the orchestrator owning the stage list and the run state
//   - Stage / Action: one named unit of work with arguments and a timeout
//   - Result: the outcome record with its navigation directive
//   - Inbox: a multicast mailbox carrying advisory Skip/Stop signals
//   - SequenceUpdate: lifecycle events broadcast to any number of observers
//
// Stages never run concurrently with each other; the Inbox is the only
// channel through which outside callers interact with a run in flight.
package gosequence
