package gosequence

import (
	"context"
	"runtime/debug"
	"time"
)

// StageOption configures a stage at construction time.
type StageOption func(*Stage)

// WithArgs sets the fixed arguments handed to the action on every
// invocation.
func WithArgs(args map[string]any) StageOption {
	return func(s *Stage) {
		s.Action.Args = args
	}
}

// WithTimeout bounds how long the sequence waits for the stage's action. A
// stage without its own timeout inherits the sequence's default, if any.
func WithTimeout(d time.Duration) StageOption {
	return func(s *Stage) {
		s.Action.Timeout = d
	}
}

// NewStage creates a stage pairing a name with an action function.
func NewStage(name StageName, fn ActionFunc, opts ...StageOption) Stage {
	s := Stage{
		Name:   name,
		Action: Action{Fn: fn},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// act invokes the stage's action with a fresh Result and returns the
// outcome. With a timeout configured, the call returns a synthesized failed
// Result as soon as the deadline passes; the action itself is not cancelled
// and may keep running in the background, with its eventual writes to the
// abandoned Result going unobserved. Callers needing hard cancellation must
// wire it through ctx themselves.
//
// A panicking action yields a failed Result carrying the panic value as
// Extra.
func (s Stage) act(ctx context.Context, inbox *Inbox, logger Logger) *Result {
	res := NewResult()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("stage %s panicked: %v\n%s", s.Name, r, debug.Stack())
				res.Fail().SetExtra(r)
			}
		}()
		s.Action.Fn(&ActionContext{
			GoContext: ctx,
			Result:    res,
			Args:      s.Action.Args,
			Inbox:     inbox,
			Stage:     s.Name,
			Logger:    logger,
		})
	}()

	if s.Action.Timeout <= 0 {
		<-done
		return res
	}

	timer := time.NewTimer(s.Action.Timeout)
	defer timer.Stop()
	select {
	case <-done:
		return res
	case <-timer.C:
		logger.Warn("stage %s timed out after %v", s.Name, s.Action.Timeout)
		return NewResult().Fail()
	}
}
