package gosequence

import "time"

// config collects construction settings that are consumed once by
// NewSequence rather than stored on the sequence.
type config struct {
	defaultTimeout time.Duration
}

// Option configures a sequence at construction time.
type Option func(*Sequence, *config)

// WithDefaultTimeout applies d to every stage that has no timeout of its
// own. The default is resolved at construction time only; stages keep the
// timeout they end up with for the life of the sequence.
func WithDefaultTimeout(d time.Duration) Option {
	return func(_ *Sequence, cfg *config) {
		cfg.defaultTimeout = d
	}
}

// WithLogger sets the logger used by the sequence and handed to actions.
func WithLogger(logger Logger) Option {
	return func(s *Sequence, _ *config) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithUpdateLogging enables textual logging of every emitted update
// through the sequence's logger.
func WithUpdateLogging(enabled bool) Option {
	return func(s *Sequence, _ *config) {
		s.logUpdates = enabled
	}
}

// WithOnStart registers a run-start callback at construction time.
func WithOnStart(fn func()) Option {
	return func(s *Sequence, _ *config) {
		s.onStart = append(s.onStart, fn)
	}
}

// WithOnSuccess registers a success callback at construction time.
func WithOnSuccess(fn func()) Option {
	return func(s *Sequence, _ *config) {
		s.onSuccess = append(s.onSuccess, fn)
	}
}

// WithOnFail registers a failure callback at construction time.
func WithOnFail(fn func()) Option {
	return func(s *Sequence, _ *config) {
		s.onFail = append(s.onFail, fn)
	}
}

// WithOnDone registers a run-end callback at construction time.
func WithOnDone(fn func(success bool)) Option {
	return func(s *Sequence, _ *config) {
		s.onDone = append(s.onDone, fn)
	}
}

// startOptions narrows a run to a slice of the stage list.
type startOptions struct {
	from  StageName
	until StageName
}

// StartOption configures a single Start call.
type StartOption func(*startOptions)

// StartFrom begins the run at the named stage instead of the first one.
func StartFrom(name StageName) StartOption {
	return func(o *startOptions) {
		o.from = name
	}
}

// StartUntil stops the run after the named stage instead of the last one.
// Jump directives may not move past it.
func StartUntil(name StageName) StartOption {
	return func(o *startOptions) {
		o.until = name
	}
}
