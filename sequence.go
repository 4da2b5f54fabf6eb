package gosequence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Sequence walks an ordered stage list, executing one stage at a time and
// letting each outcome's directive pick the next stage. It owns its stage
// list (fixed after construction), its Inbox (closed when the run ends),
// and its update history (append-only for the life of the object).
//
// A Sequence runs at most once: Idle -> InProgress -> Succeeded or Failed.
type Sequence struct {
	id     string
	name   string
	stages []Stage

	inbox   *Inbox
	updates *broadcaster[SequenceUpdate]

	logger     Logger
	logUpdates bool

	mu      deadlock.RWMutex
	state   SequenceState
	history []SequenceUpdate
	current int

	onStart   []func()
	onSuccess []func()
	onFail    []func()
	onDone    []func(bool)
}

// NewSequence builds a sequence over the given stages. The stage list must
// be non-empty with unique names, and every stage needs an action function.
// A default timeout configured via WithDefaultTimeout is applied here, once,
// to any stage lacking its own.
func NewSequence(name string, stages []Stage, opts ...Option) (*Sequence, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("sequence %q: %w", name, ErrNoStages)
	}

	s := &Sequence{
		id:      uuid.NewString(),
		name:    name,
		stages:  make([]Stage, len(stages)),
		inbox:   NewInbox(),
		updates: newBroadcaster[SequenceUpdate](),
		logger:  NewDefaultLogger(),
		state:   StateIdle,
		current: -1,
	}
	copy(s.stages, stages)

	seen := make(map[StageName]struct{}, len(stages))
	for _, st := range s.stages {
		if st.Action.Fn == nil {
			return nil, fmt.Errorf("sequence %q stage %q: %w", name, st.Name, ErrNilAction)
		}
		if _, ok := seen[st.Name]; ok {
			return nil, fmt.Errorf("sequence %q stage %q: %w", name, st.Name, ErrDuplicateStage)
		}
		seen[st.Name] = struct{}{}
	}

	cfg := config{}
	for _, opt := range opts {
		opt(s, &cfg)
	}
	if cfg.defaultTimeout > 0 {
		for i := range s.stages {
			if s.stages[i].Action.Timeout == 0 {
				s.stages[i].Action.Timeout = cfg.defaultTimeout
			}
		}
	}

	return s, nil
}

// ID returns the unique identifier assigned to this sequence.
func (s *Sequence) ID() string { return s.id }

// Name returns the diagnostic name the sequence was built with.
func (s *Sequence) Name() string { return s.name }

// Inbox returns the sequence's mailbox so callers can subscribe to its
// messages or forward them elsewhere. The sequence retains ownership and
// closes it when the run ends.
func (s *Sequence) Inbox() *Inbox { return s.inbox }

// Start begins executing stages and returns a channel carrying every
// update the run emits, starting with SequenceStart. The channel closes
// right after SequenceEnd.
//
// Start fails with ErrAlreadyStarted unless the sequence is idle; the state
// is left untouched in that case. A StartFrom name absent from the stage
// list resolves to position -1: the run emits SequenceStart and then ends
// immediately, failed. An absent StartUntil name means run to completion.
func (s *Sequence) Start(ctx context.Context, opts ...StartOption) (<-chan SequenceUpdate, error) {
	var so startOptions
	for _, opt := range opts {
		opt(&so)
	}

	from := 0
	if so.from != "" {
		from = s.StagePosition(so.from)
	}
	last := len(s.stages) - 1
	if so.until != "" {
		if p := s.StagePosition(so.until); p >= 0 {
			last = p
		}
	}

	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("sequence %q is %s: %w", s.name, state, ErrAlreadyStarted)
	}
	s.state = StateInProgress
	s.mu.Unlock()

	ch, _ := s.updates.Subscribe()
	go s.run(ctx, from, last)
	return ch, nil
}

// run is the state machine loop. It executes on its own goroutine; nothing
// else mutates state, history, or current while it is in flight.
func (s *Sequence) run(ctx context.Context, k, last int) {
	s.logger.Info("sequence %s starting", s.name)
	s.emit(SequenceUpdate{Type: UpdateSequenceStart})
	for _, fn := range s.hooks(&s.onStart) {
		fn()
	}

	var lastResult *Result
	for k >= 0 && k <= last {
		stage := s.stages[k]
		s.setCurrent(k)

		s.emit(SequenceUpdate{Type: UpdateStageStart, Stage: stage.Name})
		res := stage.act(ctx, s.inbox, s.logger)
		succeeded := res.Succeeded
		s.emit(SequenceUpdate{
			Type:    UpdateStageEnd,
			Stage:   stage.Name,
			Success: &succeeded,
			Extra:   res.Extra,
		})

		lastResult = res
		k = s.resolveNext(k, last, res)
	}

	success := lastResult != nil && lastResult.Succeeded
	s.emit(SequenceUpdate{Type: UpdateSequenceEnd, Success: &success})
	s.logger.Info("sequence %s ended, success=%t", s.name, success)

	s.mu.Lock()
	if success {
		s.state = StateSucceeded
	} else {
		s.state = StateFailed
	}
	outcome := s.onSuccess
	if !success {
		outcome = s.onFail
	}
	done := s.onDone
	s.mu.Unlock()

	for _, fn := range outcome {
		fn()
	}
	for _, fn := range done {
		fn(success)
	}

	s.inbox.Close()
	s.updates.Close()
}

// resolveNext turns a stage outcome into the index of the next stage to
// run, with strict precedence: terminate, then the jump directives, then a
// plain advance. Any index outside [0, last] ends the run; in particular a
// JumpTo naming an unknown stage resolves to -1.
func (s *Sequence) resolveNext(k, last int, res *Result) int {
	switch {
	case res.terminate:
		return last + 1
	case res.kind == directiveJumpBack:
		next := k - res.delta
		if next < 0 {
			next = 0
		}
		return next
	case res.kind == directiveJumpForward:
		return k + res.delta
	case res.kind == directiveJumpTo:
		return s.StagePosition(res.target)
	default:
		return k + 1
	}
}

func (s *Sequence) emit(u SequenceUpdate) {
	s.mu.Lock()
	s.history = append(s.history, u)
	s.mu.Unlock()

	if s.logUpdates {
		switch u.Type {
		case UpdateStageEnd, UpdateSequenceEnd:
			s.logger.Info("sequence %s: %s %s success=%t", s.name, u.Type, u.Stage, u.Success != nil && *u.Success)
		default:
			s.logger.Info("sequence %s: %s %s", s.name, u.Type, u.Stage)
		}
	}
	s.updates.Publish(u)
}

func (s *Sequence) setCurrent(k int) {
	s.mu.Lock()
	s.current = k
	s.mu.Unlock()
}

// hooks snapshots a callback list so registrations racing the transition
// see a consistent ordering.
func (s *Sequence) hooks(list *[]func()) []func() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]func(), len(*list))
	copy(out, *list)
	return out
}

// Updates returns a raw subscription to the update stream: a channel
// carrying every subsequent update in emission order, and a function that
// detaches it. The channel closes when the run ends. Subscribing after the
// run ended yields a closed channel; past updates are never replayed.
func (s *Sequence) Updates() (<-chan SequenceUpdate, func()) {
	return s.updates.Subscribe()
}

// Listen invokes fn for every subsequent update accepted by pred, in
// emission order, until the stream closes. A nil pred accepts everything.
// The returned function detaches the listener.
func (s *Sequence) Listen(pred func(SequenceUpdate) bool, fn func(SequenceUpdate)) func() {
	ch, cancel := s.updates.Subscribe()
	go func() {
		for u := range ch {
			if pred == nil || pred(u) {
				fn(u)
			}
		}
	}()
	return cancel
}

// OnUpdate invokes fn for every subsequent update matching the filter.
// The returned function detaches the listener.
func (s *Sequence) OnUpdate(filter UpdateFilter, fn func(SequenceUpdate)) func() {
	return s.Listen(filter.Match, fn)
}

// WaitFor blocks until an update matching the filter is emitted and
// returns it. It fails with ErrStreamClosed when the run ends without a
// match, or with the context's error. Updates emitted before the call are
// not replayed.
func (s *Sequence) WaitFor(ctx context.Context, filter UpdateFilter) (SequenceUpdate, error) {
	ch, cancel := s.updates.Subscribe()
	defer cancel()

	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return SequenceUpdate{}, fmt.Errorf("sequence %q: %w", s.name, ErrStreamClosed)
			}
			if filter.Match(u) {
				return u, nil
			}
		case <-ctx.Done():
			return SequenceUpdate{}, ctx.Err()
		}
	}
}

// WaitForSequenceEnd blocks until the run's terminal update and returns it.
func (s *Sequence) WaitForSequenceEnd(ctx context.Context) (SequenceUpdate, error) {
	return s.WaitFor(ctx, UpdateFilter{Type: UpdateSequenceEnd})
}

// OnStart registers a callback invoked once when the run begins. Callbacks
// fire in registration order.
func (s *Sequence) OnStart(fn func()) {
	s.mu.Lock()
	s.onStart = append(s.onStart, fn)
	s.mu.Unlock()
}

// OnSuccess registers a callback invoked once if the run ends succeeded.
func (s *Sequence) OnSuccess(fn func()) {
	s.mu.Lock()
	s.onSuccess = append(s.onSuccess, fn)
	s.mu.Unlock()
}

// OnFail registers a callback invoked once if the run ends failed.
func (s *Sequence) OnFail(fn func()) {
	s.mu.Lock()
	s.onFail = append(s.onFail, fn)
	s.mu.Unlock()
}

// OnDone registers a callback invoked once when the run ends, after any
// OnSuccess/OnFail callbacks, with the final success flag.
func (s *Sequence) OnDone(fn func(success bool)) {
	s.mu.Lock()
	s.onDone = append(s.onDone, fn)
	s.mu.Unlock()
}

// RequestSkip leaves a Skip message on the inbox.
func (s *Sequence) RequestSkip() error {
	return s.inbox.Leave(MessageSkip)
}

// RequestStop leaves a Stop message on the inbox.
func (s *Sequence) RequestStop() error {
	return s.inbox.Leave(MessageStop)
}

// LeaveMessage injects an arbitrary message into the inbox.
func (s *Sequence) LeaveMessage(msg Message) error {
	return s.inbox.Leave(msg)
}

// ForwardInbox relays every message received on other into this sequence's
// inbox, fanning in signals from an upstream sequence.
func (s *Sequence) ForwardInbox(other *Inbox) {
	s.inbox.Forward(other)
}

// State returns the sequence's lifecycle state.
func (s *Sequence) State() SequenceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsIdle reports whether the sequence has not started yet.
func (s *Sequence) IsIdle() bool { return s.State() == StateIdle }

// IsInProgress reports whether a run is in flight.
func (s *Sequence) IsInProgress() bool { return s.State() == StateInProgress }

// IsDone reports whether the run has finished, either way.
func (s *Sequence) IsDone() bool {
	st := s.State()
	return st == StateSucceeded || st == StateFailed
}

// IsDoneSucceeded reports whether the run finished successfully.
func (s *Sequence) IsDoneSucceeded() bool { return s.State() == StateSucceeded }

// IsDoneFailed reports whether the run finished failed.
func (s *Sequence) IsDoneFailed() bool { return s.State() == StateFailed }

// History returns a snapshot of every update emitted so far, in emission
// order. Unlike the live stream, the history is available to late callers.
func (s *Sequence) History() []SequenceUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SequenceUpdate, len(s.history))
	copy(out, s.history)
	return out
}

// StageCount returns the number of stages in the sequence.
func (s *Sequence) StageCount() int { return len(s.stages) }

// StagePosition returns the position of the named stage, or -1 if the name
// is not in the stage list.
func (s *Sequence) StagePosition(name StageName) int {
	for i, st := range s.stages {
		if st.Name == name {
			return i
		}
	}
	return -1
}

// StageName returns the name of the stage at pos.
func (s *Sequence) StageName(pos int) (StageName, bool) {
	if pos < 0 || pos >= len(s.stages) {
		return "", false
	}
	return s.stages[pos].Name, true
}

// StageBefore returns the name of the stage preceding the named one.
func (s *Sequence) StageBefore(name StageName) (StageName, bool) {
	return s.StageName(s.StagePosition(name) - 1)
}

// StageAfter returns the name of the stage following the named one.
func (s *Sequence) StageAfter(name StageName) (StageName, bool) {
	p := s.StagePosition(name)
	if p < 0 {
		return "", false
	}
	return s.StageName(p + 1)
}

// CurrentStage returns the name of the stage the run last entered.
func (s *Sequence) CurrentStage() (StageName, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	return s.StageName(cur)
}

// PrevStage returns the stage preceding the current one.
func (s *Sequence) PrevStage() (StageName, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	return s.StageName(cur - 1)
}

// NextStage returns the stage following the current one.
func (s *Sequence) NextStage() (StageName, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur < 0 {
		return "", false
	}
	return s.StageName(cur + 1)
}

// Stages returns a copy of the stage list in execution order.
func (s *Sequence) Stages() []Stage {
	out := make([]Stage, len(s.stages))
	copy(out, s.stages)
	return out
}
