package gosequence

type directiveKind int

const (
	directiveNone directiveKind = iota
	directiveJumpBack
	directiveJumpForward
	directiveJumpTo
)

// Result is the outcome record a stage action fills in. Exactly one
// directive is active at a time: each mutator below overwrites whatever a
// previous call established, so the last call before the action returns
// wins.
//
// A Result is mutated only by the action it was handed to; the engine reads
// it after the action (or its timeout) has resolved.
type Result struct {
	// Succeeded reports whether the stage considers itself successful.
	Succeeded bool
	// Extra is an arbitrary value surfaced on the StageEnd update.
	Extra any

	terminate bool
	kind      directiveKind
	delta     int
	target    StageName
}

// NewResult returns an empty outcome: not succeeded, no directive, which
// the engine treats as "advance to the next stage".
func NewResult() *Result {
	return &Result{}
}

func (r *Result) set(succeeded, terminate bool, kind directiveKind) *Result {
	r.Succeeded = succeeded
	r.terminate = terminate
	r.kind = kind
	r.delta = 0
	r.target = ""
	return r
}

// Success marks the stage successful and lets the sequence advance to the
// next stage.
func (r *Result) Success() *Result {
	return r.set(true, false, directiveNone)
}

// Fail marks the stage failed and terminates the run.
func (r *Result) Fail() *Result {
	return r.set(false, true, directiveNone)
}

// EndOnSuccess marks the stage successful and terminates the run, ending
// the sequence early with a successful outcome.
func (r *Result) EndOnSuccess() *Result {
	return r.set(true, true, directiveNone)
}

// JumpBack moves the sequence back by stages, clamped at the first stage.
// Jumping back zero stages re-runs the current one.
func (r *Result) JumpBack(stages int, succeeded bool) *Result {
	r.set(succeeded, false, directiveJumpBack)
	r.delta = stages
	return r
}

// JumpForward moves the sequence forward by stages; jumping past the last
// stage ends the run.
func (r *Result) JumpForward(stages int, succeeded bool) *Result {
	r.set(succeeded, false, directiveJumpForward)
	r.delta = stages
	return r
}

// JumpTo moves the sequence to the named stage. A name absent from the
// stage list resolves to an out-of-range position and the run ends.
func (r *Result) JumpTo(stage StageName, succeeded bool) *Result {
	r.set(succeeded, false, directiveJumpTo)
	r.target = stage
	return r
}

// SetExtra attaches an arbitrary value to the outcome. Unlike the directive
// mutators it composes with any of them.
func (r *Result) SetExtra(v any) *Result {
	r.Extra = v
	return r
}

// Terminates reports whether this outcome ends the run regardless of the
// stage's position.
func (r *Result) Terminates() bool {
	return r.terminate
}
