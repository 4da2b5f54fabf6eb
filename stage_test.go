package gosequence

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActRunsFunctionWithArgsAndInbox(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	stage := NewStage("greet", func(ctx *ActionContext) {
		assert.Equal(t, StageName("greet"), ctx.Stage)
		assert.Same(t, inbox, ctx.Inbox)
		ctx.Result.Success().SetExtra(ctx.Args["who"])
	}, WithArgs(map[string]any{"who": "world"}))

	res := stage.act(context.Background(), inbox, NewDefaultLogger())
	assert.True(t, res.Succeeded)
	assert.Equal(t, "world", res.Extra)
}

func TestActTimeoutSubstitutesFailedResult(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	var finished atomic.Bool
	stage := NewStage("slow", func(ctx *ActionContext) {
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		ctx.Result.Success()
	}, WithTimeout(20*time.Millisecond))

	started := time.Now()
	res := stage.act(context.Background(), inbox, NewDefaultLogger())

	assert.Less(t, time.Since(started), 150*time.Millisecond)
	assert.False(t, res.Succeeded)
	assert.True(t, res.Terminates(), "a timeout ends the run")
	assert.False(t, finished.Load(), "the result came back before the action finished")

	// The abandoned action is not cancelled; it runs to completion in the
	// background and its outcome is discarded.
	assert.Eventually(t, func() bool { return finished.Load() }, time.Second, 10*time.Millisecond)
	assert.False(t, res.Succeeded, "the late success lands on the abandoned result, not this one")
}

func TestActWithoutTimeoutWaitsIndefinitely(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	stage := NewStage("steady", func(ctx *ActionContext) {
		time.Sleep(50 * time.Millisecond)
		ctx.Result.Success()
	})

	res := stage.act(context.Background(), inbox, NewDefaultLogger())
	assert.True(t, res.Succeeded)
}

func TestActRecoversPanicAsFailure(t *testing.T) {
	inbox := NewInbox()
	defer inbox.Close()

	stage := NewStage("boom", func(ctx *ActionContext) {
		panic("kaboom")
	})

	res := stage.act(context.Background(), inbox, NewDefaultLogger())
	assert.False(t, res.Succeeded)
	assert.True(t, res.Terminates())
	assert.Equal(t, "kaboom", res.Extra)
}

func TestStageOptions(t *testing.T) {
	args := map[string]any{"n": 1}
	stage := NewStage("opts", func(ctx *ActionContext) {}, WithArgs(args), WithTimeout(time.Minute))

	require.NotNil(t, stage.Action.Fn)
	assert.Equal(t, args, stage.Action.Args)
	assert.Equal(t, time.Minute, stage.Action.Timeout)
}
