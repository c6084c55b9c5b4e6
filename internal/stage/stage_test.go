package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocatorMonotonic(t *testing.T) {
	a := NewAllocator()
	first := a.Next()
	second := a.Next()
	assert.Less(t, first, second)
}

func TestMemoComputesOnceInTick(t *testing.T) {
	var m Memo[int]
	calls := 0
	compute := func() int { calls++; return 42 }

	ctx := &Context{Tick: 1}
	assert.Equal(t, 42, m.Get(ctx, compute))
	assert.Equal(t, 42, m.Get(ctx, compute))
	assert.Equal(t, 1, calls)

	ctx.Tick = 2
	assert.Equal(t, 42, m.Get(ctx, compute))
	assert.Equal(t, 2, calls)
}

func TestMemoResetForcesRecompute(t *testing.T) {
	var m Memo[int]
	ctx := &Context{Tick: 1}
	calls := 0
	m.Get(ctx, func() int { calls++; return 1 })
	m.Reset()
	m.Get(ctx, func() int { calls++; return 1 })
	assert.Equal(t, 2, calls)
}

func TestButtonFSMTransitions(t *testing.T) {
	var fsm ButtonFSM
	assert.Equal(t, NoInput, fsm.Next(false))
	assert.Equal(t, Pressed, fsm.Next(true))
	assert.Equal(t, Repeat, fsm.Next(true))
	assert.Equal(t, Repeat, fsm.Next(true))
	assert.Equal(t, Released, fsm.Next(false))
	assert.Equal(t, NoInput, fsm.Next(false))
}

func TestButtonFSMOnePressedPerPress(t *testing.T) {
	var fsm ButtonFSM
	seq := []bool{true, true, true, false, true}
	var states []ButtonState
	for _, v := range seq {
		states = append(states, fsm.Next(v))
	}
	pressedCount := 0
	for _, s := range states {
		if s == Pressed {
			pressedCount++
		}
	}
	assert.Equal(t, 2, pressedCount)
}

func TestButtonFSMReset(t *testing.T) {
	var fsm ButtonFSM
	fsm.Next(true)
	fsm.Reset()
	assert.Equal(t, Pressed, fsm.Next(true))
}
