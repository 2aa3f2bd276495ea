package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsetHooksAreNoOps(t *testing.T) {
	h := NewHooks(nil)
	assert.NotPanics(t, func() {
		h.Fire(EventConnect, &Caller{})
		h.Fire(EventStop, nil)
	})
	assert.True(t, h.Allow(&Caller{}), "the unset gate allows everything")
}

func TestOnReplacesHook(t *testing.T) {
	h := NewHooks(nil)
	var got []Event
	h.On(EventConnect, func(c *Caller) { got = append(got, EventConnect) })
	h.On(EventConnect, func(c *Caller) { got = append(got, "replaced") })

	h.Fire(EventConnect, &Caller{})

	assert.Equal(t, []Event{"replaced"}, got)
}

func TestOnNilRestoresNoOp(t *testing.T) {
	h := NewHooks(nil)
	fired := false
	h.On(EventHuh, func(c *Caller) { fired = true })
	h.On(EventHuh, nil)

	h.Fire(EventHuh, &Caller{})

	assert.False(t, fired)
}

func TestHookPanicIsContained(t *testing.T) {
	h := NewHooks(nil)
	h.On(EventError, func(c *Caller) { panic("hook broke") })
	assert.NotPanics(t, func() {
		h.Fire(EventError, &Caller{})
	})
}

func TestGateControlsAllow(t *testing.T) {
	h := NewHooks(nil)
	h.OnPreDispatch(func(c *Caller) bool { return c.Text != "blocked" })

	assert.True(t, h.Allow(&Caller{Text: "fine"}))
	assert.False(t, h.Allow(&Caller{Text: "blocked"}))

	h.OnPreDispatch(nil)
	assert.True(t, h.Allow(&Caller{Text: "blocked"}))
}

func TestPanickingGateVetoes(t *testing.T) {
	h := NewHooks(nil)
	h.OnPreDispatch(func(c *Caller) bool { panic("gate broke") })
	allowed := true
	assert.NotPanics(t, func() {
		allowed = h.Allow(&Caller{})
	})
	assert.False(t, allowed, "a broken gate fails closed")
}
