package dispatch

import (
	"go.uber.org/zap"
)

// Event names a lifecycle hook slot.
type Event string

// The hook slots. Each fires synchronously, on the same goroutine as the
// event that triggered it.
const (
	EventConnect    Event = "connect"    // a session was admitted
	EventDisconnect Event = "disconnect" // a session went away
	EventError      Event = "error"      // a handler failed; Caller.Err is set
	EventStart      Event = "start"      // the server is about to accept
	EventStop       Event = "stop"       // fired before shutdown completes
	EventHuh        Event = "huh"        // no command matched the line
)

// Hook is a lifecycle callback.
type Hook func(*Caller)

// Gate is the pre-dispatch predicate. Returning false vetoes the entire
// dispatch for that line: no command is attempted and no fallback fires.
type Gate func(*Caller) bool

// Hooks is the table of lifecycle callbacks. Unset slots behave as no-ops
// (the unset gate allows). A panic inside a hook is contained to the current
// event and logged; it never takes down the event loop.
type Hooks struct {
	table map[Event]Hook
	pre   Gate
	log   *zap.SugaredLogger
}

// NewHooks creates a hook table with every slot unset. A nil logger
// disables logging.
func NewHooks(log *zap.SugaredLogger) *Hooks {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hooks{
		table: make(map[Event]Hook),
		log:   log,
	}
}

// On replaces the hook for event e. A nil fn restores the default no-op.
func (h *Hooks) On(e Event, fn Hook) {
	if fn == nil {
		delete(h.table, e)
		return
	}
	h.table[e] = fn
}

// OnPreDispatch replaces the pre-dispatch gate. A nil gate restores the
// default, which allows every line.
func (h *Hooks) OnPreDispatch(g Gate) {
	h.pre = g
}

// Fire invokes the hook for event e with caller, if one is set.
func (h *Hooks) Fire(e Event, caller *Caller) {
	fn, ok := h.table[e]
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("hook panicked", "event", string(e), "panic", r)
		}
	}()
	fn(caller)
}

// Allow runs the pre-dispatch gate. A panicking gate counts as a veto:
// the line is dropped, the loop keeps running.
func (h *Hooks) Allow(caller *Caller) (allowed bool) {
	if h.pre == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorw("pre-dispatch gate panicked", "panic", r)
			allowed = false
		}
	}()
	return h.pre(caller)
}
