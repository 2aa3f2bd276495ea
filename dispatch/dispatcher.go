package dispatch

import (
	"fmt"

	"github.com/avolk/parley/session"
	"go.uber.org/zap"
)

// Interceptor consumes a line in place of the normal command scan. A session
// with an armed interceptor (see session.Conn.SetIntercept) has its next
// line fed here; the interceptor is disarmed first, so persistent behavior
// is opt-in by re-arming from Feed.
type Interceptor interface {
	Feed(*Caller) error
}

// Dispatcher matches incoming lines against a Registry and invokes the
// first (or, when handlers request continuation, several) matching
// commands. All work is synchronous; HandleLine returns only after every
// handler and hook it triggered has returned.
type Dispatcher struct {
	reg   *Registry
	hooks *Hooks
	log   *zap.SugaredLogger
}

// NewDispatcher wires a dispatcher to its registry and hook table. A nil
// logger disables logging.
func NewDispatcher(reg *Registry, hooks *Hooks, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{reg: reg, hooks: hooks, log: log}
}

// HandleLine processes one line of text from conn.
//
// The scan is a single forward pass over the registry in registration
// order. The scan moves past a command when its pattern does not match,
// when its guard rejects, or when its handler ran and asked to Continue;
// otherwise it stops after the first handler. Handler failures (error
// returns and panics) are contained here and surfaced through the error
// hook — they never propagate to the transport.
func (d *Dispatcher) HandleLine(conn *session.Conn, text string) {
	caller := &Caller{Conn: conn, Text: text}

	if ic, ok := conn.Intercept().(Interceptor); ok {
		conn.SetIntercept(nil)
		if err := d.contain(func() error { return ic.Feed(caller) }); err != nil {
			d.fail(caller, err)
		}
		return
	}

	if !d.hooks.Allow(caller) {
		return
	}

	found := false
	for i := 0; i < d.reg.Len(); i++ {
		cmd := d.reg.At(i)
		groups := cmd.pattern.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		caller.Match = &Match{re: cmd.pattern, groups: groups}
		if cmd.guard != nil && !cmd.guard(caller) {
			caller.Match = nil
			continue
		}
		found = true
		caller.keep = false
		if err := d.contain(func() error { return cmd.handler(caller) }); err != nil {
			d.log.Warnw("command handler failed",
				"pattern", cmd.Pattern(),
				"host", conn.Host(),
				"error", err,
			)
			d.fail(caller, err)
		}
		if !caller.keep {
			return
		}
	}

	if !found {
		d.hooks.Fire(EventHuh, caller)
	}
}

// fail runs the error hook with the caller's Err set to the contained
// failure.
func (d *Dispatcher) fail(caller *Caller, err error) {
	caller.Err = err
	d.hooks.Fire(EventError, caller)
	caller.Err = nil
}

// contain runs fn, converting a panic into an error.
func (d *Dispatcher) contain(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}
