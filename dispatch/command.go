package dispatch

import (
	"fmt"
	"regexp"
)

// Handler executes a matched command. A non-nil error (or a panic) is
// contained by the dispatcher and surfaced through the error hook; it never
// reaches the caller of HandleLine.
type Handler func(*Caller) error

// Guard decides whether a matched command is eligible to fire. It runs with
// the caller's Match populated; a false result skips the command and the
// scan moves on as if the pattern had not matched.
type Guard func(*Caller) bool

// Command is one entry in a Registry: a compiled pattern, an optional guard,
// the handler, and opaque application metadata. Commands are immutable once
// registered.
type Command struct {
	pattern *regexp.Regexp
	guard   Guard
	handler Handler

	// Meta carries application data about the command, e.g. a help string.
	// The engine never inspects it.
	Meta any
}

// Pattern returns the source text of the command's pattern.
func (c *Command) Pattern() string {
	return c.pattern.String()
}

// Registry is the ordered store of commands. Registration order is the sole
// priority mechanism: the dispatcher scans front to back and nothing ever
// reorders or deduplicates entries. Like the session directory it is owned
// by the server's event loop and carries no locks.
type Registry struct {
	cmds []*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register compiles pattern and appends a command. Identical patterns are
// legal; they are tried in registration order. The returned *Command is the
// handle for the registered entry.
func (r *Registry) Register(pattern string, guard Guard, handler Handler, meta any) (*Command, error) {
	if handler == nil {
		return nil, fmt.Errorf("register %q: nil handler", pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", pattern, err)
	}
	cmd := &Command{
		pattern: re,
		guard:   guard,
		handler: handler,
		Meta:    meta,
	}
	r.cmds = append(r.cmds, cmd)
	return cmd, nil
}

// MustRegister is Register for patterns known at compile time; it panics on
// error.
func (r *Registry) MustRegister(pattern string, guard Guard, handler Handler, meta any) *Command {
	cmd, err := r.Register(pattern, guard, handler, meta)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Len returns the current number of commands.
func (r *Registry) Len() int { return len(r.cmds) }

// At returns the i'th command in registration order, or nil if i is out of
// range. The dispatcher iterates with Len/At rather than over a snapshot so
// commands registered mid-scan are still reached.
func (r *Registry) At(i int) *Command {
	if i < 0 || i >= len(r.cmds) {
		return nil
	}
	return r.cmds[i]
}

// Commands returns a snapshot of the registry in registration order, for
// listings such as help output.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}
