// Package dispatch provides the matching core of parley: an ordered command
// registry, the per-line dispatcher that scans it, and the lifecycle hook
// table that surrounds dispatch.
package dispatch

import (
	"regexp"

	"github.com/avolk/parley/session"
)

// Caller is the context passed to guards, handlers, and hooks for one
// dispatch attempt or lifecycle event. It lives for the duration of a single
// HandleLine call (or hook firing) and is never retained beyond it.
type Caller struct {
	// Conn is the session that triggered the action. Nil for the start and
	// stop events, which no session triggers.
	Conn *session.Conn

	// Text is the raw line, or "" for lifecycle events.
	Text string

	// Match holds the captures of the pattern that matched, or nil for
	// events and fallback.
	Match *Match

	// Err is set only while the error hook runs, to the failure the handler
	// signalled.
	Err error

	keep bool
}

// Continue asks the dispatcher to keep scanning the registry after the
// current handler returns, so later commands matching the same line can fire
// too. The request applies to the current invocation only.
func (c *Caller) Continue() {
	c.keep = true
}

// Match holds the result of a successful pattern match.
type Match struct {
	re     *regexp.Regexp
	groups []string
}

// Group returns the i'th captured group; 0 is the full match. Out-of-range
// or unmatched groups yield "".
func (m *Match) Group(i int) string {
	if m == nil || i < 0 || i >= len(m.groups) {
		return ""
	}
	return m.groups[i]
}

// Named returns the capture of the named group, or "" if the pattern has no
// such group or it did not participate in the match.
func (m *Match) Named(name string) string {
	if m == nil {
		return ""
	}
	i := m.re.SubexpIndex(name)
	if i < 0 {
		return ""
	}
	return m.Group(i)
}
