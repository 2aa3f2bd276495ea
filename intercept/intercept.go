// Package intercept provides per-session line interception: while an
// interceptor is armed on a session, its next line bypasses the command
// scan entirely and is fed to the interceptor instead. Reader collects free
// text; Menu presents numbered options.
//
// Unless disabled, a client can always type "@abort" to escape an armed
// interceptor.
package intercept

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avolk/parley/dispatch"
	"github.com/avolk/parley/session"
)

// AbortLine is the escape line recognized by interceptors that allow
// aborting.
const AbortLine = "@abort"

// abort consumes the line if it is an abort request, notifying the client.
func abort(c *dispatch.Caller, noAbort bool, aborted string) bool {
	if noAbort || c.Text != AbortLine {
		return false
	}
	if aborted == "" {
		aborted = "Aborted."
	}
	c.Conn.WriteLine(aborted)
	return true
}

// Reader intercepts one line of free text and delivers it to Func via the
// caller. A persistent reader re-arms itself after every line, turning the
// session into a captive prompt until something disarms it.
type Reader struct {
	Prompt     string
	Persistent bool
	NoAbort    bool
	Aborted    string
	Func       dispatch.Handler
}

// Attach arms the reader on conn and writes its prompt, if any.
func (r *Reader) Attach(conn *session.Conn) error {
	if r.Prompt != "" {
		if err := conn.WriteLine(r.Prompt); err != nil {
			return err
		}
	}
	conn.SetIntercept(r)
	return nil
}

// Feed implements dispatch.Interceptor.
func (r *Reader) Feed(c *dispatch.Caller) error {
	if abort(c, r.NoAbort, r.Aborted) {
		return nil
	}
	if r.Persistent {
		c.Conn.SetIntercept(r)
	}
	return r.Func(c)
}

// Item is one selectable menu entry.
type Item struct {
	Text string
	Do   dispatch.Handler
}

// Menu intercepts a line and resolves it against its items, by 1-based
// index or by case-insensitive prefix of the item text. NoMatch and
// MultiMatch replace the default replies for unresolvable input.
type Menu struct {
	Title      string
	Prompt     string
	Items      []Item
	Persistent bool
	NoAbort    bool
	Aborted    string

	NoMatch    dispatch.Handler
	MultiMatch func(*dispatch.Caller, []Item) error
}

// Send writes the menu to conn and arms it.
func (m *Menu) Send(conn *session.Conn) error {
	if m.Title != "" {
		if err := conn.WriteLine(m.Title); err != nil {
			return err
		}
	}
	for i, item := range m.Items {
		if err := conn.WriteLine(fmt.Sprintf("[%d] %s", i+1, item.Text)); err != nil {
			return err
		}
	}
	if m.Prompt != "" {
		if err := conn.WriteLine(m.Prompt); err != nil {
			return err
		}
	}
	conn.SetIntercept(m)
	return nil
}

// Feed implements dispatch.Interceptor.
func (m *Menu) Feed(c *dispatch.Caller) error {
	if abort(c, m.NoAbort, m.Aborted) {
		return nil
	}
	if m.Persistent {
		c.Conn.SetIntercept(m)
	}

	matched := m.resolve(strings.TrimSpace(c.Text))
	switch len(matched) {
	case 1:
		return matched[0].Do(c)
	case 0:
		if m.NoMatch != nil {
			return m.NoMatch(c)
		}
		return c.Conn.WriteLine("That's not a valid option.")
	default:
		if m.MultiMatch != nil {
			return m.MultiMatch(c, matched)
		}
		var names []string
		for _, item := range matched {
			names = append(names, item.Text)
		}
		return c.Conn.WriteLine("Which do you mean: " + strings.Join(names, ", ") + "?")
	}
}

// resolve finds the items selected by input.
func (m *Menu) resolve(input string) []Item {
	if input == "" {
		return nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(m.Items) {
			return nil
		}
		return []Item{m.Items[n-1]}
	}
	var matched []Item
	lower := strings.ToLower(input)
	for _, item := range m.Items {
		if strings.HasPrefix(strings.ToLower(item.Text), lower) {
			matched = append(matched, item)
		}
	}
	return matched
}
