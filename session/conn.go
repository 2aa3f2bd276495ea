// Package session tracks client sessions for a line-oriented server: the
// Conn type wraps one transport stream with a host identity and a mutable
// attribute bag, and Directory keeps the active set plus the ban list.
package session

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Conn represents one client session. The underlying transport stream is
// opaque to the engine; WriteLine is the only outbound operation.
//
// A Conn is owned by the server's event loop and must not be mutated from
// other goroutines.
type Conn struct {
	id   uuid.UUID
	host string
	rwc  io.ReadWriteCloser

	attrs     map[string]any
	intercept any
}

// NewConn wraps a transport stream as a session. host is the stable peer
// identity used for ban checks and logging.
func NewConn(host string, rwc io.ReadWriteCloser) *Conn {
	return &Conn{
		id:    uuid.New(),
		host:  host,
		rwc:   rwc,
		attrs: make(map[string]any),
	}
}

// ID returns the unique id assigned at creation.
func (c *Conn) ID() uuid.UUID { return c.id }

// Host returns the peer's host identity.
func (c *Conn) Host() string { return c.host }

// WriteLine sends one line of text to the client, terminated with CRLF.
func (c *Conn) WriteLine(text string) error {
	if _, err := io.WriteString(c.rwc, text+"\r\n"); err != nil {
		return fmt.Errorf("write to %s: %w", c.host, err)
	}
	return nil
}

// Close releases the transport stream.
func (c *Conn) Close() error {
	return c.rwc.Close()
}

// Attr returns the session attribute stored under key.
func (c *Conn) Attr(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// SetAttr stores a session attribute. Applications use the bag for
// per-session state such as nicknames or mode flags.
func (c *Conn) SetAttr(key string, value any) {
	c.attrs[key] = value
}

// DelAttr removes a session attribute.
func (c *Conn) DelAttr(key string) {
	delete(c.attrs, key)
}

// StringAttr returns the attribute under key as a string, or "" if it is
// unset or not a string.
func (c *Conn) StringAttr(key string) string {
	s, _ := c.attrs[key].(string)
	return s
}

// BoolAttr returns the attribute under key as a bool, or false if it is
// unset or not a bool.
func (c *Conn) BoolAttr(key string) bool {
	b, _ := c.attrs[key].(bool)
	return b
}

// Intercept returns the armed line interceptor, if any. The dispatcher
// consults it before command matching.
func (c *Conn) Intercept() any { return c.intercept }

// SetIntercept arms (or, with nil, disarms) a line interceptor for this
// session.
func (c *Conn) SetIntercept(i any) { c.intercept = i }
