// Package server composes the parley engine: the command registry, hook
// table, and session directory behind one Server value that the transport
// adapter drives.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/avolk/parley/dispatch"
	"github.com/avolk/parley/session"
	"github.com/avolk/parley/transport"
	"go.uber.org/zap"
)

// ErrBanned is returned by Connected when the peer's host is on the ban
// list. The transport closes the raw stream; no session exists and no
// connect hook fires.
var ErrBanned = errors.New("host is banned")

// Server owns the registry, hooks, and directory for one service instance.
// Construct it explicitly and hand it to the transport; there is no ambient
// global instance.
//
// All Server state is mutated from the single event loop that the transport
// runs, so none of it is locked.
type Server struct {
	// Addr is the TCP listen address, e.g. ":4000".
	Addr string

	Registry *dispatch.Registry
	Hooks    *dispatch.Hooks
	Dir      *session.Directory

	dispatcher *dispatch.Dispatcher
	started    time.Time
	log        *zap.SugaredLogger
}

// New creates a server listening on addr. A nil logger disables logging.
//
// The fallback and error hooks start with the conventional defaults of a
// text service (a "Huh?" style reply and a generic failure notice); replace
// them through Hooks for anything smarter.
func New(addr string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		Addr:     addr,
		Registry: dispatch.NewRegistry(),
		Hooks:    dispatch.NewHooks(log),
		Dir:      session.NewDirectory(),
		log:      log,
	}
	s.dispatcher = dispatch.NewDispatcher(s.Registry, s.Hooks, log)
	s.Hooks.On(dispatch.EventHuh, func(c *dispatch.Caller) {
		s.Notify(c.Conn, "I don't understand that.")
	})
	s.Hooks.On(dispatch.EventError, func(c *dispatch.Caller) {
		s.Notify(c.Conn, "There was an error with your command.")
	})
	return s
}

// Register adds a command to the server's registry. guard may be nil; meta
// is opaque application data.
func (s *Server) Register(pattern string, guard dispatch.Guard, handler dispatch.Handler, meta any) (*dispatch.Command, error) {
	return s.Registry.Register(pattern, guard, handler, meta)
}

// Started returns the time Run first recorded, or the zero time before Run.
func (s *Server) Started() time.Time { return s.started }

// HandleLine dispatches one line of text from conn. Exposed for transports
// and tests; never returns a failure, per the containment policy of the
// dispatcher.
func (s *Server) HandleLine(conn *session.Conn, text string) {
	s.dispatcher.HandleLine(conn, text)
}

// Notify formats text and writes it to one connection. Formatting uses
// either positional printf-style arguments or one Named map; mixing the two
// is rejected with ErrMixedFormat. A nil connection is ignored.
func (s *Server) Notify(conn *session.Conn, text string, args ...any) error {
	if conn == nil {
		return nil
	}
	out, err := Format(text, args...)
	if err != nil {
		return err
	}
	if err := conn.WriteLine(out); err != nil {
		s.log.Warnw("notify failed", "host", conn.Host(), "error", err)
		return err
	}
	return nil
}

// Broadcast formats text once and writes it to every active connection in
// directory order. Individual write failures are logged and skipped so one
// dead peer cannot starve the rest.
func (s *Server) Broadcast(text string, args ...any) error {
	out, err := Format(text, args...)
	if err != nil {
		return err
	}
	for _, conn := range s.Dir.Connections() {
		if err := conn.WriteLine(out); err != nil {
			s.log.Warnw("broadcast write failed", "host", conn.Host(), "error", err)
		}
	}
	return nil
}

// Disconnect removes conn from the active set and releases its transport
// stream. Removal is immediate: no further line from conn reaches the
// dispatcher. The disconnect hook fires when the transport notices the
// closed stream and calls Disconnected.
func (s *Server) Disconnect(conn *session.Conn) {
	s.Dir.Remove(conn)
	if err := conn.Close(); err != nil {
		s.log.Debugw("close failed", "host", conn.Host(), "error", err)
	}
}

// Connected admits a new peer. Banned hosts are refused before a session is
// created, so the connect hook never sees them. Implements
// transport.Events.
func (s *Server) Connected(host string, rwc io.ReadWriteCloser) (*session.Conn, error) {
	if s.Dir.IsBanned(host) {
		s.log.Warnw("refused banned host", "host", host)
		return nil, ErrBanned
	}
	conn := session.NewConn(host, rwc)
	s.Dir.Add(conn)
	s.log.Infow("connected", "host", host, "id", conn.ID())
	s.Hooks.Fire(dispatch.EventConnect, &dispatch.Caller{Conn: conn})
	return conn, nil
}

// LineReceived dispatches one delivered line. Lines from a connection that
// was already disconnected are dropped: removal from the active set takes
// effect before any further line is processed. Implements transport.Events.
func (s *Server) LineReceived(conn *session.Conn, line string) {
	if !s.Dir.Contains(conn) {
		return
	}
	s.HandleLine(conn, line)
}

// Disconnected records that conn's stream has gone away, removes it from
// the active set if still present, and fires the disconnect hook.
// Implements transport.Events.
func (s *Server) Disconnected(conn *session.Conn) {
	s.Dir.Remove(conn)
	s.log.Infow("disconnected", "host", conn.Host(), "id", conn.ID())
	s.Hooks.Fire(dispatch.EventDisconnect, &dispatch.Caller{Conn: conn})
}

// Run records the start time, fires the start hook, and serves the TCP
// transport until ctx is cancelled. The stop hook fires after the transport
// has stopped accepting but before Run returns.
func (s *Server) Run(ctx context.Context) error {
	if s.started.IsZero() {
		s.started = time.Now().UTC()
	}
	s.Hooks.Fire(dispatch.EventStart, &dispatch.Caller{})
	defer s.Hooks.Fire(dispatch.EventStop, &dispatch.Caller{})

	lst := transport.NewListener(s.Addr, s, s.log)
	return lst.Serve(ctx)
}
