// Package transport provides the TCP line transport the parley engine runs
// behind. It owns all network I/O: accepting peers, framing received bytes
// into lines, and funneling every connect, line, and disconnect into one
// serve loop so the engine processes events strictly one at a time.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/avolk/parley/session"
	"go.uber.org/zap"
)

// Events is the narrow surface the engine exposes to the transport.
// Connected may refuse a peer (e.g. a banned host) by returning an error;
// the transport then closes the raw stream and nothing else happens.
type Events interface {
	Connected(host string, rwc io.ReadWriteCloser) (*session.Conn, error)
	LineReceived(conn *session.Conn, line string)
	Disconnected(conn *session.Conn)
}

type eventKind int

const (
	evConnect eventKind = iota
	evLine
	evDisconnect
)

type event struct {
	kind eventKind
	raw  net.Conn      // evConnect
	conn *session.Conn // evLine, evDisconnect
	line string        // evLine
}

// Listener accepts TCP connections and delivers their lines to an Events
// sink. One goroutine reads each connection; the serve loop consumes all
// events serially, so sink methods never run concurrently.
type Listener struct {
	addr   string
	events Events
	log    *zap.SugaredLogger
}

// NewListener creates a listener for addr. A nil logger disables logging.
func NewListener(addr string, events Events, log *zap.SugaredLogger) *Listener {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Listener{addr: addr, events: events, log: log}
}

// Serve binds the address and processes events until ctx is cancelled. On
// cancellation it stops accepting, closes every live connection, and drains
// their disconnect events before returning, so the sink sees a disconnect
// for each admitted peer.
func (l *Listener) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", l.addr, err)
	}
	return l.ServeListener(ctx, ln)
}

// ServeListener is Serve on an already-bound listener. The listener is
// closed before ServeListener returns.
func (l *Listener) ServeListener(ctx context.Context, ln net.Listener) error {
	l.log.Infow("listening", "addr", ln.Addr().String())

	evch := make(chan event, 64)
	go l.accept(ln, evch)

	live := make(map[*session.Conn]net.Conn)
	done := ctx.Done()
	draining := false
	for {
		select {
		case <-done:
			done = nil
			draining = true
			ln.Close()
			for _, raw := range live {
				raw.Close()
			}
			if len(live) == 0 {
				return nil
			}
		case ev := <-evch:
			switch ev.kind {
			case evConnect:
				if draining {
					ev.raw.Close()
					continue
				}
				host := peerHost(ev.raw)
				conn, err := l.events.Connected(host, ev.raw)
				if err != nil {
					ev.raw.Close()
					continue
				}
				live[conn] = ev.raw
				go l.read(conn, ev.raw, evch)
			case evLine:
				if _, ok := live[ev.conn]; !ok {
					continue
				}
				l.events.LineReceived(ev.conn, ev.line)
			case evDisconnect:
				if _, ok := live[ev.conn]; !ok {
					continue
				}
				delete(live, ev.conn)
				l.events.Disconnected(ev.conn)
				if draining && len(live) == 0 {
					return nil
				}
			}
		}
	}
}

// accept feeds new raw connections into the event channel until the
// listener is closed.
func (l *Listener) accept(ln net.Listener, evch chan<- event) {
	for {
		raw, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warnw("accept failed", "error", err)
			continue
		}
		evch <- event{kind: evConnect, raw: raw}
	}
}

// read frames raw bytes into lines for one connection. Trailing CR is
// stripped so telnet-style CRLF peers and plain LF peers look the same.
func (l *Listener) read(conn *session.Conn, raw net.Conn, evch chan<- event) {
	sc := bufio.NewScanner(raw)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		evch <- event{kind: evLine, conn: conn, line: line}
	}
	evch <- event{kind: evDisconnect, conn: conn}
}

func peerHost(raw net.Conn) string {
	host, _, err := net.SplitHostPort(raw.RemoteAddr().String())
	if err != nil {
		return raw.RemoteAddr().String()
	}
	return host
}
