package server

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/avolk/parley/dispatch"
	"github.com/avolk/parley/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRWC struct {
	bytes.Buffer
	closed bool
}

func (f *fakeRWC) Close() error {
	f.closed = true
	return nil
}

// recordingRWC notes who was written to, in order, across connections.
type recordingRWC struct {
	name string
	log  *[]string
}

func (r *recordingRWC) Read([]byte) (int, error) { return 0, nil }
func (r *recordingRWC) Write(p []byte) (int, error) {
	*r.log = append(*r.log, r.name)
	return len(p), nil
}
func (r *recordingRWC) Close() error { return nil }

func admit(t *testing.T, s *Server, host string) (*session.Conn, *fakeRWC) {
	t.Helper()
	rwc := &fakeRWC{}
	conn, err := s.Connected(host, rwc)
	require.NoError(t, err)
	return conn, rwc
}

func TestLookScenario(t *testing.T) {
	s := New(":0", nil)
	_, err := s.Register(`^look$`, nil, func(c *dispatch.Caller) error {
		return s.Notify(c.Conn, "You see nothing.")
	}, nil)
	require.NoError(t, err)

	conn, rwc := admit(t, s, "10.0.0.1")
	s.HandleLine(conn, "look")

	assert.Equal(t, "You see nothing.\r\n", rwc.String())
}

func TestNotifyFormatting(t *testing.T) {
	s := New(":0", nil)
	conn, rwc := admit(t, s, "10.0.0.1")

	require.NoError(t, s.Notify(conn, "%s has %d lives", "cat", 9))
	require.NoError(t, s.Notify(conn, "{who} waves", Named{"who": "alice"}))

	assert.Equal(t, "cat has 9 lives\r\nalice waves\r\n", rwc.String())
}

func TestNotifyRejectsMixedStyles(t *testing.T) {
	s := New(":0", nil)
	conn, rwc := admit(t, s, "10.0.0.1")

	err := s.Notify(conn, "{who} %s", Named{"who": "alice"}, "waves")
	assert.ErrorIs(t, err, ErrMixedFormat)
	assert.Empty(t, rwc.String(), "nothing may be written on a usage error")
}

func TestNotifyNilConnIsNoOp(t *testing.T) {
	s := New(":0", nil)
	assert.NoError(t, s.Notify(nil, "into the void"))
}

func TestBroadcastWritesInDirectoryOrder(t *testing.T) {
	s := New(":0", nil)
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Connected(name, &recordingRWC{name: name, log: &order})
		require.NoError(t, err)
	}

	require.NoError(t, s.Broadcast("hello"))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestBroadcastRejectsMixedStyles(t *testing.T) {
	s := New(":0", nil)
	assert.ErrorIs(t, s.Broadcast("{x} %s", Named{"x": 1}, "y"), ErrMixedFormat)
}

func TestBannedHostIsRefused(t *testing.T) {
	s := New(":0", nil)
	connectFired := false
	s.Hooks.On(dispatch.EventConnect, func(c *dispatch.Caller) { connectFired = true })
	s.Dir.Ban("10.6.6.6")

	conn, err := s.Connected("10.6.6.6", &fakeRWC{})

	assert.ErrorIs(t, err, ErrBanned)
	assert.Nil(t, conn)
	assert.False(t, connectFired, "the connect hook must never fire for a banned host")
	assert.Equal(t, 0, s.Dir.Len())
}

func TestConnectedAdmitsAndFiresHook(t *testing.T) {
	s := New(":0", nil)
	var hookConn *session.Conn
	s.Hooks.On(dispatch.EventConnect, func(c *dispatch.Caller) { hookConn = c.Conn })

	conn, _ := admit(t, s, "10.0.0.1")

	assert.Same(t, conn, hookConn)
	assert.True(t, s.Dir.Contains(conn))
}

func TestDisconnectIsImmediateForDispatch(t *testing.T) {
	s := New(":0", nil)
	fired := false
	s.Register(`^hi$`, nil, func(c *dispatch.Caller) error {
		fired = true
		return nil
	}, nil)
	conn, rwc := admit(t, s, "10.0.0.1")

	s.Disconnect(conn)
	s.LineReceived(conn, "hi")

	assert.True(t, rwc.closed, "disconnect releases the transport stream")
	assert.False(t, fired, "no further line from the connection is processed")
	assert.False(t, s.Dir.Contains(conn))
}

func TestDisconnectedFiresHookAndRemoves(t *testing.T) {
	s := New(":0", nil)
	var gone []*session.Conn
	s.Hooks.On(dispatch.EventDisconnect, func(c *dispatch.Caller) { gone = append(gone, c.Conn) })
	conn, _ := admit(t, s, "10.0.0.1")

	s.Disconnected(conn)

	assert.Equal(t, []*session.Conn{conn}, gone)
	assert.False(t, s.Dir.Contains(conn))
}

func TestDefaultFallbackReply(t *testing.T) {
	s := New(":0", nil)
	conn, rwc := admit(t, s, "10.0.0.1")

	s.HandleLine(conn, "asdf")

	assert.Equal(t, "I don't understand that.\r\n", rwc.String())
}

func TestDefaultErrorReply(t *testing.T) {
	s := New(":0", nil)
	s.Register(`^fail$`, nil, func(c *dispatch.Caller) error {
		return errors.New("boom")
	}, nil)
	conn, rwc := admit(t, s, "10.0.0.1")

	s.HandleLine(conn, "fail")

	assert.Equal(t, "There was an error with your command.\r\n", rwc.String())
}

func TestRunFiresStartAndStopHooks(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	ctx, cancel := context.WithCancel(context.Background())
	var events []string
	s.Hooks.On(dispatch.EventStart, func(c *dispatch.Caller) {
		events = append(events, "start")
		assert.Nil(t, c.Conn)
		cancel()
	})
	s.Hooks.On(dispatch.EventStop, func(c *dispatch.Caller) {
		events = append(events, "stop")
	})

	err := s.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"start", "stop"}, events)
	assert.False(t, s.Started().IsZero())
}
