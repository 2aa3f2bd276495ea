package session

import (
	"bytes"
	"testing"

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

func TestConnWriteLine(t *testing.T) {
	rwc := &fakeRWC{}
	conn := NewConn("10.0.0.1", rwc)

	require.NoError(t, conn.WriteLine("hello"))
	require.NoError(t, conn.WriteLine("world"))

	assert.Equal(t, "hello\r\nworld\r\n", rwc.String())
	assert.Equal(t, "10.0.0.1", conn.Host())
	assert.NotEqual(t, conn.ID(), NewConn("10.0.0.1", &fakeRWC{}).ID())
}

func TestConnClose(t *testing.T) {
	rwc := &fakeRWC{}
	conn := NewConn("10.0.0.1", rwc)
	require.NoError(t, conn.Close())
	assert.True(t, rwc.closed)
}

func TestConnAttrs(t *testing.T) {
	conn := NewConn("10.0.0.1", &fakeRWC{})

	_, ok := conn.Attr("nickname")
	assert.False(t, ok)
	assert.Equal(t, "", conn.StringAttr("nickname"))
	assert.False(t, conn.BoolAttr("admin"))

	conn.SetAttr("nickname", "alice")
	conn.SetAttr("admin", true)
	assert.Equal(t, "alice", conn.StringAttr("nickname"))
	assert.True(t, conn.BoolAttr("admin"))

	conn.SetAttr("nickname", 42)
	assert.Equal(t, "", conn.StringAttr("nickname"), "wrong type reads as zero value")

	conn.DelAttr("admin")
	assert.False(t, conn.BoolAttr("admin"))
}

func TestDirectoryActiveSet(t *testing.T) {
	d := NewDirectory()
	a := NewConn("10.0.0.1", &fakeRWC{})
	b := NewConn("10.0.0.2", &fakeRWC{})
	c := NewConn("10.0.0.3", &fakeRWC{})

	d.Add(a)
	d.Add(b)
	d.Add(c)
	require.Equal(t, 3, d.Len())
	assert.True(t, d.Contains(b))
	assert.Equal(t, []*Conn{a, b, c}, d.Connections(), "insertion order is stable")

	d.Remove(b)
	assert.False(t, d.Contains(b))
	assert.Equal(t, []*Conn{a, c}, d.Connections())

	d.Remove(b) // absent: no-op
	assert.Equal(t, 2, d.Len())
}

func TestDirectoryConnectionsIsSnapshot(t *testing.T) {
	d := NewDirectory()
	a := NewConn("10.0.0.1", &fakeRWC{})
	d.Add(a)

	snap := d.Connections()
	d.Remove(a)

	assert.Equal(t, []*Conn{a}, snap)
	assert.Equal(t, 0, d.Len())
}

func TestDirectoryBanList(t *testing.T) {
	d := NewDirectory()
	assert.False(t, d.IsBanned("10.0.0.9"))

	d.Ban("10.0.0.9")
	assert.True(t, d.IsBanned("10.0.0.9"))
	assert.False(t, d.IsBanned("10.0.0.8"))

	d.Unban("10.0.0.9")
	assert.False(t, d.IsBanned("10.0.0.9"))
}
