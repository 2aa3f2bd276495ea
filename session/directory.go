package session

// Directory tracks the active session set in insertion order, together with
// the ban list keyed by host identity. It is owned by the server's event
// loop; all mutation happens there, so it carries no locks.
type Directory struct {
	conns  []*Conn
	banned map[string]struct{}
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		banned: make(map[string]struct{}),
	}
}

// Add registers a session in the active set. Called exactly once per
// connect.
func (d *Directory) Add(c *Conn) {
	d.conns = append(d.conns, c)
}

// Remove drops a session from the active set. Called exactly once per
// disconnect; removing an absent session is a no-op.
func (d *Directory) Remove(c *Conn) {
	for i, have := range d.conns {
		if have == c {
			d.conns = append(d.conns[:i], d.conns[i+1:]...)
			return
		}
	}
}

// Contains reports whether c is in the active set.
func (d *Directory) Contains(c *Conn) bool {
	for _, have := range d.conns {
		if have == c {
			return true
		}
	}
	return false
}

// Len returns the number of active sessions.
func (d *Directory) Len() int { return len(d.conns) }

// Connections returns the active set in insertion order. The slice is a
// snapshot, so handlers may disconnect sessions while ranging over it.
func (d *Directory) Connections() []*Conn {
	out := make([]*Conn, len(d.conns))
	copy(out, d.conns)
	return out
}

// Ban adds a host identity to the ban list. Future connects from it are
// refused before a session is created.
func (d *Directory) Ban(host string) {
	d.banned[host] = struct{}{}
}

// Unban removes a host identity from the ban list.
func (d *Directory) Unban(host string) {
	delete(d.banned, host)
}

// IsBanned reports whether host is on the ban list.
func (d *Directory) IsBanned(host string) bool {
	_, ok := d.banned[host]
	return ok
}
