package dispatch

// Guard combinators for composing command eligibility predicates.

// Anyone allows every caller. Equivalent to registering with a nil guard,
// but composable.
func Anyone(*Caller) bool { return true }

// Not inverts a guard.
func Not(g Guard) Guard {
	return func(c *Caller) bool {
		return !g(c)
	}
}

// AllOf passes only if every guard passes. With no guards it passes.
func AllOf(guards ...Guard) Guard {
	return func(c *Caller) bool {
		for _, g := range guards {
			if !g(c) {
				return false
			}
		}
		return true
	}
}

// AnyOf passes if at least one guard passes.
func AnyOf(guards ...Guard) Guard {
	return func(c *Caller) bool {
		for _, g := range guards {
			if g(c) {
				return true
			}
		}
		return false
	}
}

// HasAttr passes when the caller's session has a true bool attribute under
// key. Convenient for mode flags such as "in-vehicle".
func HasAttr(key string) Guard {
	return func(c *Caller) bool {
		return c.Conn != nil && c.Conn.BoolAttr(key)
	}
}
