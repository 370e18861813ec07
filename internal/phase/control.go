package phase

// Control is the session-wide phase control value: the requested phase index
// and a dirty flag. External triggers (slider, scripted event) call Set; the
// coordinator clears the flag once the swap has been applied. It is explicit
// state threaded through calls, not an ambient singleton.
type Control struct {
	phaseIndex int
	dirty      bool
}

// Set requests a phase and marks the control dirty.
func (c *Control) Set(phase int) {
	c.phaseIndex = phase
	c.dirty = true
}

// Phase returns the requested phase index.
func (c *Control) Phase() int { return c.phaseIndex }

// Dirty reports whether a swap is pending.
func (c *Control) Dirty() bool { return c.dirty }

func (c *Control) clear() { c.dirty = false }
