package trial

// Clock is a pure countdown. It only moves when Tick is called, and it never
// acts on its own expiry; the caller observes Tick's report and decides what
// zero means (advance a phase, end the session). One Clock value is one
// logical timer: calling Start while it is running is a no-op, so a second
// countdown can never race the first.
type Clock struct {
	RemainingSec int
	Running      bool
}

// Start begins a countdown. Returns false without touching the clock if one
// is already running or seconds is not positive.
func (c *Clock) Start(seconds int) bool {
	if c.Running || seconds <= 0 {
		return false
	}
	c.RemainingSec = seconds
	c.Running = true
	return true
}

// Tick decrements the remaining time by one second. It reports true exactly
// once, on the tick that reaches zero; the clock stops itself at that point.
func (c *Clock) Tick() bool {
	if !c.Running {
		return false
	}
	c.RemainingSec--
	if c.RemainingSec <= 0 {
		c.RemainingSec = 0
		c.Running = false
		return true
	}
	return false
}

func (c *Clock) Remaining() int { return c.RemainingSec }

func (c *Clock) Stop() {
	c.Running = false
}
