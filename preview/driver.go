package preview

// Speed limits for Driver.SetSpeed.
const (
	MinSpeed = 0.1
	MaxSpeed = 5
)

// Driver converts wall-clock frame time into whole simulation ticks with a
// fixed-timestep accumulator. It is not safe for concurrent use.
type Driver struct {
	dt       float32 // seconds of wall time per tick at speed 1
	acc      float32
	speed    float32
	paused   bool
	maxSteps int
}

// NewDriver creates a driver that runs one tick per dt seconds at speed 1
// and at most maxSteps ticks per Advance.
func NewDriver(dt float32, maxSteps int) *Driver {
	return &Driver{dt: dt, speed: 1, maxSteps: max(1, maxSteps)}
}

// Advance adds frame seconds of wall time and calls step once per whole
// tick owed. Backlog beyond maxSteps is dropped rather than carried, so a
// stalled frame does not trigger a burst later. Returns the ticks run.
func (d *Driver) Advance(frame float32, step func()) int {
	if d.paused || !(d.dt > 0) || frame <= 0 {
		return 0
	}
	d.acc += frame * d.speed
	n := 0
	for d.acc >= d.dt && n < d.maxSteps {
		step()
		d.acc -= d.dt
		n++
	}
	if n == d.maxSteps {
		d.acc = min(d.acc, d.dt)
	}
	return n
}

// Speed returns the current speed multiplier.
func (d *Driver) Speed() float32 { return d.speed }

// SetSpeed sets the multiplier, clamped to [MinSpeed, MaxSpeed], and
// returns the value applied.
func (d *Driver) SetSpeed(s float32) float32 {
	d.speed = min(MaxSpeed, max(MinSpeed, s))
	return d.speed
}

// Paused reports whether Advance is suspended.
func (d *Driver) Paused() bool { return d.paused }

// SetPaused suspends or resumes the driver. Pausing drops the accumulated
// time.
func (d *Driver) SetPaused(p bool) {
	d.paused = p
	if p {
		d.acc = 0
	}
}

// TogglePause flips the paused state.
func (d *Driver) TogglePause() { d.SetPaused(!d.paused) }
