package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/terrarium/config"
	"github.com/pthm-cable/terrarium/game"
	"github.com/pthm-cable/terrarium/preview"
	"github.com/pthm-cable/terrarium/telemetry"
)

// Status is the body of GET /api/status.
type Status struct {
	Running    bool                  `json:"running"`
	Tick       int                   `json:"tick"`
	Population int                   `json:"population"`
	Speed      float32               `json:"multiplier"`
	Clients    int                   `json:"clients"`
	Metrics    telemetry.TickMetrics `json:"metrics"`
}

// Controller owns a session and steps it on a wall-clock schedule. All
// session access goes through mu, so HTTP handlers and the run loop can
// share it.
type Controller struct {
	mu       sync.Mutex
	session  *game.Session
	driver   *preview.Driver
	hub      *Hub
	interval int
	period   time.Duration
	withFood bool
	log      *slog.Logger
}

// NewController wraps s. Ticks run at cfg.TicksPerSecond at speed 1 and a
// snapshot is broadcast every cfg.BroadcastInterval ticks. The controller
// starts stopped.
func NewController(s *game.Session, cfg config.FeedConfig, hub *Hub, logger *slog.Logger) *Controller {
	tps := cfg.TicksPerSecond
	if !(tps > 0) {
		tps = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := preview.NewDriver(1/tps, 4)
	d.SetPaused(true)
	return &Controller{
		session:  s,
		driver:   d,
		hub:      hub,
		interval: max(1, cfg.BroadcastInterval),
		period:   time.Duration(float64(time.Second) / float64(tps)),
		withFood: true,
		log:      logger,
	}
}

// Start resumes stepping.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.driver.SetPaused(false)
}

// Stop pauses stepping.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.driver.SetPaused(true)
}

// Running reports whether the run loop steps the session.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.driver.Paused()
}

// SetSpeed sets the speed multiplier, clamped to the driver's limits, and
// returns the value applied.
func (c *Controller) SetSpeed(mult float32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.SetSpeed(mult)
}

// Reset restarts the world at tick 0, clears the snapshot queue and
// broadcasts the fresh state.
func (c *Controller) Reset() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Reset()
	c.hub.Reset()
	c.broadcastLocked()
	return c.statusLocked()
}

// Status reports the current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	w := c.session.World()
	m, _ := w.Metrics().Last()
	return Status{
		Running:    !c.driver.Paused(),
		Tick:       c.session.Tick(),
		Population: len(w.Agents()),
		Speed:      c.driver.Speed(),
		Clients:    c.hub.Clients(),
		Metrics:    m,
	}
}

// broadcastLocked sends a snapshot of the current tick. It runs under mu
// so clients see snapshots in step order. Message ticks count stepped
// ticks, which keeps them unique across a reset.
func (c *Controller) broadcastLocked() {
	msg := Message{Type: "snapshot", Tick: c.session.Tick(), Payload: c.session.Snapshot(c.withFood)}
	if err := c.hub.Broadcast(msg); err != nil {
		c.log.Error("broadcast failed", "error", err)
	}
}

func (c *Controller) stepLocked() {
	c.session.Step()
	if c.session.Tick()%c.interval == 0 {
		c.broadcastLocked()
	}
}

// Step advances one tick regardless of the running state and broadcasts a
// snapshot when the tick count reaches a multiple of the interval.
func (c *Controller) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepLocked()
}

// advance runs the ticks owed for elapsed wall time.
func (c *Controller) advance(elapsed time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.Advance(float32(elapsed.Seconds()), c.stepLocked)
}

// Run steps the session until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			c.advance(now.Sub(last))
			last = now
		}
	}
}
