package modeswap

import (
	"sync"
	"time"

	"github.com/auslanlive/auslan-client/internal/diaglog"
)

// Mode is the client's translation direction.
type Mode string

const (
	ModeVideoToText Mode = "video-to-text"
	ModeTextToVideo Mode = "text-to-video"
)

// Phase tracks the swap animation. Commands that change translation state
// are rejected while a swap is in progress.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSwapping Phase = "swapping"
)

const (
	// DefaultMidpointDelay is the time before the old mode is torn down.
	DefaultMidpointDelay = 400 * time.Millisecond
	// DefaultSettleDelay is the time after the flip before new commands are
	// accepted.
	DefaultSettleDelay = 400 * time.Millisecond
)

// Controller owns the current mode and serializes mode swaps. A swap runs in
// two timed halves: after the midpoint delay the outgoing mode is torn down
// and the mode flips, and after the settle delay the controller goes idle
// again. Only one swap runs at a time; Swap during a swap is a rejected
// no-op.
type Controller struct {
	mu    sync.Mutex
	mode  Mode
	phase Phase

	midpoint time.Duration
	settle   time.Duration

	onMidpoint func(from, to Mode)
	onSettled  func(mode Mode)

	logger   *diaglog.Logger
	loggerMu sync.RWMutex
}

// New creates a controller starting in video-to-text mode.
func New() *Controller {
	return &Controller{
		mode:     ModeVideoToText,
		phase:    PhaseIdle,
		midpoint: DefaultMidpointDelay,
		settle:   DefaultSettleDelay,
	}
}

// SetDelays overrides the animation timing. Call before the first Swap.
func (c *Controller) SetDelays(midpoint, settle time.Duration) {
	c.midpoint = midpoint
	c.settle = settle
}

// OnMidpoint registers the teardown hook, called once per swap after the
// midpoint delay with the outgoing and incoming modes. The mode flips
// immediately after it returns.
func (c *Controller) OnMidpoint(handler func(from, to Mode)) {
	c.onMidpoint = handler
}

// OnSettled registers a hook called when a swap completes and the controller
// is idle again.
func (c *Controller) OnSettled(handler func(mode Mode)) {
	c.onSettled = handler
}

// SetLogger injects a diaglog.Logger. Passing nil disables structured logging.
func (c *Controller) SetLogger(l *diaglog.Logger) {
	c.loggerMu.Lock()
	c.logger = l
	c.loggerMu.Unlock()
}

func (c *Controller) log(entry diaglog.LogEntry) {
	c.loggerMu.RLock()
	l := c.logger
	c.loggerMu.RUnlock()
	if l == nil {
		return
	}
	if entry.Component == "" {
		entry.Component = diaglog.ComponentModeSwap
	}
	l.Log(entry)
}

// Mode returns the current translation direction.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Phase returns the current animation phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Busy reports whether a swap is in progress.
func (c *Controller) Busy() bool {
	return c.Phase() == PhaseSwapping
}

// Swap starts a mode swap. Returns false without side effects when a swap is
// already running.
func (c *Controller) Swap() bool {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		c.log(diaglog.LogEntry{Event: diaglog.EventModeSwapRejected})
		return false
	}
	c.phase = PhaseSwapping
	from := c.mode
	to := other(from)
	c.mu.Unlock()

	c.log(diaglog.LogEntry{
		Event:   diaglog.EventModeSwap,
		Payload: map[string]interface{}{"from": string(from), "to": string(to)},
	})

	go c.run(from, to)
	return true
}

func (c *Controller) run(from, to Mode) {
	time.Sleep(c.midpoint)

	if c.onMidpoint != nil {
		c.onMidpoint(from, to)
	}

	c.mu.Lock()
	c.mode = to
	c.mu.Unlock()

	time.Sleep(c.settle)

	c.mu.Lock()
	c.phase = PhaseIdle
	c.mu.Unlock()

	if c.onSettled != nil {
		c.onSettled(to)
	}
}

func other(m Mode) Mode {
	if m == ModeVideoToText {
		return ModeTextToVideo
	}
	return ModeVideoToText
}
