package session

import (
	"sync"
	"time"
)

// Ticker is the time source driving the countdown. The real implementation
// wraps time.Ticker; tests substitute a channel they control so transitions
// can be exercised without real timers.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds the ticker when the clock starts.
type TickerFactory func(interval time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTicker is the default TickerFactory, backed by time.Ticker.
func NewTicker(interval time.Duration) Ticker {
	return realTicker{t: time.NewTicker(interval)}
}

// Clock emits one tick per second to its handler while running. The handler
// returns false to stop the clock from inside a tick; Stop halts it from
// outside and is safe to call more than once.
type Clock struct {
	newTicker TickerFactory

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewClock creates a stopped clock. A nil factory means real 1-second ticks.
func NewClock(factory TickerFactory) *Clock {
	if factory == nil {
		factory = NewTicker
	}
	return &Clock{newTicker: factory}
}

// Start begins ticking. Starting a running clock is a no-op.
func (c *Clock) Start(onTick func() bool) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	ticker := c.newTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				if !onTick() {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts tick delivery. A tick already being handled may still finish;
// the handler's own state guard makes that harmless.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}
