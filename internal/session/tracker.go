package session

import (
	"context"
	"time"
)

// Start begins the position sampler: a periodic task bound to the session
// lifetime that publishes the engine position to subscribers and offers each
// sample to the persistence gateway. Calling Start on a running session is a
// no-op; Close cancels the loop and flushes any pending write.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.cancel != nil || c.closed {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.sample(ctx)
}

func (c *Controller) sample(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	c.mu.Lock()
	active := c.currentIndex >= 0
	playing := c.playing
	c.mu.Unlock()
	if !active {
		return
	}

	pos := c.engine.Position()
	dur := c.engine.Duration()

	c.publish(func(s *Subscription) {
		s.sendPosition(PositionChange{Position: pos, Duration: dur})
	})

	// Only a moving position is worth offering to the deferred save path;
	// pauses already went through the immediate path.
	if playing {
		c.gateway.Offer(pos)
	}
}
