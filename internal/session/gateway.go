package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhardy/cadence/internal/store"
)

// Store is the persistence surface the session needs: the single playback
// record, read on boot and overwritten in place during a session.
type Store interface {
	Playback() (store.PlaybackRecord, error)
	SavePosition(positionMs int64) error
	SaveTrackID(trackID string) error
}

// Gateway applies the write policy for the playback record.
//
// Sampled positions go through the deferred path: a sample only becomes a
// candidate when it differs from the last persisted position by more than the
// threshold, and is then held until no newer candidate arrives for the
// debounce window. Pause, seek and track change use the immediate path,
// because those are the moments the process is most likely to die next.
//
// Write failures are logged and swallowed; the next save supersedes them.
type Gateway struct {
	store     Store
	threshold time.Duration
	debounce  time.Duration

	mu            sync.Mutex
	lastPersisted time.Duration
	pending       *time.Duration
	timer         *time.Timer
}

// NewGateway creates a gateway over the given store.
func NewGateway(st Store, threshold, debounce time.Duration) *Gateway {
	return &Gateway{
		store:     st,
		threshold: threshold,
		debounce:  debounce,
	}
}

// Offer feeds one sampled position to the deferred path. It never performs
// I/O itself, so the sampler loop is never blocked by a write.
func (g *Gateway) Offer(pos time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delta := pos - g.lastPersisted
	if delta < 0 {
		delta = -delta
	}
	if delta <= g.threshold {
		return
	}

	g.pending = &pos
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.debounce, g.flushPending)
}

func (g *Gateway) flushPending() {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending != nil {
		g.writePosition(*pending)
	}
}

// SaveNow writes a position immediately, bypassing and cancelling any pending
// debounced write.
func (g *Gateway) SaveNow(pos time.Duration) {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.pending = nil
	g.mu.Unlock()

	g.writePosition(pos)
}

// RecordTrackChange persists a confirmed track transition: the track id and a
// position of zero, written at the same logical step so a restored reader
// never sees the new id paired with the previous track's position.
func (g *Gateway) RecordTrackChange(trackID string) {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.pending = nil
	g.mu.Unlock()

	if err := g.store.SaveTrackID(trackID); err != nil {
		log.Warn().Err(err).Str("track", trackID).Msg("track id save failed")
	}
	g.writePosition(0)
}

// Flush writes any pending debounced candidate immediately. Called when the
// session stops so a held position is not dropped silently.
func (g *Gateway) Flush() {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
	}
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	if pending != nil {
		g.writePosition(*pending)
	}
}

// MarkPersisted records a position as already persisted without writing,
// used when restoring so the restored position is not immediately re-saved.
func (g *Gateway) MarkPersisted(pos time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastPersisted = pos
}

func (g *Gateway) writePosition(pos time.Duration) {
	if err := g.store.SavePosition(pos.Milliseconds()); err != nil {
		log.Warn().Err(err).Dur("position", pos).Msg("position save failed")
		return
	}
	g.mu.Lock()
	g.lastPersisted = pos
	g.mu.Unlock()
}
