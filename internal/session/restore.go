package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhardy/cadence/internal/store"
)

// Restore re-attaches a persisted playback record to the loaded playlist:
// the engine is seeked to the remembered track and position without starting
// playback. While the restore is in flight the controller runs in
// ModeRestoring, which suppresses the track-change persistence that the
// programmatic seek would otherwise trigger; the guard clears only after the
// engine has confirmed the transition and a short settle delay has elapsed.
//
// A record whose track id is no longer in the playlist restores nothing.
func (c *Controller) Restore(rec store.PlaybackRecord) {
	if rec.LastTrackID == "" {
		return
	}

	c.mu.Lock()
	index := -1
	for i, t := range c.tracks {
		if t.ID == rec.LastTrackID {
			index = i
			break
		}
	}
	if index < 0 {
		c.mu.Unlock()
		log.Debug().Str("track", rec.LastTrackID).Msg("restore miss")
		return
	}
	c.mode = ModeRestoring
	c.currentIndex = index
	c.mu.Unlock()

	pos := time.Duration(rec.LastPositionMs) * time.Millisecond

	// The restored position counts as already persisted, so the sampler's
	// deferred path does not immediately rewrite the record it came from.
	c.gateway.MarkPersisted(pos)

	log.Info().Str("track", rec.LastTrackID).Int("index", index).
		Dur("position", pos).Msg("restoring playback state")
	c.engine.SeekTo(index, pos)

	// If the engine confirmed synchronously, the transition handler has
	// already armed the settle timer. Otherwise arm a fallback so the
	// guard cannot stay stuck on an engine that never reports.
	c.mu.Lock()
	if c.mode == ModeRestoring && c.settleTimer == nil {
		c.settleTimer = time.AfterFunc(c.opts.RestoreSettle, c.endRestore)
	}
	c.mu.Unlock()
}

// RestoreFromStore reads the persisted record and applies it.
func (c *Controller) RestoreFromStore(st Store) {
	rec, err := st.Playback()
	if err != nil {
		log.Warn().Err(err).Msg("playback record read failed")
		return
	}
	c.Restore(rec)
}
