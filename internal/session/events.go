package session

import (
	"time"

	"github.com/lhardy/cadence/internal/engine"
	"github.com/lhardy/cadence/internal/library"
)

// StateChange is emitted when the playing flag confirmed by the engine flips.
type StateChange struct {
	Playing bool
}

// TrackChange is emitted on a confirmed track transition.
type TrackChange struct {
	Previous      *library.Track
	Current       *library.Track
	PreviousIndex int
	Index         int
}

// PositionChange is emitted by the sampler on every tick of an active
// session.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// QueueChange is emitted when the loaded playlist is replaced.
type QueueChange struct {
	Tracks []library.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	RepeatMode engine.RepeatMode
	Shuffle    bool
}

// ErrorEvent is emitted for recoverable errors, e.g. rejected indexes.
type ErrorEvent struct {
	Operation string
	Err       error
}
