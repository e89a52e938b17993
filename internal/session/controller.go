// Package session owns the playback session: the controller state machine,
// the position sampler and the persistence of "where the user was".
//
// The controller is the single authoritative owner of the loaded playlist,
// the current index and the engine-confirmed runtime flags. Commands and
// engine callbacks both funnel through its mutex; engine commands themselves
// are issued outside the lock so confirmations can arrive on any goroutine.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhardy/cadence/internal/engine"
	"github.com/lhardy/cadence/internal/library"
)

// Reference tuning values, overridable through Options.
const (
	DefaultSampleInterval = 500 * time.Millisecond
	DefaultSaveThreshold  = 5 * time.Second
	DefaultSaveDebounce   = 5 * time.Second
	DefaultRestoreSettle  = 200 * time.Millisecond
)

// Options tunes the session timers.
type Options struct {
	SampleInterval time.Duration
	SaveThreshold  time.Duration
	SaveDebounce   time.Duration
	RestoreSettle  time.Duration
}

func (o Options) withDefaults() Options {
	if o.SampleInterval <= 0 {
		o.SampleInterval = DefaultSampleInterval
	}
	if o.SaveThreshold <= 0 {
		o.SaveThreshold = DefaultSaveThreshold
	}
	if o.SaveDebounce <= 0 {
		o.SaveDebounce = DefaultSaveDebounce
	}
	if o.RestoreSettle <= 0 {
		o.RestoreSettle = DefaultRestoreSettle
	}
	return o
}

// Controller drives the engine and keeps the session state consistent with
// what the engine confirms.
type Controller struct {
	mu sync.Mutex

	engine  engine.Interface
	gateway *Gateway
	opts    Options

	tracks       []library.Track
	currentIndex int
	playing      bool
	repeat       engine.RepeatMode
	shuffle      bool
	mode         Mode

	settleTimer *time.Timer
	cancel      context.CancelFunc

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// New creates a controller over the given engine and store.
func New(eng engine.Interface, st Store, opts Options) *Controller {
	opts = opts.withDefaults()
	c := &Controller{
		engine:       eng,
		gateway:      NewGateway(st, opts.SaveThreshold, opts.SaveDebounce),
		opts:         opts,
		currentIndex: -1,
	}
	eng.SetListener(engine.Listener{
		OnPlayingChanged:    c.onPlayingChanged,
		OnItemTransition:    c.onItemTransition,
		OnRepeatModeChanged: c.onRepeatModeChanged,
		OnShuffleChanged:    c.onShuffleChanged,
	})
	return c
}

// SetPlaylist replaces the engine queue so it mirrors tracks exactly. A queue
// identical in content is left alone, so re-selecting the same listing never
// interrupts playback.
func (c *Controller) SetPlaylist(tracks []library.Track) {
	snapshot := make([]library.Track, len(tracks))
	copy(snapshot, tracks)

	c.mu.Lock()
	same := sameContent(c.tracks, snapshot)
	c.tracks = snapshot
	c.mu.Unlock()

	if same {
		return
	}

	items := make([]engine.Item, len(snapshot))
	for i, t := range snapshot {
		items[i] = engine.Item{ID: t.ID, Locator: t.Locator}
	}
	c.engine.SetQueue(items)
	c.engine.Pause()

	index := c.engine.CurrentIndex()
	c.mu.Lock()
	if index >= len(snapshot) {
		index = -1
	}
	c.currentIndex = index
	c.mu.Unlock()

	log.Debug().Int("tracks", len(snapshot)).Msg("playlist set")
	c.publish(func(s *Subscription) {
		s.sendQueue(QueueChange{Tracks: snapshot, Index: index})
	})
}

// Play starts playback of the track at index. An invalid index is a no-op,
// reported as a RangeError. This is the only operation that establishes a
// valid index from -1.
func (c *Controller) Play(index int) error {
	c.mu.Lock()
	size := len(c.tracks)
	if index < 0 || index >= size {
		c.mu.Unlock()
		err := &RangeError{Op: "play", Index: index, Size: size}
		c.publish(func(s *Subscription) {
			s.sendError(ErrorEvent{Operation: "play", Err: err})
		})
		return err
	}
	c.clearRestoreLocked()
	prevIndex := c.currentIndex
	prev := c.trackAtLocked(prevIndex)
	c.currentIndex = index
	track := c.tracks[index]
	c.mu.Unlock()

	log.Info().Int("index", index).Str("track", track.ID).Msg("play")
	c.engine.SeekTo(index, 0)
	c.engine.Play()

	// Track id and position zero are written as one logical step, so a
	// restored reader never pairs the new id with a stale position.
	c.gateway.RecordTrackChange(track.ID)

	c.publish(func(s *Subscription) {
		s.sendTrack(TrackChange{
			Previous:      prev,
			Current:       &track,
			PreviousIndex: prevIndex,
			Index:         index,
		})
	})
	return nil
}

// Pause pauses the engine and persists the position immediately.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	log.Info().Msg("pause")
	c.engine.Pause()
	c.gateway.SaveNow(c.engine.Position())
}

// Resume resumes playback. No-op when nothing is selected.
func (c *Controller) Resume() {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	log.Info().Msg("resume")
	c.engine.Play()
}

// SeekTo seeks within the current track, clamped to [0, duration]. An engine
// that resumes as a side effect of seeking is explicitly re-paused. The
// resulting position is persisted immediately.
func (c *Controller) SeekTo(pos time.Duration) {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if pos < 0 {
		pos = 0
	}
	if dur := c.engine.Duration(); dur > 0 && pos > dur {
		pos = dur
	}

	wasPlaying := c.engine.IsPlaying()
	c.engine.Seek(pos)
	if !wasPlaying && c.engine.IsPlaying() {
		c.engine.Pause()
	}

	c.gateway.SaveNow(pos)
	c.publish(func(s *Subscription) {
		s.sendPosition(PositionChange{Position: pos, Duration: c.engine.Duration()})
	})
}

// Next advances to the next item and ensures playback. No-op when the engine
// has no next item.
func (c *Controller) Next() {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.engine.HasNext() {
		return
	}
	log.Info().Msg("next")
	c.engine.Next()
	c.engine.Play()
}

// Previous moves to the previous item and ensures playback. No-op when the
// engine has no previous item.
func (c *Controller) Previous() {
	c.mu.Lock()
	if c.currentIndex < 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.engine.HasPrevious() {
		return
	}
	log.Info().Msg("previous")
	c.engine.Previous()
	c.engine.Play()
}

// ToggleRepeatMode cycles Off, All, One. Entering One disables shuffle; the
// two are mutually exclusive there, otherwise "repeat one track" is ambiguous
// under a randomized order.
func (c *Controller) ToggleRepeatMode() engine.RepeatMode {
	c.mu.Lock()
	current := c.repeat
	shuffle := c.shuffle
	c.mu.Unlock()

	var next engine.RepeatMode
	switch current {
	case engine.RepeatOff:
		next = engine.RepeatAll
	case engine.RepeatAll:
		next = engine.RepeatOne
	default:
		next = engine.RepeatOff
	}

	c.engine.SetRepeatMode(next)
	if next == engine.RepeatOne && shuffle {
		c.engine.SetShuffle(false)
	}
	return next
}

// ToggleShuffleMode flips the shuffle flag.
func (c *Controller) ToggleShuffleMode() bool {
	c.mu.Lock()
	next := !c.shuffle
	c.mu.Unlock()

	c.engine.SetShuffle(next)
	return next
}

// CurrentTrack returns the current track derived from the loaded playlist
// and index, or nil when nothing is selected.
func (c *Controller) CurrentTrack() *library.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trackAtLocked(c.currentIndex)
}

// Tracks returns a copy of the loaded playlist.
func (c *Controller) Tracks() []library.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]library.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// CurrentIndex returns the current index, -1 when nothing is selected.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentIndex
}

// IsPlaying reports the engine-confirmed playing flag.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// RepeatMode reports the engine-confirmed repeat mode.
func (c *Controller) RepeatMode() engine.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

// Shuffle reports the engine-confirmed shuffle flag.
func (c *Controller) Shuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuffle
}

// Mode reports whether the controller is restoring a persisted position.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State derives the state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case len(c.tracks) == 0:
		return StateEmpty
	case c.currentIndex < 0:
		return StateLoaded
	case c.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Position returns the engine's current position.
func (c *Controller) Position() time.Duration {
	return c.engine.Position()
}

// Duration returns the engine's current track duration.
func (c *Controller) Duration() time.Duration {
	return c.engine.Duration()
}

// Subscribe creates a new event subscription.
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	c.subs = append(c.subs, sub)
	return sub
}

// Close stops the sampler, flushes any pending debounced write and closes all
// subscriptions. The engine is left to its owner.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.cancel = nil
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.gateway.Flush()

	c.subsMu.Lock()
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()
	return nil
}

// Engine callbacks. These may arrive on any goroutine.

func (c *Controller) onPlayingChanged(playing bool) {
	c.mu.Lock()
	if c.playing == playing {
		c.mu.Unlock()
		return
	}
	c.playing = playing
	c.mu.Unlock()

	c.publish(func(s *Subscription) {
		s.sendState(StateChange{Playing: playing})
	})
}

func (c *Controller) onItemTransition(index int) {
	c.mu.Lock()

	if c.mode == ModeRestoring {
		// This transition is the echo of the restore seek. Suppress the
		// track-id write it would normally trigger and start the settle
		// window; the engine may still be reporting asynchronously.
		c.currentIndex = index
		if c.settleTimer != nil {
			c.settleTimer.Stop()
		}
		c.settleTimer = time.AfterFunc(c.opts.RestoreSettle, c.endRestore)
		c.mu.Unlock()
		return
	}

	prevIndex := c.currentIndex
	if index == prevIndex {
		// Confirmation of a command already recorded by Play.
		c.mu.Unlock()
		return
	}
	prev := c.trackAtLocked(prevIndex)
	c.currentIndex = index
	cur := c.trackAtLocked(index)
	c.mu.Unlock()

	if cur != nil {
		c.gateway.RecordTrackChange(cur.ID)
	}
	c.publish(func(s *Subscription) {
		s.sendTrack(TrackChange{
			Previous:      prev,
			Current:       cur,
			PreviousIndex: prevIndex,
			Index:         index,
		})
	})
}

func (c *Controller) onRepeatModeChanged(mode engine.RepeatMode) {
	c.mu.Lock()
	c.repeat = mode
	shuffle := c.shuffle
	c.mu.Unlock()

	c.publish(func(s *Subscription) {
		s.sendMode(ModeChange{RepeatMode: mode, Shuffle: shuffle})
	})
}

func (c *Controller) onShuffleChanged(shuffle bool) {
	c.mu.Lock()
	c.shuffle = shuffle
	repeat := c.repeat
	c.mu.Unlock()

	c.publish(func(s *Subscription) {
		s.sendMode(ModeChange{RepeatMode: repeat, Shuffle: shuffle})
	})
}

// Internal helpers.

func (c *Controller) trackAtLocked(index int) *library.Track {
	if index < 0 || index >= len(c.tracks) {
		return nil
	}
	t := c.tracks[index]
	return &t
}

func (c *Controller) clearRestoreLocked() {
	c.mode = ModeNormal
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *Controller) endRestore() {
	c.mu.Lock()
	c.mode = ModeNormal
	c.settleTimer = nil
	c.mu.Unlock()
}

func (c *Controller) publish(send func(*Subscription)) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	for _, sub := range c.subs {
		send(sub)
	}
}

func sameContent(a, b []library.Track) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return len(a) > 0
}
