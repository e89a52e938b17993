// Package engine defines the media engine collaborator: the component that
// actually decodes and outputs audio. The session controller only issues
// commands and mirrors confirmed results reported through the Listener.
package engine

import "time"

// RepeatMode defines the engine's repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Item is one queue entry. The engine's queue always mirrors the session's
// ordered track list exactly.
type Item struct {
	ID      string
	Locator string
}

// Listener receives engine callbacks. Callbacks may arrive on a different
// goroutine than the one issuing commands; consumers must serialize.
type Listener struct {
	OnPlayingChanged    func(playing bool)
	OnItemTransition    func(index int)
	OnRepeatModeChanged func(mode RepeatMode)
	OnShuffleChanged    func(shuffle bool)
}

// Interface is the engine contract.
type Interface interface {
	// Commands
	SetQueue(items []Item)
	SeekTo(index int, offset time.Duration)
	Play()
	Pause()
	Seek(offset time.Duration)
	Next()
	Previous()
	SetRepeatMode(mode RepeatMode)
	SetShuffle(enabled bool)

	// Queries
	HasNext() bool
	HasPrevious() bool
	Position() time.Duration
	Duration() time.Duration
	CurrentIndex() int
	IsPlaying() bool

	// Callbacks
	SetListener(l Listener)

	// Lifecycle
	Close() error
}

// Verify implementations at compile time.
var (
	_ Interface = (*Mock)(nil)
	_ Interface = (*Local)(nil)
)
