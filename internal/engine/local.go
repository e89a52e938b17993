package engine

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// Local is an engine backed by the beep speaker. It owns its queue, play
// order (shuffle) and repeat behavior, and reports transitions through the
// listener like any external engine would.
type Local struct {
	mu sync.Mutex

	queue   []Item
	order   []int // play order: identity, or a shuffled permutation
	opos    int   // position within order, -1 if nothing loaded
	repeat  RepeatMode
	shuffle bool
	playing bool

	listener Listener

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	file     *os.File

	speakerRate beep.SampleRate
	generation  int // invalidates stale finish callbacks

	finishedCh chan int // carries the generation that finished
	done       chan struct{}
	closeOnce  sync.Once
}

// NewLocal creates a local engine. Callers must Close it to release the
// output device.
func NewLocal() *Local {
	e := &Local{
		opos:       -1,
		finishedCh: make(chan int, 1),
		done:       make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Local) run() {
	for {
		select {
		case gen := <-e.finishedCh:
			e.handleFinished(gen)
		case <-e.done:
			return
		}
	}
}

func (e *Local) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

func (e *Local) SetQueue(items []Item) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = items
	e.rebuildOrderLocked()
	if e.opos >= len(items) {
		e.stopLocked()
		e.opos = -1
	}
}

func (e *Local) SeekTo(index int, offset time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.queue) {
		return
	}
	wasPlaying := e.playing
	changed := e.currentIndexLocked() != index
	if err := e.loadLocked(index, offset, wasPlaying); err != nil {
		e.emitError("seek", err)
		return
	}
	if changed {
		e.emitTransition(index)
	}
}

func (e *Local) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		// Nothing loaded yet: start at the head of the play order.
		if len(e.queue) == 0 {
			return
		}
		if err := e.loadLocked(e.order[0], 0, true); err != nil {
			e.emitError("play", err)
			return
		}
		e.emitTransition(e.currentIndexLocked())
		e.setPlayingLocked(true)
		return
	}

	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.setPlayingLocked(true)
}

func (e *Local) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.setPlayingLocked(false)
}

func (e *Local) Seek(offset time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.streamer == nil {
		return
	}
	n := e.format.SampleRate.N(offset)
	if n < 0 {
		n = 0
	}
	if n >= e.streamer.Len() {
		n = e.streamer.Len() - 1
	}
	speaker.Lock()
	if err := e.streamer.Seek(n); err != nil {
		e.emitError("seek", err)
	}
	speaker.Unlock()
}

func (e *Local) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(1)
}

func (e *Local) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(-1)
}

func (e *Local) stepLocked(delta int) {
	next := e.opos + delta
	if next < 0 || next >= len(e.order) {
		return
	}
	index := e.order[next]
	if err := e.loadLocked(index, 0, true); err != nil {
		e.emitError("transition", err)
		return
	}
	e.emitTransition(index)
	e.setPlayingLocked(true)
}

func (e *Local) SetRepeatMode(mode RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.repeat == mode {
		return
	}
	e.repeat = mode
	if e.listener.OnRepeatModeChanged != nil {
		e.listener.OnRepeatModeChanged(mode)
	}
}

func (e *Local) SetShuffle(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shuffle == enabled {
		return
	}
	e.shuffle = enabled
	e.rebuildOrderLocked()
	if e.listener.OnShuffleChanged != nil {
		e.listener.OnShuffleChanged(enabled)
	}
}

func (e *Local) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opos >= 0 && e.opos < len(e.order)-1
}

func (e *Local) HasPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opos > 0
}

func (e *Local) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Position())
}

func (e *Local) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len())
}

func (e *Local) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIndexLocked()
}

func (e *Local) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Local) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *Local) currentIndexLocked() int {
	if e.opos < 0 || e.opos >= len(e.order) {
		return -1
	}
	return e.order[e.opos]
}

func (e *Local) rebuildOrderLocked() {
	current := e.currentIndexLocked()

	e.order = make([]int, len(e.queue))
	for i := range e.order {
		e.order[i] = i
	}
	if e.shuffle {
		rand.Shuffle(len(e.order), func(i, j int) {
			e.order[i], e.order[j] = e.order[j], e.order[i]
		})
		// The playing track moves to the front so it keeps playing and
		// the rest of the order follows from it.
		if current >= 0 {
			for i, idx := range e.order {
				if idx == current {
					e.order[0], e.order[i] = e.order[i], e.order[0]
					break
				}
			}
		}
	}

	e.opos = -1
	if current >= 0 {
		for i, idx := range e.order {
			if idx == current {
				e.opos = i
				break
			}
		}
	}
}

// loadLocked opens and decodes the item at the given queue index, seeks to
// offset and starts the speaker, paused unless startPlaying.
func (e *Local) loadLocked(index int, offset time.Duration, startPlaying bool) error {
	item := e.queue[index]

	f, err := os.Open(item.Locator)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(item.Locator)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return err
	}

	if e.speakerRate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			f.Close()
			return err
		}
		e.speakerRate = format.SampleRate
	}

	e.stopStreamLocked()

	if offset > 0 {
		n := format.SampleRate.N(offset)
		if n >= streamer.Len() {
			n = streamer.Len() - 1
		}
		if err := streamer.Seek(n); err != nil {
			streamer.Close()
			f.Close()
			return err
		}
	}

	e.file = f
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: streamer, Paused: !startPlaying}
	e.generation++
	gen := e.generation

	var out beep.Streamer = e.ctrl
	if format.SampleRate != e.speakerRate {
		out = beep.Resample(4, format.SampleRate, e.speakerRate, e.ctrl)
	}

	// The finish callback runs on the speaker goroutine; defer the actual
	// advancement to the run loop.
	speaker.Play(beep.Seq(out, beep.Callback(func() {
		select {
		case e.finishedCh <- gen:
		default:
		}
	})))

	// Point the play order at the loaded index.
	for i, idx := range e.order {
		if idx == index {
			e.opos = i
			break
		}
	}
	return nil
}

// stopStreamLocked tears down the current stream without touching the queue.
func (e *Local) stopStreamLocked() {
	if e.speakerRate != 0 {
		speaker.Clear()
	}
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.ctrl = nil
}

func (e *Local) stopLocked() {
	e.stopStreamLocked()
	e.setPlayingLocked(false)
}

func (e *Local) handleFinished(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		return // a newer load superseded this stream
	}

	switch {
	case e.repeat == RepeatOne:
		index := e.currentIndexLocked()
		if index < 0 {
			return
		}
		if err := e.loadLocked(index, 0, true); err != nil {
			e.emitError("repeat", err)
		}
	case e.opos < len(e.order)-1:
		e.stepLocked(1)
	case e.repeat == RepeatAll && len(e.order) > 0:
		index := e.order[0]
		if err := e.loadLocked(index, 0, true); err != nil {
			e.emitError("repeat", err)
			return
		}
		e.emitTransition(index)
	default:
		e.setPlayingLocked(false)
	}
}

func (e *Local) setPlayingLocked(playing bool) {
	if e.playing == playing {
		return
	}
	e.playing = playing
	if e.listener.OnPlayingChanged != nil {
		l := e.listener.OnPlayingChanged
		go l(playing)
	}
}

func (e *Local) emitTransition(index int) {
	if e.listener.OnItemTransition != nil {
		l := e.listener.OnItemTransition
		go l(index)
	}
}

func (e *Local) emitError(op string, err error) {
	log.Warn().Err(err).Str("operation", op).Msg("engine error")
}
