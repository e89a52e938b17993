package engine

import "time"

// SeekToCall records one SeekTo command issued to the mock.
type SeekToCall struct {
	Index  int
	Offset time.Duration
}

// Mock is a test double for the engine. Commands mutate its state and fire
// listener callbacks synchronously, which mirrors an engine confirming each
// command. Tests can also fire callbacks directly to simulate spontaneous
// engine activity.
type Mock struct {
	queue    []Item
	index    int
	playing  bool
	repeat   RepeatMode
	shuffle  bool
	position time.Duration
	duration time.Duration
	listener Listener

	// autoResumeOnSeek simulates engines that start playback as a side
	// effect of seeking.
	autoResumeOnSeek bool

	// Recorded calls
	setQueueCalls [][]Item
	seekToCalls   []SeekToCall
	seekCalls     []time.Duration
	playCalls     int
	pauseCalls    int
}

// NewMock creates a new mock engine.
func NewMock() *Mock {
	return &Mock{index: -1}
}

func (m *Mock) SetQueue(items []Item) {
	m.setQueueCalls = append(m.setQueueCalls, items)
	m.queue = items
	if m.index >= len(items) {
		m.index = len(items) - 1
	}
}

func (m *Mock) SeekTo(index int, offset time.Duration) {
	m.seekToCalls = append(m.seekToCalls, SeekToCall{Index: index, Offset: offset})
	if index < 0 || index >= len(m.queue) {
		return
	}
	changed := m.index != index
	m.index = index
	m.position = offset
	if changed && m.listener.OnItemTransition != nil {
		m.listener.OnItemTransition(index)
	}
	if m.autoResumeOnSeek {
		m.setPlaying(true)
	}
}

func (m *Mock) Play() {
	m.playCalls++
	m.setPlaying(true)
}

func (m *Mock) Pause() {
	m.pauseCalls++
	m.setPlaying(false)
}

func (m *Mock) Seek(offset time.Duration) {
	m.seekCalls = append(m.seekCalls, offset)
	m.position = offset
	if m.autoResumeOnSeek {
		m.setPlaying(true)
	}
}

func (m *Mock) Next() {
	if !m.HasNext() {
		return
	}
	m.index++
	m.position = 0
	if m.listener.OnItemTransition != nil {
		m.listener.OnItemTransition(m.index)
	}
}

func (m *Mock) Previous() {
	if !m.HasPrevious() {
		return
	}
	m.index--
	m.position = 0
	if m.listener.OnItemTransition != nil {
		m.listener.OnItemTransition(m.index)
	}
}

func (m *Mock) SetRepeatMode(mode RepeatMode) {
	m.repeat = mode
	if m.listener.OnRepeatModeChanged != nil {
		m.listener.OnRepeatModeChanged(mode)
	}
}

func (m *Mock) SetShuffle(enabled bool) {
	m.shuffle = enabled
	if m.listener.OnShuffleChanged != nil {
		m.listener.OnShuffleChanged(enabled)
	}
}

func (m *Mock) HasNext() bool {
	return m.index >= 0 && m.index < len(m.queue)-1
}

func (m *Mock) HasPrevious() bool {
	return m.index > 0
}

func (m *Mock) Position() time.Duration { return m.position }

func (m *Mock) Duration() time.Duration { return m.duration }

func (m *Mock) CurrentIndex() int { return m.index }

func (m *Mock) IsPlaying() bool { return m.playing }

func (m *Mock) SetListener(l Listener) { m.listener = l }

func (m *Mock) Close() error { return nil }

func (m *Mock) setPlaying(playing bool) {
	if m.playing == playing {
		return
	}
	m.playing = playing
	if m.listener.OnPlayingChanged != nil {
		m.listener.OnPlayingChanged(playing)
	}
}

// Test helpers

func (m *Mock) SetPosition(d time.Duration) { m.position = d }

func (m *Mock) SetDuration(d time.Duration) { m.duration = d }

func (m *Mock) SetAutoResumeOnSeek(v bool) { m.autoResumeOnSeek = v }

func (m *Mock) Queue() []Item { return m.queue }

func (m *Mock) SetQueueCalls() [][]Item { return m.setQueueCalls }

func (m *Mock) SeekToCalls() []SeekToCall { return m.seekToCalls }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

func (m *Mock) PlayCalls() int { return m.playCalls }

func (m *Mock) PauseCalls() int { return m.pauseCalls }

// SimulateFinished simulates the current track ending: the engine advances to
// the next item on its own and reports the transition.
func (m *Mock) SimulateFinished() {
	switch {
	case m.repeat == RepeatOne:
		m.position = 0
	case m.HasNext():
		m.Next()
	case m.repeat == RepeatAll && len(m.queue) > 0:
		m.index = 0
		m.position = 0
		if m.listener.OnItemTransition != nil {
			m.listener.OnItemTransition(0)
		}
	default:
		m.setPlaying(false)
	}
}
