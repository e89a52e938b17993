package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lhardy/cadence/internal/engine"
	"github.com/lhardy/cadence/internal/library"
	"github.com/lhardy/cadence/internal/store"
)

// recStore records playback writes for assertions.
type recStore struct {
	mu        sync.Mutex
	record    store.PlaybackRecord
	positions []int64
	trackIDs  []string
	err       error
}

func (s *recStore) Playback() (store.PlaybackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, s.err
}

func (s *recStore) SavePosition(positionMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.positions = append(s.positions, positionMs)
	return nil
}

func (s *recStore) SaveTrackID(trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.trackIDs = append(s.trackIDs, trackID)
	return nil
}

func (s *recStore) Positions() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.positions))
	copy(out, s.positions)
	return out
}

func (s *recStore) TrackIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.trackIDs))
	copy(out, s.trackIDs)
	return out
}

func (s *recStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions) + len(s.trackIDs)
}

func testTracks(n int) []library.Track {
	tracks := make([]library.Track, n)
	for i := range tracks {
		tracks[i] = library.Track{
			ID:      string(rune('0' + i)),
			Locator: "/music/" + string(rune('0'+i)) + ".mp3",
			Title:   "Track " + string(rune('0'+i)),
		}
	}
	return tracks
}

func newTestController(n int) (*Controller, *engine.Mock, *recStore) {
	eng := engine.NewMock()
	st := &recStore{}
	c := New(eng, st, Options{RestoreSettle: 20 * time.Millisecond})
	if n > 0 {
		c.SetPlaylist(testTracks(n))
	}
	return c, eng, st
}

func TestController_InitialState(t *testing.T) {
	c, _, _ := newTestController(0)
	defer c.Close()

	if c.State() != StateEmpty {
		t.Errorf("State() = %v, want Empty", c.State())
	}
	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
	if c.CurrentTrack() != nil {
		t.Error("CurrentTrack() should be nil")
	}
}

func TestSetPlaylist_MirrorsQueueExactly(t *testing.T) {
	c, eng, _ := newTestController(0)
	defer c.Close()

	tracks := testTracks(3)
	c.SetPlaylist(tracks)

	queue := eng.Queue()
	if len(queue) != 3 {
		t.Fatalf("queue len = %d, want 3", len(queue))
	}
	for i, item := range queue {
		if item.ID != tracks[i].ID || item.Locator != tracks[i].Locator {
			t.Errorf("queue[%d] = %+v, want %+v", i, item, tracks[i])
		}
	}
	if c.State() != StateLoaded {
		t.Errorf("State() = %v, want Loaded", c.State())
	}
}

func TestSetPlaylist_IdenticalContentSkipsReload(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	before := len(eng.SetQueueCalls())
	c.SetPlaylist(testTracks(3))

	if got := len(eng.SetQueueCalls()); got != before {
		t.Errorf("SetQueue called %d times, want %d (no reload)", got, before)
	}
}

func TestSetPlaylist_DifferentContentReloads(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	before := len(eng.SetQueueCalls())
	c.SetPlaylist(testTracks(5))

	if got := len(eng.SetQueueCalls()); got != before+1 {
		t.Errorf("SetQueue called %d times, want %d", got, before+1)
	}
}

func TestPlay_SeeksToStartAndPersists(t *testing.T) {
	c, eng, st := newTestController(5)
	defer c.Close()

	if err := c.Play(2); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	calls := eng.SeekToCalls()
	if len(calls) != 1 || calls[0].Index != 2 || calls[0].Offset != 0 {
		t.Errorf("SeekToCalls = %+v, want [{2 0}]", calls)
	}
	if !eng.IsPlaying() {
		t.Error("engine should be playing")
	}
	if c.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2", c.CurrentIndex())
	}

	ids := st.TrackIDs()
	if len(ids) != 1 || ids[0] != "2" {
		t.Errorf("persisted track ids = %v, want [2]", ids)
	}
	positions := st.Positions()
	if len(positions) != 1 || positions[0] != 0 {
		t.Errorf("persisted positions = %v, want [0]", positions)
	}
}

func TestPlay_InvalidIndexIsRangeErrorNoOp(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	err := c.Play(7)

	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("err = %v, want RangeError", err)
	}
	if len(eng.SeekToCalls()) != 0 || eng.PlayCalls() != 0 {
		t.Error("engine should not have been commanded")
	}
	if st.WriteCount() != 0 {
		t.Error("nothing should have been persisted")
	}
	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
}

func TestPlay_EstablishesIndexFromNothingLoaded(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	// Everything but Play is a no-op while nothing is selected.
	c.Pause()
	c.Resume()
	c.Next()
	c.Previous()
	c.SeekTo(10 * time.Second)
	if c.CurrentIndex() != -1 {
		t.Fatalf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if c.State() != StatePlaying {
		t.Errorf("State() = %v, want Playing", c.State())
	}
}

func TestPause_PersistsPositionImmediately(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	eng.SetPosition(42 * time.Second)

	c.Pause()

	if eng.IsPlaying() {
		t.Error("engine should be paused")
	}
	positions := st.Positions()
	if len(positions) == 0 || positions[len(positions)-1] != 42000 {
		t.Errorf("positions = %v, want trailing 42000", positions)
	}
	if c.State() != StatePaused {
		t.Errorf("State() = %v, want Paused", c.State())
	}
}

func TestSeekTo_ClampsToDuration(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	eng.SetDuration(3 * time.Minute)

	c.SeekTo(10 * time.Minute)

	calls := eng.SeekCalls()
	if len(calls) != 1 || calls[0] != 3*time.Minute {
		t.Errorf("SeekCalls = %v, want [3m]", calls)
	}

	c.SeekTo(-5 * time.Second)
	calls = eng.SeekCalls()
	if calls[len(calls)-1] != 0 {
		t.Errorf("negative seek should clamp to 0, got %v", calls[len(calls)-1])
	}

	positions := st.Positions()
	if positions[len(positions)-1] != 0 {
		t.Errorf("positions = %v, want trailing 0", positions)
	}
}

func TestSeekTo_RePausesResumeOnSeekEngine(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	eng.SetDuration(3 * time.Minute)
	c.Pause()
	eng.SetAutoResumeOnSeek(true)

	c.SeekTo(30 * time.Second)

	if eng.IsPlaying() {
		t.Error("engine must not be left playing after a paused seek")
	}
	if c.IsPlaying() {
		t.Error("controller must mirror the re-pause")
	}
}

func TestSeekTo_PlayingEngineKeepsPlaying(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	eng.SetDuration(3 * time.Minute)

	c.SeekTo(30 * time.Second)

	if !eng.IsPlaying() {
		t.Error("engine should still be playing")
	}
}

func TestNext_AdvancesAndPersistsTransition(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	c.Next()

	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", c.CurrentIndex())
	}
	if !eng.IsPlaying() {
		t.Error("engine should be playing after Next")
	}

	ids := st.TrackIDs()
	if len(ids) != 2 || ids[1] != "1" {
		t.Errorf("persisted track ids = %v, want [0 1]", ids)
	}
}

func TestNext_NoOpAtEndOfQueue(t *testing.T) {
	c, eng, _ := newTestController(2)
	defer c.Close()

	if err := c.Play(1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	c.Next()

	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1 (no next item)", c.CurrentIndex())
	}
	if eng.SeekToCalls()[len(eng.SeekToCalls())-1].Index != 1 {
		t.Error("engine should not have advanced")
	}
}

func TestPrevious_NoOpAtStartOfQueue(t *testing.T) {
	c, _, _ := newTestController(2)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	c.Previous()

	if c.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", c.CurrentIndex())
	}
}

func TestToggleRepeatMode_CyclesBackToOff(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	modes := []engine.RepeatMode{
		c.ToggleRepeatMode(),
		c.ToggleRepeatMode(),
		c.ToggleRepeatMode(),
	}

	want := []engine.RepeatMode{engine.RepeatAll, engine.RepeatOne, engine.RepeatOff}
	for i := range want {
		if modes[i] != want[i] {
			t.Errorf("toggle %d = %v, want %v", i, modes[i], want[i])
		}
	}
	if c.RepeatMode() != engine.RepeatOff {
		t.Errorf("RepeatMode() = %v, want Off", c.RepeatMode())
	}
}

func TestToggleRepeatMode_EnteringOneDisablesShuffle(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	c.ToggleShuffleMode()
	if !c.Shuffle() {
		t.Fatal("shuffle should be on")
	}

	c.ToggleRepeatMode() // All
	if !c.Shuffle() {
		t.Error("entering All must not touch shuffle")
	}

	c.ToggleRepeatMode() // One
	if c.Shuffle() {
		t.Error("entering One must disable shuffle")
	}
	if c.RepeatMode() != engine.RepeatOne {
		t.Errorf("RepeatMode() = %v, want One", c.RepeatMode())
	}
}

func TestToggleShuffleMode_AllowedWhileRepeatOne(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	c.ToggleRepeatMode() // All
	c.ToggleRepeatMode() // One

	c.ToggleShuffleMode()

	// Only entering One clears shuffle; the reverse is not constrained.
	if !c.Shuffle() {
		t.Error("shuffle should be on")
	}
	if c.RepeatMode() != engine.RepeatOne {
		t.Errorf("RepeatMode() = %v, want One", c.RepeatMode())
	}
}

func TestCurrentTrack_DerivedFromIndex(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	if err := c.Play(1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	track := c.CurrentTrack()
	if track == nil || track.ID != "1" {
		t.Errorf("CurrentTrack() = %+v, want track 1", track)
	}
}

func TestEngineTransition_UpdatesControllerState(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	// Track finishes; engine advances on its own and reports.
	eng.SimulateFinished()

	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", c.CurrentIndex())
	}
	ids := st.TrackIDs()
	if len(ids) != 2 || ids[1] != "1" {
		t.Errorf("persisted track ids = %v, want transition write", ids)
	}
}

func TestSubscription_ReceivesTrackChange(t *testing.T) {
	c, _, _ := newTestController(3)
	defer c.Close()

	sub := c.Subscribe()

	if err := c.Play(2); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	select {
	case e := <-sub.TrackChanged:
		if e.Index != 2 || e.Current == nil || e.Current.ID != "2" {
			t.Errorf("TrackChange = %+v, want index 2", e)
		}
		if e.PreviousIndex != -1 {
			t.Errorf("PreviousIndex = %d, want -1", e.PreviousIndex)
		}
	default:
		t.Fatal("no TrackChange event")
	}
}

func TestPersistenceFailure_DoesNotBreakPlayback(t *testing.T) {
	eng := engine.NewMock()
	st := &recStore{err: errors.New("disk full")}
	c := New(eng, st, Options{})
	defer c.Close()

	c.SetPlaylist(testTracks(3))
	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if !eng.IsPlaying() {
		t.Error("playback must remain usable without persistence")
	}
	c.Pause()
	c.Resume()
	if !eng.IsPlaying() {
		t.Error("resume should work")
	}
}
