package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lhardy/cadence/internal/engine"
	"github.com/lhardy/cadence/internal/library"
	"github.com/lhardy/cadence/internal/store"
)

func restoreTracks() []library.Track {
	tracks := make([]library.Track, 20)
	for i := range tracks {
		tracks[i] = library.Track{
			ID:      fmt.Sprintf("%d", 37+i), // id "42" lands at index 5
			Locator: fmt.Sprintf("/music/%d.mp3", 37+i),
		}
	}
	return tracks
}

func TestRestore_SeeksWithoutPersisting(t *testing.T) {
	c, eng, st := newTestController(0)
	defer c.Close()
	c.SetPlaylist(restoreTracks())

	c.Restore(store.PlaybackRecord{LastTrackID: "42", LastPositionMs: 61234})

	calls := eng.SeekToCalls()
	if len(calls) != 1 {
		t.Fatalf("SeekToCalls = %v, want one call", calls)
	}
	if calls[0].Index != 5 || calls[0].Offset != 61234*time.Millisecond {
		t.Errorf("SeekTo = %+v, want {5 61.234s}", calls[0])
	}
	if c.CurrentIndex() != 5 {
		t.Errorf("CurrentIndex() = %d, want 5", c.CurrentIndex())
	}
	if eng.IsPlaying() {
		t.Error("restore must not start playback")
	}
	if c.State() != StatePaused {
		t.Errorf("State() = %v, want Paused", c.State())
	}

	// The restore seek echoes back through the transition callback; the
	// guard must swallow the write it would normally cause.
	if st.WriteCount() != 0 {
		t.Errorf("writes = %d positions %v ids %v, want none",
			st.WriteCount(), st.Positions(), st.TrackIDs())
	}
}

func TestRestore_GuardClearsAfterSettle(t *testing.T) {
	c, _, _ := newTestController(0)
	defer c.Close()
	c.SetPlaylist(restoreTracks())

	c.Restore(store.PlaybackRecord{LastTrackID: "42", LastPositionMs: 61234})

	if c.Mode() != ModeRestoring {
		t.Fatalf("Mode() = %v, want Restoring", c.Mode())
	}

	deadline := time.Now().Add(time.Second)
	for c.Mode() != ModeNormal {
		if time.Now().After(deadline) {
			t.Fatal("guard never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRestore_TransitionAfterSettlePersistsNormally(t *testing.T) {
	c, eng, st := newTestController(0)
	defer c.Close()
	c.SetPlaylist(restoreTracks())

	c.Restore(store.PlaybackRecord{LastTrackID: "42", LastPositionMs: 61234})
	for c.Mode() != ModeNormal {
		time.Sleep(5 * time.Millisecond)
	}

	eng.SimulateFinished()

	ids := st.TrackIDs()
	if len(ids) != 1 || ids[0] != "43" {
		t.Errorf("track ids = %v, want [43]", ids)
	}
}

func TestRestore_UnknownTrackIsNoOp(t *testing.T) {
	c, eng, st := newTestController(3)
	defer c.Close()

	c.Restore(store.PlaybackRecord{LastTrackID: "gone", LastPositionMs: 5000})

	if len(eng.SeekToCalls()) != 0 {
		t.Errorf("SeekToCalls = %v, want none", eng.SeekToCalls())
	}
	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
	if c.Mode() != ModeNormal {
		t.Errorf("Mode() = %v, want Normal", c.Mode())
	}
	if st.WriteCount() != 0 {
		t.Error("nothing should have been persisted")
	}
}

func TestRestore_EmptyRecordIsNoOp(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	c.Restore(store.PlaybackRecord{})

	if len(eng.SeekToCalls()) != 0 {
		t.Errorf("SeekToCalls = %v, want none", eng.SeekToCalls())
	}
	if c.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", c.CurrentIndex())
	}
}

func TestRestore_PlayCancelsGuard(t *testing.T) {
	c, _, st := newTestController(0)
	defer c.Close()
	c.SetPlaylist(restoreTracks())

	c.Restore(store.PlaybackRecord{LastTrackID: "42", LastPositionMs: 61234})
	if err := c.Play(0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if c.Mode() != ModeNormal {
		t.Errorf("Mode() = %v, want Normal after explicit play", c.Mode())
	}
	ids := st.TrackIDs()
	if len(ids) != 1 || ids[0] != "37" {
		t.Errorf("track ids = %v, want [37]", ids)
	}
}

func TestRestore_SamplerDoesNotRewriteRestoredPosition(t *testing.T) {
	eng := engine.NewMock()
	st := &recStore{}
	c := New(eng, st, Options{
		SampleInterval: 10 * time.Millisecond,
		RestoreSettle:  10 * time.Millisecond,
	})
	defer c.Close()
	c.SetPlaylist(restoreTracks())

	c.Restore(store.PlaybackRecord{LastTrackID: "42", LastPositionMs: 61234})
	c.Start()

	// Samples at the restored position are within threshold of the marked
	// value, so the deferred path never arms.
	time.Sleep(60 * time.Millisecond)
	if st.WriteCount() != 0 {
		t.Errorf("writes = %v %v, want none", st.Positions(), st.TrackIDs())
	}
}

func TestRestoreFromStore_ReadFailureIsNoOp(t *testing.T) {
	c, eng, _ := newTestController(3)
	defer c.Close()

	c.RestoreFromStore(&recStore{err: errors.New("corrupt record")})

	if len(eng.SeekToCalls()) != 0 {
		t.Errorf("SeekToCalls = %v, want none", eng.SeekToCalls())
	}
}
