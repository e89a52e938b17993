package session

// State is the controller's derived state machine position.
//
// Empty: no playlist loaded. Loaded: a playlist is set but nothing selected
// or playback not started. Playing/Paused: sub-states of Loaded with a valid
// current index.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateLoaded:
		return "Loaded"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Mode tags whether the controller is in normal operation or replaying a
// persisted position, which suppresses track-change persistence.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRestoring
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeRestoring:
		return "Restoring"
	default:
		return "Unknown"
	}
}
