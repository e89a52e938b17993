package session

import "fmt"

// RangeError reports an index outside the loaded playlist. It is recoverable:
// the offending call is a no-op.
type RangeError struct {
	Op    string
	Index int
	Size  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Size)
}
