// Package clock provides ports.Clock implementations.
package clock

import "time"

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant; Advance moves it forward.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// UnixSeconds converts t to the unsigned seconds stored on disk.
func UnixSeconds(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
