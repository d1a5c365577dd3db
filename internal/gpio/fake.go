package gpio

import (
	"sync"
	"time"

	"github.com/amelia-cook/BME-Project/internal/logic"
)

// Write records a single output pin write and the level it resulted in.
type Write struct {
	Output logic.Output
	Level  bool
	Time   time.Time
}

// FakeBoard is a test double that records output writes and lets tests
// script button presses. If Clock is set, writes are stamped with its value.
type FakeBoard struct {
	// Clock, if non-nil, supplies timestamps for recorded writes.
	Clock func() time.Time

	// SetError, if set, is returned by SetOutput and ToggleOutput.
	SetError error

	mu      sync.Mutex
	levels  map[logic.Output]bool
	writes  []Write
	latches Latches
	closed  bool
}

// NewFakeBoard creates a FakeBoard with all outputs low and all buttons
// masked, matching real hardware before INIT runs.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{levels: make(map[logic.Output]bool)}
}

// SetOutput records the write and the new level.
func (f *FakeBoard) SetOutput(o logic.Output, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[o] = on
	f.writes = append(f.writes, Write{Output: o, Level: on, Time: f.now()})
	return nil
}

// ToggleOutput inverts the recorded level.
func (f *FakeBoard) ToggleOutput(o logic.Output) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[o] = !f.levels[o]
	f.writes = append(f.writes, Write{Output: o, Level: f.levels[o], Time: f.now()})
	return nil
}

// EnableInterrupt arms a button.
func (f *FakeBoard) EnableInterrupt(b logic.Button) error {
	f.latches.SetEnabled(b, true)
	return nil
}

// DisableInterrupt masks a button.
func (f *FakeBoard) DisableInterrupt(b logic.Button) error {
	f.latches.SetEnabled(b, false)
	return nil
}

// Drain returns the pending edge events and clears them.
func (f *FakeBoard) Drain() logic.Events {
	return f.latches.Drain()
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Press simulates a button press. Masked buttons are dropped, as on real
// hardware.
func (f *FakeBoard) Press(b logic.Button) {
	f.latches.Press(b)
}

// InterruptEnabled reports whether a button is armed.
func (f *FakeBoard) InterruptEnabled(b logic.Button) bool {
	return f.latches.Enabled(b)
}

// Level returns the current recorded level of an output.
func (f *FakeBoard) Level(o logic.Output) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[o]
}

// Writes returns a copy of all recorded writes.
func (f *FakeBoard) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// WritesFor returns a copy of the recorded writes for one output.
func (f *FakeBoard) WritesFor(o logic.Output) []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Write
	for _, w := range f.writes {
		if w.Output == o {
			out = append(out, w)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (f *FakeBoard) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ResetWrites clears the recorded writes, keeping levels and latches.
func (f *FakeBoard) ResetWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = nil
}

func (f *FakeBoard) now() time.Time {
	if f.Clock != nil {
		return f.Clock()
	}
	return time.Time{}
}
