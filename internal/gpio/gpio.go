// Package gpio provides the hardware layer for the pump controller.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/amelia-cook/BME-Project/internal/logic"
)

// Board abstracts the four button inputs and four output pins.
type Board interface {
	// SetOutput drives an output pin to the given logical level.
	SetOutput(o logic.Output, on bool) error

	// ToggleOutput inverts an output pin.
	ToggleOutput(o logic.Output) error

	// EnableInterrupt arms a button so that presses latch an edge event.
	EnableInterrupt(b logic.Button) error

	// DisableInterrupt masks a button. Presses while masked are discarded.
	DisableInterrupt(b logic.Button) error

	// Drain returns the pending edge events and clears them.
	Drain() logic.Events

	// Close releases hardware resources.
	Close() error
}

// Apply executes one controller command against a board.
func Apply(b Board, cmd logic.Command) error {
	switch cmd.Op {
	case logic.OpSet:
		return b.SetOutput(cmd.Output, cmd.Level)
	case logic.OpToggle:
		return b.ToggleOutput(cmd.Output)
	case logic.OpEnableIRQ:
		return b.EnableInterrupt(cmd.Button)
	case logic.OpDisableIRQ:
		return b.DisableInterrupt(cmd.Button)
	}
	return fmt.Errorf("unknown command op %q", cmd.Op)
}

// Pins maps the buttons and outputs to BCM pin numbers.
type Pins struct {
	SleepButton    int
	FreqUpButton   int
	FreqDownButton int
	ResetButton    int
	HeartbeatLED   int
	PumpLED        int
	Buzzer         int
	ErrorLED       int
}

// Default pin assignments (BCM numbering) for the lab bench wiring.
const (
	DefaultPinSleepButton    = 5
	DefaultPinFreqUpButton   = 6
	DefaultPinFreqDownButton = 13
	DefaultPinResetButton    = 19
	DefaultPinHeartbeatLED   = 12
	DefaultPinPumpLED        = 16
	DefaultPinBuzzer         = 20
	DefaultPinErrorLED       = 21
)

// DefaultPins returns the lab bench wiring.
func DefaultPins() Pins {
	return Pins{
		SleepButton:    DefaultPinSleepButton,
		FreqUpButton:   DefaultPinFreqUpButton,
		FreqDownButton: DefaultPinFreqDownButton,
		ResetButton:    DefaultPinResetButton,
		HeartbeatLED:   DefaultPinHeartbeatLED,
		PumpLED:        DefaultPinPumpLED,
		Buzzer:         DefaultPinBuzzer,
		ErrorLED:       DefaultPinErrorLED,
	}
}

// Latches holds the four per-button edge flags. Each flag is written by
// exactly one producer (the button's edge event handler) and read and
// cleared by exactly one consumer (the tick loop). A press landing while
// the flag is already set coalesces with it; rapid presses within one tick
// can be lost, which is the accepted behavior.
//
// Each button also carries an enable gate. A masked button drops presses at
// the source, matching a disabled hardware interrupt. All buttons start
// masked; the controller's INIT commands arm them.
type Latches struct {
	sleep    buttonLatch
	freqUp   buttonLatch
	freqDown buttonLatch
	reset    buttonLatch
}

type buttonLatch struct {
	pressed atomic.Bool
	enabled atomic.Bool
}

func (l *Latches) latch(b logic.Button) *buttonLatch {
	switch b {
	case logic.ButtonSleep:
		return &l.sleep
	case logic.ButtonFreqUp:
		return &l.freqUp
	case logic.ButtonFreqDown:
		return &l.freqDown
	case logic.ButtonReset:
		return &l.reset
	}
	return nil
}

// Press latches an edge event for the button unless it is masked.
func (l *Latches) Press(b logic.Button) {
	bl := l.latch(b)
	if bl == nil || !bl.enabled.Load() {
		return
	}
	bl.pressed.Store(true)
}

// SetEnabled arms or masks a button.
func (l *Latches) SetEnabled(b logic.Button, on bool) {
	if bl := l.latch(b); bl != nil {
		bl.enabled.Store(on)
	}
}

// Enabled reports whether a button is armed.
func (l *Latches) Enabled(b logic.Button) bool {
	bl := l.latch(b)
	return bl != nil && bl.enabled.Load()
}

// Drain returns the pending edge events and clears them in one step.
func (l *Latches) Drain() logic.Events {
	return logic.Events{
		Sleep:    l.sleep.pressed.Swap(false),
		FreqUp:   l.freqUp.pressed.Swap(false),
		FreqDown: l.freqDown.pressed.Swap(false),
		Reset:    l.reset.pressed.Swap(false),
	}
}
