// Package logic contains the pure state machine for the pump controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents a controller state.
type State string

const (
	StateInit       State = "INIT"
	StateBlinkEntry State = "BLINK_ENTRY"
	StateBlinkRun   State = "BLINK_RUN"
	StateSleep      State = "SLEEP"
	StateReset      State = "RESET"
	StateError      State = "ERROR"
)

// Button identifies one of the four input buttons.
type Button string

const (
	ButtonSleep    Button = "SLEEP"
	ButtonFreqUp   Button = "FREQ_UP"
	ButtonFreqDown Button = "FREQ_DOWN"
	ButtonReset    Button = "RESET"
)

// Output identifies one of the four output pins.
type Output string

const (
	OutputHeartbeat Output = "HEARTBEAT"
	OutputPump      Output = "PUMP"
	OutputBuzzer    Output = "BUZZER"
	OutputError     Output = "ERROR"
)

// Blink frequency limits for the pump/buzzer action pair, in Hz.
const (
	DefaultFreqHz = 2
	MinFreqHz     = 1
	MaxFreqHz     = 5
)

// HeartbeatHalfPeriod is the time between heartbeat toggles (a 1 Hz blink).
const HeartbeatHalfPeriod = 500 * time.Millisecond

// Events holds the edge flags drained from the buttons for one tick.
// A true field means the button was pressed at least once since the previous
// tick; rapid presses within one tick coalesce into a single event.
type Events struct {
	Sleep    bool
	FreqUp   bool
	FreqDown bool
	Reset    bool
}

// Any reports whether at least one edge flag is set.
func (e Events) Any() bool {
	return e.Sleep || e.FreqUp || e.FreqDown || e.Reset
}

// CommandOp identifies the kind of hardware side effect a Command requests.
type CommandOp string

const (
	OpSet        CommandOp = "SET"
	OpToggle     CommandOp = "TOGGLE"
	OpEnableIRQ  CommandOp = "ENABLE_IRQ"
	OpDisableIRQ CommandOp = "DISABLE_IRQ"
)

// Command is a single hardware side effect requested by a tick. The
// controller never touches pins itself; the caller applies commands to the
// board in order.
type Command struct {
	Op     CommandOp
	Output Output // OpSet, OpToggle
	Level  bool   // OpSet
	Button Button // OpEnableIRQ, OpDisableIRQ
}

// EventType classifies a telemetry event.
type EventType string

const (
	EventStateChange EventType = "STATE_CHANGE"
	EventFreqChange  EventType = "FREQ_CHANGE"
	EventFault       EventType = "FREQ_OUT_OF_RANGE"
)

// Event is a telemetry record emitted by a tick, to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      State // STATE_CHANGE only
	To        State // STATE_CHANGE only
	FreqHz    int   // blink frequency after the tick
}

// Blinker tracks the toggle phase of an independently clocked output.
type Blinker struct {
	LastToggle  time.Time
	Illuminated bool
}

// EventCounts tracks the number of each telemetry event type since startup.
type EventCounts struct {
	StateChanges int
	FreqChanges  int
	Faults       int
}
