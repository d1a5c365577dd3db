package logic

import "time"

const msPerSecond = 1000

// Controller is the cooperative tick state machine. Each call to Tick runs
// exactly one iteration: the current state's body, then the drained button
// events, then the frequency bound check, then the state commit.
type Controller struct {
	state     State
	freqHz    int
	heartbeat Blinker
	action    Blinker
	counts    EventCounts
}

// NewController creates a controller in the INIT state with the default
// blink frequency. Both blinkers start illuminated with their toggle clocks
// at start, so the first toggles land one half-period after startup.
func NewController(start time.Time) *Controller {
	return &Controller{
		state:     StateInit,
		freqHz:    DefaultFreqHz,
		heartbeat: Blinker{LastToggle: start, Illuminated: true},
		action:    Blinker{LastToggle: start, Illuminated: true},
	}
}

// TickResult carries the side effects of one tick: hardware commands to
// apply in order, and telemetry events to publish.
type TickResult struct {
	Commands []Command
	Events   []Event
}

func (r *TickResult) set(o Output, level bool) {
	r.Commands = append(r.Commands, Command{Op: OpSet, Output: o, Level: level})
}

func (r *TickResult) toggle(o Output) {
	r.Commands = append(r.Commands, Command{Op: OpToggle, Output: o})
}

func (r *TickResult) enable(b Button) {
	r.Commands = append(r.Commands, Command{Op: OpEnableIRQ, Button: b})
}

func (r *TickResult) disable(b Button) {
	r.Commands = append(r.Commands, Command{Op: OpDisableIRQ, Button: b})
}

func (r *TickResult) event(e Event) {
	r.Events = append(r.Events, e)
}

// Tick runs one iteration of the state machine. The order within a tick is
// fixed: state body, then sleep, freq-up, freq-down events, then the bound
// check, then reset, then the next-state commit. A later step overrides the
// next state chosen by an earlier one; reset always wins.
func (c *Controller) Tick(now time.Time, pressed Events) TickResult {
	var res TickResult
	next := c.state

	switch c.state {
	case StateInit:
		// Initial levels: heartbeat and pump on, buzzer and error off.
		res.set(OutputHeartbeat, true)
		res.set(OutputPump, true)
		res.set(OutputBuzzer, false)
		res.set(OutputError, false)
		res.enable(ButtonSleep)
		res.enable(ButtonFreqUp)
		res.enable(ButtonFreqDown)
		res.enable(ButtonReset)
		// Entry setup just happened, skip BLINK_ENTRY.
		next = StateBlinkRun

	case StateBlinkEntry:
		c.advanceHeartbeat(now, &res)
		res.enable(ButtonSleep)
		res.enable(ButtonFreqUp)
		res.enable(ButtonFreqDown)
		res.set(OutputPump, c.action.Illuminated)
		res.set(OutputBuzzer, !c.action.Illuminated)
		res.set(OutputError, false)
		next = StateBlinkRun

	case StateBlinkRun:
		c.advanceHeartbeat(now, &res)
		c.advanceAction(now, &res)

	case StateError:
		c.advanceHeartbeat(now, &res)
		res.disable(ButtonSleep)
		res.disable(ButtonFreqUp)
		res.disable(ButtonFreqDown)
		res.set(OutputPump, false)
		c.action.Illuminated = false
		res.set(OutputBuzzer, false)
		res.set(OutputError, true)

	case StateReset:
		c.advanceHeartbeat(now, &res)
		if c.freqHz != DefaultFreqHz {
			c.freqHz = DefaultFreqHz
			res.event(Event{Timestamp: now, Type: EventFreqChange, FreqHz: c.freqHz})
		}
		next = StateBlinkEntry

	case StateSleep:
		c.advanceHeartbeat(now, &res)
		// The sleep button stays armed so it can wake the controller.
		res.disable(ButtonFreqUp)
		res.disable(ButtonFreqDown)
		res.set(OutputPump, false)
		res.set(OutputBuzzer, false)
	}

	freqBefore := c.freqHz
	next, c.freqHz = Transition(c.state, next, c.freqHz, pressed)
	if c.freqHz != freqBefore {
		res.event(Event{Timestamp: now, Type: EventFreqChange, FreqHz: c.freqHz})
	}
	if (c.freqHz < MinFreqHz || c.freqHz > MaxFreqHz) && c.state != StateError {
		res.event(Event{Timestamp: now, Type: EventFault, FreqHz: c.freqHz})
	}

	if next != c.state {
		res.event(Event{Timestamp: now, Type: EventStateChange, From: c.state, To: next, FreqHz: c.freqHz})
	}
	c.state = next

	for _, e := range res.Events {
		switch e.Type {
		case EventStateChange:
			c.counts.StateChanges++
		case EventFreqChange:
			c.counts.FreqChanges++
		case EventFault:
			c.counts.Faults++
		}
	}

	return res
}

// Transition applies the drained edge flags to the proposed next state and
// frequency and returns what should be committed. It is pure: proposed is
// the next state chosen by the current state's body before any button
// override. The ordering is a documented policy: sleep first, then the
// frequency adjustments, then the bound check (which forces ERROR unless
// already there), then reset, which overrides everything.
func Transition(current, proposed State, freqHz int, pressed Events) (State, int) {
	next := proposed
	if pressed.Sleep {
		if current == StateSleep {
			next = StateBlinkEntry
		} else {
			next = StateSleep
		}
	}
	if pressed.FreqUp {
		freqHz++
	}
	if pressed.FreqDown {
		freqHz--
	}
	if (freqHz < MinFreqHz || freqHz > MaxFreqHz) && current != StateError {
		next = StateError
	}
	if pressed.Reset {
		next = StateReset
	}
	return next, freqHz
}

// advanceHeartbeat toggles the heartbeat once its half-period has elapsed.
// The heartbeat runs in every state body, including ERROR and SLEEP.
func (c *Controller) advanceHeartbeat(now time.Time, res *TickResult) {
	if now.Sub(c.heartbeat.LastToggle) > HeartbeatHalfPeriod {
		res.toggle(OutputHeartbeat)
		c.heartbeat.LastToggle = now
		c.heartbeat.Illuminated = !c.heartbeat.Illuminated
	}
}

// advanceAction toggles the pump and buzzer together once the configured
// half-period has elapsed. The half-period in ms is 1000/(2*freqHz), so the
// pair completes freqHz full blink cycles per second. The bound check
// guarantees freqHz >= 1 whenever BLINK_RUN's body executes.
func (c *Controller) advanceAction(now time.Time, res *TickResult) {
	half := time.Duration(msPerSecond/(c.freqHz*2)) * time.Millisecond
	if now.Sub(c.action.LastToggle) > half {
		res.toggle(OutputPump)
		res.toggle(OutputBuzzer)
		c.action.LastToggle = now
		c.action.Illuminated = !c.action.Illuminated
	}
}

// State returns the current committed state.
func (c *Controller) State() State {
	return c.state
}

// FreqHz returns the current blink frequency of the action pair.
func (c *Controller) FreqHz() int {
	return c.freqHz
}

// Counts returns a snapshot of the telemetry event counts.
func (c *Controller) Counts() EventCounts {
	return c.counts
}
