//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/amelia-cook/BME-Project/internal/logic"
)

// RealBoard drives actual hardware through the Linux GPIO character device.
type RealBoard struct {
	chip    *gpiocdev.Chip
	outputs map[logic.Output]*gpiocdev.Line
	levels  map[logic.Output]bool
	buttons map[logic.Button]*gpiocdev.Line
	latches Latches
}

// NewRealBoard requests the output lines and the button lines on the given
// pins. Buttons are requested with rising-edge detection, pull-down, and the
// given hardware debounce period; each edge event latches a press. Edge
// detection stays requested for the lifetime of the board; interrupt
// enable/disable is implemented by masking the latch, which drops presses
// the same way a disabled interrupt would.
func NewRealBoard(pins Pins, debounce time.Duration) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBoard{
		chip:    chip,
		outputs: make(map[logic.Output]*gpiocdev.Line),
		levels:  make(map[logic.Output]bool),
		buttons: make(map[logic.Button]*gpiocdev.Line),
	}

	outputPins := []struct {
		out logic.Output
		pin int
	}{
		{logic.OutputHeartbeat, pins.HeartbeatLED},
		{logic.OutputPump, pins.PumpLED},
		{logic.OutputBuzzer, pins.Buzzer},
		{logic.OutputError, pins.ErrorLED},
	}
	for _, op := range outputPins {
		line, err := chip.RequestLine(op.pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", op.out, op.pin, err)
		}
		b.outputs[op.out] = line
	}

	buttonPins := []struct {
		btn logic.Button
		pin int
	}{
		{logic.ButtonSleep, pins.SleepButton},
		{logic.ButtonFreqUp, pins.FreqUpButton},
		{logic.ButtonFreqDown, pins.FreqDownButton},
		{logic.ButtonReset, pins.ResetButton},
	}
	for _, bp := range buttonPins {
		btn := bp.btn
		line, err := chip.RequestLine(bp.pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullDown,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithDebounce(debounce),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				if evt.Type == gpiocdev.LineEventRisingEdge {
					b.latches.Press(btn)
				}
			}))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", btn, bp.pin, err)
		}
		b.buttons[btn] = line
	}

	return b, nil
}

// SetOutput drives an output pin to the given logical level.
func (b *RealBoard) SetOutput(o logic.Output, on bool) error {
	line, ok := b.outputs[o]
	if !ok {
		return fmt.Errorf("unknown output %q", o)
	}
	if err := line.SetValue(levelValue(on)); err != nil {
		return fmt.Errorf("set %s: %w", o, err)
	}
	b.levels[o] = on
	return nil
}

// ToggleOutput inverts an output pin.
func (b *RealBoard) ToggleOutput(o logic.Output) error {
	return b.SetOutput(o, !b.levels[o])
}

// EnableInterrupt arms a button.
func (b *RealBoard) EnableInterrupt(btn logic.Button) error {
	if _, ok := b.buttons[btn]; !ok {
		return fmt.Errorf("unknown button %q", btn)
	}
	b.latches.SetEnabled(btn, true)
	return nil
}

// DisableInterrupt masks a button.
func (b *RealBoard) DisableInterrupt(btn logic.Button) error {
	if _, ok := b.buttons[btn]; !ok {
		return fmt.Errorf("unknown button %q", btn)
	}
	b.latches.SetEnabled(btn, false)
	return nil
}

// Drain returns the pending edge events and clears them.
func (b *RealBoard) Drain() logic.Events {
	return b.latches.Drain()
}

// Close releases GPIO resources. Output pins are reconfigured to input with
// pull-down (the Pi boot default) before closing so a restart sees a clean
// state.
func (b *RealBoard) Close() error {
	var errs []error

	for o, line := range b.outputs {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", o, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", o, err))
		}
	}
	for btn, line := range b.buttons {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", btn, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func levelValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
