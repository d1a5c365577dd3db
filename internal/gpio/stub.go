//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(pins Pins, debounce time.Duration) (Board, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}
