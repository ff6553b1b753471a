// Package status drives the two indicator LEDs.
//
//	green on          record being written (or start-up in progress)
//	red on, green off fatal initialization error
//	red on, green on  storage failure
package status

import (
	"errors"
	"fmt"
	"sync"

	"gpslogger/internal/gpio"
)

// Indicator reports logger state to the operator.
type Indicator interface {
	Starting() error
	Ready() error
	Writing() (done func(), err error)
	Fatal() error
	StorageFailed() error
	Close() error
}

// LEDs is an Indicator backed by a green and a red output line. Either line
// may be nil.
type LEDs struct {
	mu    sync.Mutex
	green gpio.Output
	red   gpio.Output
	// Once latched, later state changes are ignored.
	latched bool
}

func NewLEDs(green, red gpio.Output) *LEDs {
	return &LEDs{green: green, red: red}
}

func (l *LEDs) set(green, red int) error {
	var errs []error
	if l.green != nil {
		if err := l.green.SetValue(green); err != nil {
			errs = append(errs, fmt.Errorf("status: green: %w", err))
		}
	}
	if l.red != nil {
		if err := l.red.SetValue(red); err != nil {
			errs = append(errs, fmt.Errorf("status: red: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (l *LEDs) change(green, red int, latch bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latched {
		return nil
	}
	if latch {
		l.latched = true
	}
	return l.set(green, red)
}

func (l *LEDs) Starting() error { return l.change(1, 0, false) }

func (l *LEDs) Ready() error { return l.change(0, 0, false) }

// Writing lights green until done is called.
func (l *LEDs) Writing() (func(), error) {
	if err := l.change(1, 0, false); err != nil {
		return func() {}, err
	}
	return func() { _ = l.change(0, 0, false) }, nil
}

func (l *LEDs) Fatal() error { return l.change(0, 1, true) }

func (l *LEDs) StorageFailed() error { return l.change(1, 1, true) }

// Close releases both lines.
func (l *LEDs) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	if l.green != nil {
		errs = append(errs, l.green.Close())
		l.green = nil
	}
	if l.red != nil {
		errs = append(errs, l.red.Close())
		l.red = nil
	}
	return errors.Join(errs...)
}

// Nop is used when no LEDs are configured.
type Nop struct{}

func (Nop) Starting() error          { return nil }
func (Nop) Ready() error             { return nil }
func (Nop) Writing() (func(), error) { return func() {}, nil }
func (Nop) Fatal() error             { return nil }
func (Nop) StorageFailed() error     { return nil }
func (Nop) Close() error             { return nil }
