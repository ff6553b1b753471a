// Package gpio requests single digital lines from the Linux GPIO character
// device: the barometer's end-of-conversion input and the status LEDs.
package gpio

import (
	"fmt"
	"strconv"
	"strings"
)

// Input is a polled digital input.
type Input interface {
	Value() (int, error)
	Close() error
}

// Output is a digital output.
type Output interface {
	SetValue(v int) error
	Close() error
}

// LineName normalizes a configured line: a bare BCM number such as "17"
// becomes "GPIO17", which is how the Pi names its header lines.
func LineName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("gpio: empty line name")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return "", fmt.Errorf("gpio: invalid line %d", n)
		}
		return fmt.Sprintf("GPIO%d", n), nil
	}
	return s, nil
}
