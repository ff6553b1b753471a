//go:build linux

package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// Line is a requested gpiocdev line together with the chip it came from.
type Line struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	name string
}

// OpenInput requests name as an input. chipPath may be empty to search every
// /dev/gpiochip*.
func OpenInput(chipPath, name, consumer string) (*Line, error) {
	return request(chipPath, name, gpiocdev.AsInput, consumer)
}

// OpenOutput requests name as an output driven to initial.
func OpenOutput(chipPath, name string, initial int, consumer string) (*Line, error) {
	return request(chipPath, name, gpiocdev.AsOutput(initial), consumer)
}

func request(chipPath, name string, dir gpiocdev.LineReqOption, consumer string) (*Line, error) {
	lineName, err := LineName(name)
	if err != nil {
		return nil, err
	}
	for _, path := range chipCandidates(chipPath) {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		l, err := chip.RequestLine(offset, dir, gpiocdev.WithConsumer(consumer))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &Line{chip: chip, line: l, name: lineName}, nil
	}
	return nil, fmt.Errorf("gpio: line %q not found (or busy)", lineName)
}

func chipCandidates(chipPath string) []string {
	if strings.TrimSpace(chipPath) != "" {
		return []string{chipPath}
	}
	// Pi 5 kernels may expose the header on gpiochip4.
	out := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		n := e.Name()
		if strings.HasPrefix(n, "gpiochip") && n != "gpiochip0" && n != "gpiochip4" {
			out = append(out, filepath.Join("/dev", n))
		}
	}
	return out
}

func (l *Line) Name() string { return l.name }

func (l *Line) Value() (int, error) {
	if l == nil || l.line == nil {
		return 0, fmt.Errorf("gpio: line not open")
	}
	return l.line.Value()
}

func (l *Line) SetValue(v int) error {
	if l == nil || l.line == nil {
		return fmt.Errorf("gpio: line not open")
	}
	return l.line.SetValue(v)
}

func (l *Line) Close() error {
	if l == nil || l.line == nil {
		return nil
	}
	err := l.line.Close()
	l.line = nil
	if l.chip != nil {
		_ = l.chip.Close()
		l.chip = nil
	}
	return err
}
