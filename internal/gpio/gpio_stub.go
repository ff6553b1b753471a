//go:build !linux

package gpio

import "fmt"

type Line struct{}

func OpenInput(chipPath, name, consumer string) (*Line, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func OpenOutput(chipPath, name string, initial int, consumer string) (*Line, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func (l *Line) Name() string         { return "" }
func (l *Line) Value() (int, error)  { return 0, fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) SetValue(v int) error { return fmt.Errorf("gpio: unsupported on this platform") }
func (l *Line) Close() error         { return nil }
