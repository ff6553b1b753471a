package status

import (
	"fmt"
	"strings"

	"gpslogger/internal/gpio"
)

// Config names the LED lines. Empty names disable that LED.
type Config struct {
	Chip  string
	Green string
	Red   string
}

// Open requests the configured lines as outputs driven low. With neither
// line configured it returns Nop.
func Open(cfg Config) (Indicator, error) {
	if strings.TrimSpace(cfg.Green) == "" && strings.TrimSpace(cfg.Red) == "" {
		return Nop{}, nil
	}
	leds := &LEDs{}
	if strings.TrimSpace(cfg.Green) != "" {
		l, err := gpio.OpenOutput(cfg.Chip, cfg.Green, 0, "gpslogger-green")
		if err != nil {
			return nil, fmt.Errorf("status: green led: %w", err)
		}
		leds.green = l
	}
	if strings.TrimSpace(cfg.Red) != "" {
		l, err := gpio.OpenOutput(cfg.Chip, cfg.Red, 0, "gpslogger-red")
		if err != nil {
			_ = leds.Close()
			return nil, fmt.Errorf("status: red led: %w", err)
		}
		leds.red = l
	}
	return leds, nil
}
