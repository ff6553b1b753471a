package gps

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SourceConfig selects where NMEA bytes come from.
type SourceConfig struct {
	// Source is "serial" (default) or "gpsd".
	Source string

	// Device is the tty for Source=="serial". Empty means auto-detect.
	Device string
	Baud   int

	// ConfigureReceiver sends the PMTK RMC+GGA output selection and
	// UpdateRateHz after opening the tty.
	ConfigureReceiver bool
	UpdateRateHz      int

	// GPSDAddr is host:port for Source=="gpsd".
	GPSDAddr string
}

// OpenSource opens the configured byte stream. The caller owns the returned
// ReadCloser; closing it unblocks a pending Read.
func OpenSource(ctx context.Context, cfg SourceConfig, log logrus.FieldLogger) (io.ReadCloser, error) {
	src := strings.ToLower(strings.TrimSpace(cfg.Source))
	switch src {
	case "", "serial":
		return openSerialSource(cfg, log)
	case "gpsd":
		conn, err := dialGPSDRaw(ctx, cfg.GPSDAddr)
		if err != nil {
			return nil, err
		}
		log.WithField("addr", cfg.GPSDAddr).Info("gps source gpsd (raw nmea)")
		return conn, nil
	default:
		return nil, fmt.Errorf("gps: unknown source %q", cfg.Source)
	}
}

func openSerialSource(cfg SourceConfig, log logrus.FieldLogger) (io.ReadCloser, error) {
	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			return nil, fmt.Errorf("gps: auto-detect failed: no /dev/ttyACM*, /dev/ttyUSB* or /dev/serial0")
		}
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	port, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("gps: open %s at %d baud: %w", device, baud, err)
	}
	log.WithFields(logrus.Fields{"device": device, "baud": baud}).Info("gps serial opened")

	if cfg.ConfigureReceiver {
		cmds, err := InitCommands(cfg.UpdateRateHz)
		if err != nil {
			_ = port.Close()
			return nil, err
		}
		for _, c := range cmds {
			if _, err := io.WriteString(port, c); err != nil {
				_ = port.Close()
				return nil, fmt.Errorf("gps: send %q: %w", strings.TrimSpace(c), err)
			}
			log.WithField("cmd", strings.TrimSpace(c)).Debug("gps receiver command sent")
		}
	}
	return port, nil
}

func autoDetectDevice() string {
	candidates := []string{"/dev/serial0"}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
