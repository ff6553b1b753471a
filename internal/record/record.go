// Package record combines the latest position fix and barometer measurement
// into one logged entry and writes it to one or more sinks.
package record

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gpslogger/internal/gps"
	"gpslogger/internal/sensors/bmp085"
)

// Record is one logged entry: a complete fix plus the most recent
// barometer measurement.
type Record struct {
	Fix  gps.PositionFix    `json:"fix"`
	Baro bmp085.Measurement `json:"baro"`
	// BaroFresh is set when the barometer completed a cycle since the
	// previous record.
	BaroFresh bool      `json:"baro_fresh"`
	LoggedAt  time.Time `json:"logged_at"`
}

// Sink persists or forwards records.
type Sink interface {
	Write(r Record) error
	Close() error
}

// Multi writes every record to all sinks in order.
type Multi []Sink

func (m Multi) Write(r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BestEffort logs write failures of s instead of returning them, so that a
// flaky network sink never stops the file log.
func BestEffort(name string, s Sink, log logrus.FieldLogger) Sink {
	return &bestEffort{name: name, s: s, log: log}
}

type bestEffort struct {
	name   string
	s      Sink
	log    logrus.FieldLogger
	failed uint64
}

func (b *bestEffort) Write(r Record) error {
	if err := b.s.Write(r); err != nil {
		b.failed++
		// Log the first failure and then every 100th to keep a dead broker
		// from flooding the log.
		if b.failed == 1 || b.failed%100 == 0 {
			b.log.WithError(err).WithFields(logrus.Fields{"sink": b.name, "failed": b.failed}).Warn("record sink write failed")
		}
	}
	return nil
}

func (b *bestEffort) Close() error {
	if err := b.s.Close(); err != nil {
		return fmt.Errorf("record: close %s: %w", b.name, err)
	}
	return nil
}
