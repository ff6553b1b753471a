package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gpslogger/internal/gps"
	"gpslogger/internal/record"
	"gpslogger/internal/sensors/bmp085"
	"gpslogger/internal/status"
)

var errSourceClosed = errors.New("gps source closed")

// barometer is the part of *bmp085.Device the loop drives.
type barometer interface {
	Advance() (bool, error)
	Measurement() (bmp085.Measurement, bool)
}

// runtime owns every piece of mutable state touched by the control loop.
// Nothing in it is shared with another goroutine.
type runtime struct {
	log    logrus.FieldLogger
	parser *gps.Parser
	baro   barometer
	sink   record.Sink
	ind    status.Indicator
	now    func() time.Time

	lastBaro  bmp085.Measurement
	baroFresh bool
	baroErrs  uint64
	records   uint64
}

func newRuntime(log logrus.FieldLogger, parser *gps.Parser, baro barometer, sink record.Sink, ind status.Indicator) *runtime {
	if ind == nil {
		ind = status.Nop{}
	}
	return &runtime{log: log, parser: parser, baro: baro, sink: sink, ind: ind, now: time.Now}
}

// run multiplexes stream bytes and barometer ticks until ctx is cancelled,
// the source ends or a record cannot be stored. tick may be nil when no
// barometer is fitted.
func (r *runtime) run(ctx context.Context, chunks <-chan []byte, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-chunks:
			if !ok {
				return errSourceClosed
			}
			if err := r.handleChunk(chunk); err != nil {
				return err
			}
		case <-tick:
			r.stepBaro()
		}
	}
}

func (r *runtime) handleChunk(chunk []byte) error {
	var werr error
	r.parser.Feed(chunk, func(fix gps.PositionFix) {
		if werr != nil {
			return
		}
		werr = r.write(fix)
	})
	return werr
}

func (r *runtime) stepBaro() {
	if r.baro == nil {
		return
	}
	done, err := r.baro.Advance()
	if err != nil {
		r.baroErrs++
		entry := r.log.WithError(err).WithField("errors", r.baroErrs)
		if errors.Is(err, bmp085.ErrStalled) {
			entry.Warn("barometer conversion stalled, restarting phase")
		} else if r.baroErrs == 1 || r.baroErrs%1000 == 0 {
			entry.Warn("barometer step failed")
		}
	}
	if !done {
		return
	}
	m, _ := r.baro.Measurement()
	r.lastBaro = m
	r.baroFresh = true
	r.log.WithFields(logrus.Fields{
		"temp_c":      m.TemperatureC,
		"pressure_pa": m.PressurePa,
		"alt_m":       fmt.Sprintf("%.1f", m.AltitudeM),
	}).Trace("barometer cycle complete")
}

func (r *runtime) write(fix gps.PositionFix) error {
	done, _ := r.ind.Writing()
	defer done()

	rec := record.Record{Fix: fix, Baro: r.lastBaro, BaroFresh: r.baroFresh, LoggedAt: r.now().UTC()}
	if err := r.sink.Write(rec); err != nil {
		_ = r.ind.StorageFailed()
		return fmt.Errorf("store record: %w", err)
	}
	r.baroFresh = false
	r.records++
	r.log.WithFields(logrus.Fields{
		"fix":  fix.Quality.String(),
		"sats": fix.Satellites,
		"lat":  fix.LatDeg,
		"lon":  fix.LonDeg,
	}).Debug("record written")
	return nil
}
