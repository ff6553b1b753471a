package bmp085

import (
	"fmt"
	"time"
)

// State is the conversion the sensor is currently running.
type State int

const (
	StateIdle State = iota
	StateTemperaturePending
	StatePressurePending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTemperaturePending:
		return "temperature"
	case StatePressurePending:
		return "pressure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RawSample holds the latest uncompensated readings. Each field is
// overwritten in place; there is no history.
type RawSample struct {
	Temperature uint16 // UT
	Pressure    int32  // UP, already shifted by 8-oss
}

const (
	defaultConversionTimeout = 100 * time.Millisecond
	defaultMaxRetries        = 3
)

// Options configures New.
type Options struct {
	// Oversampling is clamped to 0..3.
	Oversampling int
	// SeaLevelPa is the reference pressure where altitude is zero.
	SeaLevelPa float64

	// ConversionTimeout bounds how long EOC may stay low before the pending
	// conversion is started again. Zero selects 100ms, negative waits forever.
	ConversionTimeout time.Duration
	// MaxRetries is how many consecutive timeouts are tolerated before
	// Advance reports ErrStalled. Zero selects 3.
	MaxRetries int

	// Now is the clock used for timeouts; nil means time.Now.
	Now func() time.Time
}

// Device sequences BMP085 conversions and keeps the latest measurement.
//
// All methods must be called from one goroutine.
type Device struct {
	dev  RegIO
	done DoneLine

	oss        uint8
	seaLevelPa float64
	coef       Coefficients

	state     State
	issued    bool
	startedAt time.Time
	retries   int
	raw       RawSample

	meas  Measurement
	fresh bool

	timeout    time.Duration
	maxRetries int
	now        func() time.Time
}

// New checks the chip identity, reads the calibration words and returns an
// idle Device. No conversion is started until the first Advance.
func New(dev RegIO, done DoneLine, opts Options) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("bmp085: dev is nil")
	}
	if done == nil {
		return nil, fmt.Errorf("bmp085: eoc line is nil")
	}

	id, err := dev.ReadRegU8(regID)
	if err != nil {
		return nil, fmt.Errorf("bmp085: id read failed: %w", err)
	}
	if id != chipID {
		return nil, fmt.Errorf("%w: chip id=0x%02X want 0x%02X", ErrIdentity, id, chipID)
	}

	coef, err := readCoefficients(dev)
	if err != nil {
		return nil, err
	}

	d := &Device{
		dev:        dev,
		done:       done,
		oss:        ClampOversampling(opts.Oversampling),
		seaLevelPa: opts.SeaLevelPa,
		coef:       coef,
		timeout:    opts.ConversionTimeout,
		maxRetries: opts.MaxRetries,
		now:        opts.Now,
	}
	if d.timeout == 0 {
		d.timeout = defaultConversionTimeout
	}
	if d.maxRetries <= 0 {
		d.maxRetries = defaultMaxRetries
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

func (d *Device) Oversampling() uint8 { return d.oss }

func (d *Device) Coefficients() Coefficients { return d.coef }

func (d *Device) State() State { return d.state }

func (d *Device) Raw() RawSample { return d.raw }

// Measurement returns the latest compensated measurement and whether a cycle
// completed since the previous call.
func (d *Device) Measurement() (Measurement, bool) {
	fresh := d.fresh
	d.fresh = false
	return d.meas, fresh
}

// Advance moves the sequencer by at most one step and never waits on the
// sensor. It returns true exactly once per temperature+pressure pair, at
// which point Measurement holds a fresh value.
//
// A bus error leaves the sequencer in its current phase; the failed step is
// repeated on the next call.
func (d *Device) Advance() (bool, error) {
	if d.state == StateIdle {
		if err := d.start(StateTemperaturePending); err != nil {
			d.state = StateIdle
			return false, err
		}
		return false, nil
	}
	if !d.issued {
		return false, d.issue()
	}

	v, err := d.done.Value()
	if err != nil {
		return false, fmt.Errorf("bmp085: eoc read failed: %w", err)
	}
	if v == 0 {
		return false, d.checkTimeout()
	}
	d.retries = 0

	switch d.state {
	case StateTemperaturePending:
		ut, err := d.readRawTemperature()
		if err != nil {
			return false, err
		}
		d.raw.Temperature = ut
		return false, d.start(StatePressurePending)

	case StatePressurePending:
		up, err := d.readRawPressure()
		if err != nil {
			return false, err
		}
		d.raw.Pressure = up
		d.meas = Compensate(d.raw, d.coef, d.oss, d.seaLevelPa)
		d.fresh = true
		// The measurement is complete even if the next conversion could not
		// be started; the command is retried on the next call.
		return true, d.start(StateTemperaturePending)
	}
	return false, fmt.Errorf("bmp085: unexpected state %v", d.state)
}

// start enters next and issues its conversion command.
func (d *Device) start(next State) error {
	d.state = next
	d.issued = false
	return d.issue()
}

func (d *Device) issue() error {
	cmd := byte(cmdTemperature)
	if d.state == StatePressurePending {
		cmd = cmdPressure + d.oss<<6
	}
	if err := d.dev.WriteReg(regControl, cmd); err != nil {
		return fmt.Errorf("bmp085: start %v conversion: %w", d.state, err)
	}
	d.issued = true
	d.startedAt = d.now()
	return nil
}

func (d *Device) checkTimeout() error {
	if d.timeout < 0 || d.now().Sub(d.startedAt) < d.timeout {
		return nil
	}
	d.retries++
	if d.retries > d.maxRetries {
		d.retries = 0
		d.issued = false
		return fmt.Errorf("%w: %v phase timed out %d times", ErrStalled, d.state, d.maxRetries+1)
	}
	return d.issue()
}

func (d *Device) readRawTemperature() (uint16, error) {
	ut, err := d.dev.ReadRegU16(regData)
	if err != nil {
		return 0, fmt.Errorf("bmp085: read temperature: %w", err)
	}
	return ut, nil
}

func (d *Device) readRawPressure() (int32, error) {
	var b [3]byte
	if err := d.dev.ReadReg(regData, b[:]); err != nil {
		return 0, fmt.Errorf("bmp085: read pressure: %w", err)
	}
	up := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	return up >> (8 - d.oss), nil
}
