package bmp085

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var sleep = time.Sleep

// Driver for the Bosch BMP085 (and register compatible BMP180).
//
// Conversions are sequenced without fixed delays: the EOC pin is polled on
// every Advance and the next conversion starts as soon as data is read.

const (
	addrDefault = 0x77

	regID    = 0xD0
	chipID   = 0x55
	regCalib = 0xAA
	calibLen = 22

	regControl = 0xF4
	regData    = 0xF6

	cmdTemperature = 0x2E
	cmdPressure    = 0x34
)

// Oversampling levels (datasheet "oss").
const (
	UltraLowPower uint8 = 0
	Standard      uint8 = 1
	HighRes       uint8 = 2
	UltraHighRes  uint8 = 3
)

var (
	ErrIdentity    = errors.New("bmp085: device identity mismatch")
	ErrCalibration = errors.New("bmp085: calibration invalid")
	ErrStalled     = errors.New("bmp085: conversion never completed")
)

// RegIO is the register access the driver needs; *i2c.Dev satisfies it.
type RegIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadRegU16(reg byte) (uint16, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

// DoneLine is the EOC output of the sensor: 1 once a conversion finished.
type DoneLine interface {
	Value() (int, error)
}

// Coefficients are the factory calibration words, names as in the datasheet.
type Coefficients struct {
	AC1 int16
	AC2 int16
	AC3 int16
	AC4 uint16
	AC5 uint16
	AC6 uint16
	B1  int16
	B2  int16
	MB  int16
	MC  int16
	MD  int16
}

func DefaultAddress() uint16 { return addrDefault }

// ClampOversampling maps any requested level onto 0..3.
func ClampOversampling(v int) uint8 {
	if v < 0 {
		return UltraLowPower
	}
	if v > int(UltraHighRes) {
		return UltraHighRes
	}
	return uint8(v)
}

func decodeCoefficients(buf []byte) Coefficients {
	be := binary.BigEndian
	return Coefficients{
		AC1: int16(be.Uint16(buf[0:2])),
		AC2: int16(be.Uint16(buf[2:4])),
		AC3: int16(be.Uint16(buf[4:6])),
		AC4: be.Uint16(buf[6:8]),
		AC5: be.Uint16(buf[8:10]),
		AC6: be.Uint16(buf[10:12]),
		B1:  int16(be.Uint16(buf[12:14])),
		B2:  int16(be.Uint16(buf[14:16])),
		MB:  int16(be.Uint16(buf[16:18])),
		MC:  int16(be.Uint16(buf[18:20])),
		MD:  int16(be.Uint16(buf[20:22])),
	}
}

// validCalibration applies the datasheet communication check: no word is
// 0x0000 or 0xFFFF. An absent sensor reads back all zeros or all ones.
func validCalibration(buf []byte) error {
	for i := 0; i+1 < len(buf); i += 2 {
		w := binary.BigEndian.Uint16(buf[i : i+2])
		if w == 0x0000 || w == 0xFFFF {
			return fmt.Errorf("%w: word %d at 0x%02X is 0x%04X", ErrCalibration, i/2, regCalib+i, w)
		}
	}
	return nil
}

func readCoefficients(dev RegIO) (Coefficients, error) {
	buf := make([]byte, calibLen)
	var err error
	for i := 0; i < 3; i++ {
		if err = dev.ReadReg(regCalib, buf); err != nil {
			err = fmt.Errorf("bmp085: read calib failed: %w", err)
			sleep(5 * time.Millisecond)
			continue
		}
		if err = validCalibration(buf); err != nil {
			sleep(5 * time.Millisecond)
			continue
		}
		return decodeCoefficients(buf), nil
	}
	return Coefficients{}, err
}
