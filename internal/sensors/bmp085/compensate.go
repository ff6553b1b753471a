package bmp085

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// Measurement is one compensated temperature/pressure pair.
type Measurement struct {
	// TemperatureC has 0.1 degree resolution.
	TemperatureC float64 `json:"temp_c"`
	PressurePa   int32   `json:"pressure_pa"`
	SeaLevelPa   float64 `json:"sea_level_pa"`
	AltitudeM    float64 `json:"alt_m"`
}

// Env converts the measurement to periph.io units.
func (m Measurement) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(m.TemperatureC*float64(physic.Celsius)),
		Pressure:    physic.Pressure(m.PressurePa) * physic.Pascal,
	}
}

func (m Measurement) String() string {
	e := m.Env()
	return fmt.Sprintf("%s %s alt=%.1fm", e.Temperature, e.Pressure, m.AltitudeM)
}

// Compensate converts raw codes with the datasheet integer algorithm.
//
// The arithmetic is int32/uint32 with truncating division and arithmetic
// right shifts; the calibration is only defined under exactly these
// operations. Divisions by zero, possible only with a corrupt coefficient
// set, yield zero instead of panicking.
func Compensate(raw RawSample, c Coefficients, oss uint8, seaLevelPa float64) Measurement {
	if oss > UltraHighRes {
		oss = UltraHighRes
	}
	ut := int32(raw.Temperature)
	up := raw.Pressure

	// Temperature.
	x1 := ((ut - int32(c.AC6)) * int32(c.AC5)) >> 15
	var x2 int32
	if den := x1 + int32(c.MD); den != 0 {
		x2 = (int32(c.MC) << 11) / den
	}
	b5 := x1 + x2
	tenths := (b5 + 8) >> 4

	// Pressure.
	b6 := b5 - 4000
	x1 = (int32(c.B2) * ((b6 * b6) >> 12)) >> 11
	x2 = (int32(c.AC2) * b6) >> 11
	x3 := x1 + x2
	b3 := (((int32(c.AC1)*4 + x3) << oss) + 2) / 4

	x1 = (int32(c.AC3) * b6) >> 13
	x2 = (int32(c.B1) * ((b6 * b6) >> 12)) >> 16
	x3 = ((x1 + x2) + 2) >> 2
	b4 := (uint32(c.AC4) * uint32(x3+32768)) >> 15
	b7 := (uint32(up) - uint32(b3)) * (uint32(50000) >> oss)

	var p int32
	switch {
	case b4 == 0:
	case b7 < 0x80000000:
		p = int32((b7 * 2) / b4)
	default:
		p = int32((b7 / b4) * 2)
	}

	x1 = (p >> 8) * (p >> 8)
	x1 = (x1 * 3038) >> 16
	x2 = (-7357 * p) >> 16
	p += (x1 + x2 + 3791) >> 4

	return Measurement{
		TemperatureC: float64(tenths) / 10,
		PressurePa:   p,
		SeaLevelPa:   seaLevelPa,
		AltitudeM:    Altitude(float64(p), seaLevelPa),
	}
}

// Altitude is the international barometric formula in meters.
func Altitude(pressurePa, seaLevelPa float64) float64 {
	if pressurePa <= 0 || seaLevelPa <= 0 {
		return 0
	}
	return 44330 * (1 - math.Pow(pressurePa/seaLevelPa, 0.1903))
}
