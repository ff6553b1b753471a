package gps

import (
	"errors"
	"fmt"
	"math"
	"testing"

	nmea "github.com/adrianmo/go-nmea"
)

const (
	ggaPayload = "GPGGA,064951.000,2307.1256,N,12016.4438,E,1,8,0.95,39.9,M,17.8,M,,"
	rmcPayload = "GPRMC,064951.000,A,2307.1256,N,12016.4438,E,0.03,165.48,260406,,,A"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

// frameOf drops the leading '$' like the frame assembler does.
func frameOf(payload string) []byte {
	return []byte(nmeaLine(payload)[1:])
}

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestDecodeSentence_GGA(t *testing.T) {
	var fix PositionFix
	kind, err := DecodeSentence(frameOf(ggaPayload), &fix)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if kind != KindGGA {
		t.Fatalf("kind=%v want GGA", kind)
	}
	if fix.Quality != FixStandalone || fix.Satellites != 8 {
		t.Fatalf("fix=%d sats=%d", fix.Quality, fix.Satellites)
	}
	if !near(fix.HDOP, 0.95, 1e-9) || !near(fix.AltitudeM, 39.9, 1e-9) {
		t.Fatalf("hdop=%v alt=%v", fix.HDOP, fix.AltitudeM)
	}
	// GGA must not touch RMC fields.
	if fix.LatDeg != 0 || fix.Hour != 0 {
		t.Fatalf("GGA wrote RMC fields: %+v", fix)
	}
}

func TestDecodeSentence_RMC(t *testing.T) {
	var fix PositionFix
	kind, err := DecodeSentence(frameOf(rmcPayload), &fix)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if kind != KindRMC {
		t.Fatalf("kind=%v want RMC", kind)
	}
	if fix.Hour != 6 || fix.Minute != 49 || fix.Second != 51 || fix.Millisecond != 0 {
		t.Fatalf("time=%02d:%02d:%02d.%03d", fix.Hour, fix.Minute, fix.Second, fix.Millisecond)
	}
	if !near(fix.LatDeg, 23.11876, 1e-6) {
		t.Fatalf("lat=%v", fix.LatDeg)
	}
	if !near(fix.LonDeg, 120.274063, 1e-6) {
		t.Fatalf("lon=%v", fix.LonDeg)
	}
	if !near(fix.SpeedKmh, 0.05556, 1e-9) {
		t.Fatalf("spd=%v", fix.SpeedKmh)
	}
	if !near(fix.HeadingDeg, 165.48, 1e-9) {
		t.Fatalf("heading=%v", fix.HeadingDeg)
	}
	if fix.Day != 26 || fix.Month != 4 || fix.Year != 6 {
		t.Fatalf("date=%d/%d/%d", fix.Day, fix.Month, fix.Year)
	}
}

func TestDecodeSentence_RMCSouthWestAndMillis(t *testing.T) {
	var fix PositionFix
	_, err := DecodeSentence(frameOf("GNRMC,235959.250,A,4807.0380,S,01131.0000,W,10.0,084.4,311299,,,A"), &fix)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fix.Hour != 23 || fix.Minute != 59 || fix.Second != 59 || fix.Millisecond != 250 {
		t.Fatalf("time=%+v", fix)
	}
	if !near(fix.LatDeg, -(48 + 7.038/60), 1e-9) {
		t.Fatalf("lat=%v", fix.LatDeg)
	}
	if !near(fix.LonDeg, -(11 + 31.0/60), 1e-9) {
		t.Fatalf("lon=%v", fix.LonDeg)
	}
	if !near(fix.SpeedKmh, 18.52, 1e-9) {
		t.Fatalf("spd=%v", fix.SpeedKmh)
	}
	if fix.Day != 31 || fix.Month != 12 || fix.Year != 99 {
		t.Fatalf("date=%d/%d/%d", fix.Day, fix.Month, fix.Year)
	}
}

func TestDecodeSentence_FiveFractionDigits(t *testing.T) {
	var fix PositionFix
	_, err := DecodeSentence(frameOf("GNRMC,064951.00,A,2307.12560,N,12016.44380,E,0.03,165.48,260406,,,A"), &fix)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !near(fix.LatDeg, 23.11876, 1e-9) || !near(fix.LonDeg, 120.2740633333, 1e-9) {
		t.Fatalf("lat=%v lon=%v", fix.LatDeg, fix.LonDeg)
	}
}

func TestDecodeSentence_EmptyFieldsBeforeFix(t *testing.T) {
	fix := PositionFix{Quality: FixStandalone, Satellites: 5, HDOP: 1.2, AltitudeM: 100}
	kind, err := DecodeSentence(frameOf("GPGGA,,,,,,0,00,,,M,,M,,"), &fix)
	if err != nil || kind != KindGGA {
		t.Fatalf("kind=%v err=%v", kind, err)
	}
	if fix.Quality != FixNone || fix.Satellites != 0 || fix.HDOP != 0 || fix.AltitudeM != 0 {
		t.Fatalf("fix=%+v", fix)
	}
}

func TestDecodeSentence_ChecksumMismatch(t *testing.T) {
	good := nmeaLine(ggaPayload)
	bad := good[1:len(good)-2] + "00"
	var fix PositionFix
	_, err := DecodeSentence([]byte(bad), &fix)
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("err=%v want ErrChecksum", err)
	}
}

func TestDecodeSentence_AnySingleByteMutationIsRejected(t *testing.T) {
	for _, payload := range []string{ggaPayload, rmcPayload} {
		orig := frameOf(payload)
		for i := 0; i < len(payload); i++ {
			frame := append([]byte(nil), orig...)
			frame[i] ^= 0x01
			before := PositionFix{Satellites: 42, LatDeg: 1.5, Year: 99}
			fix := before
			if _, err := DecodeSentence(frame, &fix); err == nil {
				t.Fatalf("%s: mutation at %d accepted: %q", payload[:5], i, frame)
			}
			if fix != before {
				t.Fatalf("%s: mutation at %d changed fix: %+v", payload[:5], i, fix)
			}
		}
	}
}

func TestDecodeSentence_MalformedNumberFailsSentence(t *testing.T) {
	cases := []string{
		"GPGGA,064951.000,2307.1256,N,12016.4438,E,1,8x,0.95,39.9,M,17.8,M,,",
		"GPGGA,064951.000,2307.1256,N,12016.4438,E,1,8,NaN,39.9,M,17.8,M,,",
		"GPGGA,064951.000,2307.1256,N,12016.4438,E,1,8,0.95,3.9.9,M,17.8,M,,",
		"GPRMC,06a951.000,A,2307.1256,N,12016.4438,E,0.03,165.48,260406,,,A",
		"GPRMC,064951.000,A,2307.1256,Q,12016.4438,E,0.03,165.48,260406,,,A",
		"GPRMC,064951.000,A,2367.1256,N,12016.4438,E,0.03,165.48,260406,,,A",
		"GPRMC,064951.000,A,2307.1256,N,12016.4438,E,fast,165.48,260406,,,A",
		"GPRMC,064951.000,A,2307.1256,N,12016.4438,E,0.03,165.48,26o406,,,A",
		"GPRMC,064951.000,A,2307.1256,N,12016.4438,E,0.03,165.48,261306,,,A",
	}
	for _, c := range cases {
		before := PositionFix{Satellites: 3}
		fix := before
		_, err := DecodeSentence(frameOf(c), &fix)
		if !errors.Is(err, ErrMalformedField) {
			t.Fatalf("%q: err=%v want ErrMalformedField", c, err)
		}
		if fix != before {
			t.Fatalf("%q: fix modified: %+v", c, fix)
		}
	}
}

func TestDecodeSentence_Unrecognized(t *testing.T) {
	var fix PositionFix
	for _, c := range []string{"GPGSA,A,3,,,,*00", "PMTK001,314,3*36", "GP"} {
		kind, err := DecodeSentence([]byte(c), &fix)
		if kind != KindUnknown || !errors.Is(err, ErrUnrecognized) {
			t.Fatalf("%q: kind=%v err=%v", c, kind, err)
		}
	}
}

func TestDecodeSentence_MissingOrBadChecksumField(t *testing.T) {
	var fix PositionFix
	if _, err := DecodeSentence([]byte(ggaPayload), &fix); !errors.Is(err, ErrNoChecksum) {
		t.Fatalf("err=%v want ErrNoChecksum", err)
	}
	if _, err := DecodeSentence([]byte(ggaPayload+"*G1"), &fix); !errors.Is(err, ErrMalformedField) {
		t.Fatalf("err=%v want ErrMalformedField", err)
	}
	if _, err := DecodeSentence([]byte(ggaPayload+"*6"), &fix); !errors.Is(err, ErrMalformedField) {
		t.Fatalf("err=%v want ErrMalformedField", err)
	}
}

func TestDecodeSentence_ShortSentence(t *testing.T) {
	var fix PositionFix
	if _, err := DecodeSentence(frameOf("GPGGA,064951.000,2307.1256,N"), &fix); !errors.Is(err, ErrShortSentence) {
		t.Fatalf("err=%v want ErrShortSentence", err)
	}
}

func TestDecodeSentence_TrailingCR(t *testing.T) {
	var fix PositionFix
	frame := append(frameOf(ggaPayload), '\r')
	if _, err := DecodeSentence(frame, &fix); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

// The hand decoder must agree with go-nmea on the fields both produce.
func TestDecodeSentence_AgreesWithGoNMEA(t *testing.T) {
	var fix PositionFix
	for _, p := range []string{ggaPayload, rmcPayload} {
		if _, err := DecodeSentence(frameOf(p), &fix); err != nil {
			t.Fatalf("decode %s: %v", p[:5], err)
		}
	}

	s, err := nmea.Parse(nmeaLine(ggaPayload))
	if err != nil {
		t.Fatalf("go-nmea GGA: %v", err)
	}
	gga := s.(nmea.GGA)
	if int64(fix.Satellites) != gga.NumSatellites || !near(fix.HDOP, gga.HDOP, 1e-9) || !near(fix.AltitudeM, gga.Altitude, 1e-9) {
		t.Fatalf("GGA mismatch: ours=%+v theirs=%+v", fix, gga)
	}

	s, err = nmea.Parse(nmeaLine(rmcPayload))
	if err != nil {
		t.Fatalf("go-nmea RMC: %v", err)
	}
	rmc := s.(nmea.RMC)
	if !near(fix.LatDeg, rmc.Latitude, 1e-6) || !near(fix.LonDeg, rmc.Longitude, 1e-6) {
		t.Fatalf("position mismatch: ours=(%v,%v) theirs=(%v,%v)", fix.LatDeg, fix.LonDeg, rmc.Latitude, rmc.Longitude)
	}
	if fix.Hour != rmc.Time.Hour || fix.Minute != rmc.Time.Minute || fix.Second != rmc.Time.Second {
		t.Fatalf("time mismatch: ours=%+v theirs=%+v", fix, rmc.Time)
	}
	if fix.Day != rmc.Date.DD || fix.Month != rmc.Date.MM || fix.Year != rmc.Date.YY {
		t.Fatalf("date mismatch: ours=%+v theirs=%+v", fix, rmc.Date)
	}
	if !near(fix.SpeedKmh, rmc.Speed*1.852, 1e-9) || !near(fix.HeadingDeg, rmc.Course, 1e-9) {
		t.Fatalf("motion mismatch")
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum([]byte("PMTK220,1000")); got != 0x1F {
		t.Fatalf("checksum=0x%02X want 0x1F", got)
	}
}
