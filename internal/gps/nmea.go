package gps

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SentenceKind identifies the NMEA sentences the decoder understands.
type SentenceKind int

const (
	KindUnknown SentenceKind = iota
	// KindGGA carries fix quality, satellites, HDOP and altitude.
	KindGGA
	// KindRMC carries time, position, speed, course and date.
	KindRMC
)

func (k SentenceKind) String() string {
	switch k {
	case KindGGA:
		return "GGA"
	case KindRMC:
		return "RMC"
	default:
		return "unknown"
	}
}

var (
	ErrUnrecognized   = errors.New("nmea: unrecognized sentence")
	ErrNoChecksum     = errors.New("nmea: missing checksum")
	ErrChecksum       = errors.New("nmea: checksum mismatch")
	ErrShortSentence  = errors.New("nmea: too few fields")
	ErrMalformedField = errors.New("nmea: malformed field")
)

const knotsToKmh = 1.852

// Checksum is the XOR of every byte in payload.
func Checksum(payload []byte) byte {
	ck := byte(0)
	for _, b := range payload {
		ck ^= b
	}
	return ck
}

// SentenceID returns the 5 character identifier of a frame, e.g. "GPRMC".
func SentenceID(frame []byte) string {
	if len(frame) < 5 {
		return ""
	}
	return string(frame[:5])
}

// kindOf accepts any two letter talker ("GP", "GN", "GL", ...).
func kindOf(id string) SentenceKind {
	if len(id) != 5 || !isUpper(id[0]) || !isUpper(id[1]) {
		return KindUnknown
	}
	switch id[2:] {
	case "GGA":
		return KindGGA
	case "RMC":
		return KindRMC
	default:
		return KindUnknown
	}
}

// DecodeSentence decodes one frame (the bytes after '$', without LF) into fix.
//
// fix is only modified when the whole sentence decodes: a checksum mismatch
// or a malformed field leaves it untouched.
func DecodeSentence(frame []byte, fix *PositionFix) (SentenceKind, error) {
	frame = bytes.TrimRight(frame, "\r")
	kind := kindOf(SentenceID(frame))
	if kind == KindUnknown {
		return KindUnknown, ErrUnrecognized
	}

	payload, err := verifyChecksum(frame)
	if err != nil {
		return kind, err
	}

	fields := strings.Split(string(payload), ",")
	next := *fix
	switch kind {
	case KindGGA:
		err = decodeGGA(fields, &next)
	case KindRMC:
		err = decodeRMC(fields, &next)
	}
	if err != nil {
		return kind, err
	}
	*fix = next
	return kind, nil
}

// verifyChecksum returns the checksum-covered payload of a frame.
func verifyChecksum(frame []byte) ([]byte, error) {
	star := bytes.IndexByte(frame, '*')
	if star == -1 {
		return nil, ErrNoChecksum
	}
	payload := frame[:star]
	ck := frame[star+1:]
	if len(ck) != 2 {
		return nil, fmt.Errorf("%w: checksum field %q", ErrMalformedField, ck)
	}
	var want [1]byte
	if _, err := hex.Decode(want[:], ck); err != nil {
		return nil, fmt.Errorf("%w: checksum field %q", ErrMalformedField, ck)
	}
	if got := Checksum(payload); got != want[0] {
		return nil, fmt.Errorf("%w: got 0x%02X want 0x%02X", ErrChecksum, got, want[0])
	}
	return payload, nil
}

// GGA: Global Positioning System Fix Data
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid, 1=GPS, 2=DGPS)
//	7: satellites in use
//	8: HDOP
//	9: altitude (meters)
func decodeGGA(f []string, fix *PositionFix) error {
	if len(f) < 10 {
		return fmt.Errorf("%w: GGA has %d", ErrShortSentence, len(f))
	}
	q, err := parseIntField("fix quality", f[6])
	if err != nil {
		return err
	}
	sats, err := parseIntField("satellites", f[7])
	if err != nil {
		return err
	}
	hdop, err := parseFloatField("hdop", f[8])
	if err != nil {
		return err
	}
	alt, err := parseFloatField("altitude", f[9])
	if err != nil {
		return err
	}
	fix.Quality = FixQuality(q)
	fix.Satellites = sats
	fix.HDOP = hdop
	fix.AltitudeM = alt
	return nil
}

// RMC: Recommended Minimum Specific GNSS Data
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
func decodeRMC(f []string, fix *PositionFix) error {
	if len(f) < 10 {
		return fmt.Errorf("%w: RMC has %d", ErrShortSentence, len(f))
	}
	var out PositionFix
	var err error
	out.Hour, out.Minute, out.Second, out.Millisecond, err = parseUTCTime(f[1])
	if err != nil {
		return err
	}
	out.LatDeg, err = parseLatLon("latitude", f[3], f[4], 'N', 'S')
	if err != nil {
		return err
	}
	out.LonDeg, err = parseLatLon("longitude", f[5], f[6], 'E', 'W')
	if err != nil {
		return err
	}
	knots, err := parseFloatField("speed", f[7])
	if err != nil {
		return err
	}
	out.HeadingDeg, err = parseFloatField("course", f[8])
	if err != nil {
		return err
	}
	out.Day, out.Month, out.Year, err = parseDate(f[9])
	if err != nil {
		return err
	}

	fix.Hour, fix.Minute, fix.Second, fix.Millisecond = out.Hour, out.Minute, out.Second, out.Millisecond
	fix.LatDeg = out.LatDeg
	fix.LonDeg = out.LonDeg
	fix.SpeedKmh = knots * knotsToKmh
	fix.HeadingDeg = out.HeadingDeg
	fix.Day, fix.Month, fix.Year = out.Day, out.Month, out.Year
	return nil
}

func malformed(name, v string) error {
	return fmt.Errorf("%w: %s %q", ErrMalformedField, name, v)
}

// Empty numeric fields are how receivers report "no value yet" and decode as
// zero. Anything else must be a well formed number.
func parseIntField(name, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	if !isDigits(v) {
		return 0, malformed(name, v)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, malformed(name, v)
	}
	return n, nil
}

func parseFloatField(name, v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	if !isDecimal(v) {
		return 0, malformed(name, v)
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, malformed(name, v)
	}
	return x, nil
}

// splitDecimal splits "1234.5678" into its digit runs.
func splitDecimal(name, v string) (whole, frac string, err error) {
	whole, frac, _ = strings.Cut(v, ".")
	if whole == "" || !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", "", malformed(name, v)
	}
	return whole, frac, nil
}

// parseUTCTime decodes hhmmss.sss.
func parseUTCTime(v string) (hour, minute, second, milli int, err error) {
	if v == "" {
		return 0, 0, 0, 0, nil
	}
	whole, frac, err := splitDecimal("time", v)
	if err != nil || len(whole) > 6 {
		return 0, 0, 0, 0, malformed("time", v)
	}
	t, _ := strconv.Atoi(whole)
	hour = t / 10000
	minute = (t % 10000) / 100
	second = t % 100
	if hour > 23 || minute > 59 || second > 60 {
		return 0, 0, 0, 0, malformed("time", v)
	}
	// Milliseconds come straight from the first three fraction digits so
	// ".250" is 250 and not 249 after a float round trip.
	ms := (frac + "000")[:3]
	milli, _ = strconv.Atoi(ms)
	return hour, minute, second, milli, nil
}

// parseLatLon decodes ddmm.mmmm / dddmm.mmmm plus hemisphere.
//
// With whole = digits before the point and frac = the n digits after it:
//
//	combined = (whole mod 100) * 10^n + frac   // minutes scaled by 10^n
//	degrees  = whole / 100 + combined / (60 * 10^n)
//
// For the usual four fraction digits the divisor is 600000.
func parseLatLon(name, v, hemi string, pos, neg byte) (float64, error) {
	if v == "" {
		return 0, nil
	}
	whole, frac, err := splitDecimal(name, v)
	if err != nil || len(whole) > 5 || len(frac) > 9 {
		return 0, malformed(name, v)
	}
	w, _ := strconv.ParseUint(whole, 10, 64)
	var fr uint64
	if frac != "" {
		fr, _ = strconv.ParseUint(frac, 10, 64)
	}
	scale := uint64(1)
	for range frac {
		scale *= 10
	}
	combined := (w%100)*scale + fr
	if combined >= 60*scale {
		return 0, malformed(name, v)
	}
	dec := float64(w/100) + float64(combined)/float64(60*scale)

	switch {
	case hemi == "" || (len(hemi) == 1 && hemi[0] == pos):
	case len(hemi) == 1 && hemi[0] == neg:
		dec = -dec
	default:
		return 0, malformed(name+" hemisphere", hemi)
	}
	return dec, nil
}

// parseDate decodes ddmmyy.
func parseDate(v string) (day, month, year int, err error) {
	if v == "" {
		return 0, 0, 0, nil
	}
	if !isDigits(v) || len(v) > 6 {
		return 0, 0, 0, malformed("date", v)
	}
	d, _ := strconv.Atoi(v)
	day = d / 10000
	month = (d % 10000) / 100
	year = d % 100
	if day > 31 || month > 12 {
		return 0, 0, 0, malformed("date", v)
	}
	return day, month, year, nil
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isDecimal accepts an optional sign, digits and at most one point.
// strconv.ParseFloat alone would also take "NaN", "Inf" and hex floats.
func isDecimal(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits := 0
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
