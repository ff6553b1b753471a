package gps

import "fmt"

// FixQuality is the GGA position fix indicator.
type FixQuality int

const (
	FixNone         FixQuality = 0
	FixStandalone   FixQuality = 1
	FixDifferential FixQuality = 2
)

func (q FixQuality) String() string {
	switch q {
	case FixNone:
		return "none"
	case FixStandalone:
		return "gps"
	case FixDifferential:
		return "dgps"
	default:
		return fmt.Sprintf("fix(%d)", int(q))
	}
}

// PositionFix is one positioning record, filled in by GGA and RMC.
type PositionFix struct {
	// GGA.
	Quality    FixQuality `json:"fix"`
	Satellites int        `json:"sats"`
	HDOP       float64    `json:"hdop"`
	AltitudeM  float64    `json:"alt_m"`

	// RMC.
	Hour        int     `json:"hour"`
	Minute      int     `json:"minute"`
	Second      int     `json:"second"`
	Millisecond int     `json:"millisecond"`
	LatDeg      float64 `json:"lat"`
	LonDeg      float64 `json:"lon"`
	SpeedKmh    float64 `json:"spd_kmh"`
	HeadingDeg  float64 `json:"heading"`
	Day         int     `json:"day"`
	Month       int     `json:"month"`
	// Year is two digits; the century is 2000.
	Year int `json:"year"`
}

// FixAggregator latches which sentence kinds contributed since the last
// ready report.
type FixAggregator struct {
	gga bool
	rmc bool
}

// Mark records a successful decode of kind and reports whether the fix is now
// complete. Both latches clear on the report, so each complete fix is reported
// exactly once.
func (a *FixAggregator) Mark(kind SentenceKind) bool {
	switch kind {
	case KindGGA:
		a.gga = true
	case KindRMC:
		a.rmc = true
	default:
		return false
	}
	if a.gga && a.rmc {
		a.gga, a.rmc = false, false
		return true
	}
	return false
}

// Pending returns the current latch state.
func (a *FixAggregator) Pending() (gga, rmc bool) { return a.gga, a.rmc }

func (a *FixAggregator) Reset() { a.gga, a.rmc = false, false }
