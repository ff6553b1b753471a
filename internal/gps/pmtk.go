package gps

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"
)

// MediaTek (MTK33x9) receivers are configured with proprietary PMTK sentences.

// Command frames a PMTK payload (without '$' and checksum) as a full sentence
// terminated with CRLF.
func Command(payload string) string {
	return fmt.Sprintf("$%s*%s\r\n", payload, nmea.Checksum(payload))
}

// OutputRMCGGA asks the receiver to emit only RMC and GGA, the two sentences
// the decoder uses.
func OutputRMCGGA() string {
	return Command("PMTK314,0,1,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0")
}

// UpdateRate sets the fix rate. Only 1, 5 and 10 Hz are accepted.
func UpdateRate(hz int) (string, error) {
	switch hz {
	case 1, 5, 10:
	default:
		return "", fmt.Errorf("gps: unsupported update rate %d Hz (want 1, 5 or 10)", hz)
	}
	return Command(fmt.Sprintf("PMTK220,%d", 1000/hz)), nil
}

// InitCommands returns the sentences sent to the receiver at startup.
func InitCommands(rateHz int) ([]string, error) {
	rate, err := UpdateRate(rateHz)
	if err != nil {
		return nil, err
	}
	return []string{OutputRMCGGA(), rate}, nil
}
