package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `Fix|sats|HDOP|alt(m)|Date|Time|lat|Long|Spd(kmh)|Head|temp|hpa|hpa0|alt|
1|8|0.95|39.90|20060426|064951.000|23.11876000|120.27406333|0.06|165.48|15.0|69964|101325.00|3016.74|
2|9|0.80|40.10|20060426|064952.000|23.11876000|120.27406333|0.06|165.48|15.0|69964|101325.00|3016.74|
garbage
Fix,sats,HDOP,alt(m),Date,Time,lat,Long,Spd(kmh),Head,temp,hpa,hpa0,alt,
0,3,9.90,0.00,20060427,000001.000,0.00000000,0.00000000,0.00,0.00,15.0,69964,101325.00,3016.74,
`

func TestSummarizeRecordLog(t *testing.T) {
	s, err := summarizeRecordLog(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Sessions != 2 || s.Records != 3 || s.Invalid != 1 {
		t.Fatalf("summary=%+v", s)
	}
	if s.FixCounts[0] != 1 || s.FixCounts[1] != 1 || s.FixCounts[2] != 1 {
		t.Fatalf("fix counts=%v", s.FixCounts)
	}
	if s.MaxSats != 9 {
		t.Fatalf("max sats=%d", s.MaxSats)
	}
	if s.First != "20060426 064951.000" || s.Last != "20060427 000001.000" {
		t.Fatalf("first=%q last=%q", s.First, s.Last)
	}
}

func TestPrintSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpslog.txt")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var buf bytes.Buffer
	if err := printSummary(&buf, path); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"sessions=2 records=3", "fix gps: 1", "fix dgps: 1", "fix none: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummarizeRecordLog_MultiByteSeparator(t *testing.T) {
	log := "Fix, sats, HDOP, alt(m), Date, Time, lat, Long, Spd(kmh), Head, temp, hpa, hpa0, alt, \n" +
		"1, 7, 1.10, 12.00, 20240323, 123519.050, 48.11730000, 11.51666667, 41.48, 84.40, 15.0, 69964, 101325.00, 3016.74, \n"
	s, err := summarizeRecordLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Sessions != 1 || s.Records != 1 || s.Invalid != 0 {
		t.Fatalf("summary=%+v", s)
	}
	if s.MaxSats != 7 || s.First != "20240323 123519.050" {
		t.Fatalf("summary=%+v", s)
	}
}
