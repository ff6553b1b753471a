package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gpslogger/internal/gps"
)

type logSummary struct {
	Sessions    int
	Records     int
	Invalid     int
	FixCounts   map[int]int
	MaxSats     int
	First, Last string
}

// summarizeRecordLog reads a text record log. The separator is taken from
// each session header, so logs written with different separators can be
// concatenated.
func summarizeRecordLog(r io.Reader) (logSummary, error) {
	s := logSummary{FixCounts: map[int]int{}}
	sep := "|"

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Fix") {
			s.Sessions++
			// The separator is whatever sits between the first two columns.
			if between, _, ok := strings.Cut(line[3:], "sats"); ok && between != "" {
				sep = between
			}
			continue
		}

		fields := strings.Split(line, sep)
		if len(fields) < 14 {
			s.Invalid++
			continue
		}
		fix, err := strconv.Atoi(fields[0])
		if err != nil {
			s.Invalid++
			continue
		}
		sats, err := strconv.Atoi(fields[1])
		if err != nil {
			s.Invalid++
			continue
		}
		s.Records++
		s.FixCounts[fix]++
		if sats > s.MaxSats {
			s.MaxSats = sats
		}
		stamp := fields[4] + " " + fields[5]
		if s.First == "" {
			s.First = stamp
		}
		s.Last = stamp
	}
	if err := sc.Err(); err != nil {
		return s, err
	}
	if s.Sessions == 0 && s.Records > 0 {
		s.Sessions = 1
	}
	return s, nil
}

func printSummary(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := summarizeRecordLog(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	fmt.Fprintf(w, "sessions=%d records=%d invalid=%d max_sats=%d\n", s.Sessions, s.Records, s.Invalid, s.MaxSats)
	if s.Records > 0 {
		fmt.Fprintf(w, "first=%s last=%s\n", s.First, s.Last)
	}
	keys := make([]int, 0, len(s.FixCounts))
	for k := range s.FixCounts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "fix %s: %d\n", gps.FixQuality(k), s.FixCounts[k])
	}
	return nil
}
