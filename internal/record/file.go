package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultSeparator separates fields in the text log.
const DefaultSeparator = "|"

var header = []string{
	"Fix", "sats", "HDOP", "alt(m)", "Date", "Time", "lat", "Long", "Spd(kmh)", "Head",
	"temp", "hpa", "hpa0", "alt",
}

// Header returns the column header line, without newline.
func Header(sep string) string {
	return strings.Join(header, sep) + sep
}

// FormatLine renders r as one text log line, without newline. Every field is
// followed by sep.
func FormatLine(r Record, sep string) string {
	f := r.Fix
	b := r.Baro
	fields := []string{
		strconv.Itoa(int(f.Quality)),
		strconv.Itoa(f.Satellites),
		strconv.FormatFloat(f.HDOP, 'f', 2, 64),
		strconv.FormatFloat(f.AltitudeM, 'f', 2, 64),
		fmt.Sprintf("20%02d%02d%02d", f.Year, f.Month, f.Day),
		fmt.Sprintf("%02d%02d%02d.%03d", f.Hour, f.Minute, f.Second, f.Millisecond),
		strconv.FormatFloat(f.LatDeg, 'f', 8, 64),
		strconv.FormatFloat(f.LonDeg, 'f', 8, 64),
		strconv.FormatFloat(f.SpeedKmh, 'f', 2, 64),
		strconv.FormatFloat(f.HeadingDeg, 'f', 2, 64),
		strconv.FormatFloat(b.TemperatureC, 'f', 1, 64),
		// The hpa and hpa0 columns hold pascals despite their names.
		strconv.Itoa(int(b.PressurePa)),
		strconv.FormatFloat(b.SeaLevelPa, 'f', 2, 64),
		strconv.FormatFloat(b.AltitudeM, 'f', 2, 64),
	}
	return strings.Join(fields, sep) + sep
}

// FileSink appends text log lines to a file. The header is written each
// time the file is opened, marking the start of a session.
type FileSink struct {
	f      io.WriteCloser
	w      *bufio.Writer
	sep    string
	closed bool
}

// OpenFile opens path for appending, creating it if needed.
func OpenFile(path, sep string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: open %s: %w", path, err)
	}
	s, err := NewFileSink(f, sep)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// NewFileSink writes the header to w and returns a sink owning w.
func NewFileSink(w io.WriteCloser, sep string) (*FileSink, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	s := &FileSink{f: w, w: bufio.NewWriterSize(w, 4096), sep: sep}
	if _, err := s.w.WriteString(Header(sep) + "\n"); err != nil {
		return nil, fmt.Errorf("record: write header: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return nil, fmt.Errorf("record: write header: %w", err)
	}
	return s, nil
}

// Write appends r and flushes, so a power cut loses at most the line being
// written.
func (s *FileSink) Write(r Record) error {
	if s.closed {
		return errors.New("record: file sink is closed")
	}
	if _, err := s.w.WriteString(FormatLine(r, s.sep) + "\n"); err != nil {
		return fmt.Errorf("record: write: %w", err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("record: flush: %w", err)
	}
	if syncer, ok := s.f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return fmt.Errorf("record: sync: %w", err)
		}
	}
	return nil
}

func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}
