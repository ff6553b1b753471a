package gps

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Stats counts what the parser did with the stream.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Decoded      uint64 `json:"decoded"`
	Ignored      uint64 `json:"ignored"`
	BadChecksum  uint64 `json:"bad_checksum"`
	Malformed    uint64 `json:"malformed"`
	Overflows    uint64 `json:"overflows"`
	FixesEmitted uint64 `json:"fixes"`
}

// Parser owns the whole byte-to-fix pipeline for one receiver.
//
// It is not safe for concurrent use; feed it from the goroutine that reads
// the fixes.
type Parser struct {
	frames *FrameAssembler
	fix    PositionFix
	agg    FixAggregator
	stats  Stats
	log    logrus.FieldLogger
}

func NewParser(frameCapacity int, log logrus.FieldLogger) *Parser {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Parser{frames: NewFrameAssembler(frameCapacity), log: log}
}

// PushByte feeds one byte and reports whether a complete fix is ready.
func (p *Parser) PushByte(b byte) bool {
	frame, st := p.frames.Push(b)
	switch st {
	case PushOverflow:
		p.stats.Overflows++
		p.log.WithField("capacity", p.frames.Cap()).Debug("nmea frame overflow, resynchronizing")
		return false
	case PushComplete:
		return p.handleFrame(frame)
	default:
		return false
	}
}

// Feed pushes every byte of b and calls onReady for each fix that becomes
// ready. It returns the number of ready fixes.
func (p *Parser) Feed(b []byte, onReady func(PositionFix)) int {
	n := 0
	for _, c := range b {
		if p.PushByte(c) {
			n++
			if onReady != nil {
				onReady(p.fix)
			}
		}
	}
	return n
}

func (p *Parser) handleFrame(frame []byte) bool {
	p.stats.Frames++
	kind, err := DecodeSentence(frame, &p.fix)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnrecognized):
		p.stats.Ignored++
		return false
	case errors.Is(err, ErrChecksum), errors.Is(err, ErrNoChecksum):
		p.stats.BadChecksum++
		p.log.WithField("sentence", kind).Debugf("nmea dropped: %v", err)
		return false
	default:
		p.stats.Malformed++
		p.log.WithField("sentence", kind).Debugf("nmea dropped: %v", err)
		return false
	}
	p.stats.Decoded++
	if p.agg.Mark(kind) {
		p.stats.FixesEmitted++
		return true
	}
	return false
}

// Fix returns the current position record. It is complete when the last
// PushByte returned true.
func (p *Parser) Fix() PositionFix { return p.fix }

func (p *Parser) Stats() Stats { return p.stats }
