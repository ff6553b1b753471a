package gps

// DefaultFrameCapacity matches the receiver's 120 character sentence buffer.
const DefaultFrameCapacity = 120

// PushStatus is the outcome of feeding one byte to a FrameAssembler.
type PushStatus int

const (
	// PushPending means no frame was completed by this byte.
	PushPending PushStatus = iota
	// PushComplete means a LF terminated the current frame.
	PushComplete
	// PushOverflow means the frame hit capacity and was discarded.
	PushOverflow
)

func (s PushStatus) String() string {
	switch s {
	case PushPending:
		return "pending"
	case PushComplete:
		return "complete"
	case PushOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// FrameAssembler accumulates bytes between a '$' and the next LF.
//
// The stored frame excludes both delimiters. Bytes outside a frame are
// dropped. The buffer never grows past its capacity: a frame that would
// exceed it is discarded and the assembler waits for the next '$'.
type FrameAssembler struct {
	buf     []byte
	inFrame bool
}

func NewFrameAssembler(capacity int) *FrameAssembler {
	if capacity <= 0 {
		capacity = DefaultFrameCapacity
	}
	return &FrameAssembler{buf: make([]byte, 0, capacity)}
}

// Cap returns the maximum number of bytes a frame may hold.
func (a *FrameAssembler) Cap() int { return cap(a.buf) }

// Push consumes one byte.
//
// On PushComplete the returned frame aliases the internal buffer and is only
// valid until the next call to Push.
func (a *FrameAssembler) Push(b byte) ([]byte, PushStatus) {
	if b == '$' {
		// A start delimiter always opens a fresh frame; any partial frame is
		// garbage at this point.
		a.buf = a.buf[:0]
		a.inFrame = true
		return nil, PushPending
	}
	if !a.inFrame {
		return nil, PushPending
	}
	if b == '\n' {
		a.inFrame = false
		frame := a.buf
		a.buf = a.buf[:0]
		return frame, PushComplete
	}
	if len(a.buf) == cap(a.buf) {
		a.Reset()
		return nil, PushOverflow
	}
	a.buf = append(a.buf, b)
	return nil, PushPending
}

// Reset drops any partial frame and returns to hunting for '$'.
func (a *FrameAssembler) Reset() {
	a.buf = a.buf[:0]
	a.inFrame = false
}
