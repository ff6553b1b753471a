package gps

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pump drains a blocking byte source on its own goroutine and hands chunks to
// the control loop through C. The parser never leaves the control loop.
type Pump struct {
	src io.ReadCloser
	out chan []byte
	log logrus.FieldLogger

	mu  sync.Mutex
	err error

	done      chan struct{}
	closeOnce sync.Once
}

// NewPump wraps src. buffered is the number of chunks that may queue up
// before the reader goroutine waits for the control loop.
func NewPump(src io.ReadCloser, buffered int, log logrus.FieldLogger) *Pump {
	if buffered <= 0 {
		buffered = 16
	}
	return &Pump{src: src, out: make(chan []byte, buffered), log: log, done: make(chan struct{})}
}

// C delivers byte chunks. It is closed when the source ends or the pump is
// closed; Err then reports why.
func (p *Pump) C() <-chan []byte { return p.out }

// Run reads until ctx is cancelled or the source fails.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.out)
	defer close(p.done)

	go func() {
		select {
		case <-ctx.Done():
			// Unblock the pending Read.
			_ = p.Close()
		case <-p.done:
		}
	}()

	buf := make([]byte, 256)
	for {
		n, err := p.src.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				p.log.WithError(err).Warn("gps source read failed")
			}
			p.setErr(err)
			return
		}
	}
}

func (p *Pump) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Err returns the error that stopped the pump, if any.
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close closes the underlying source.
func (p *Pump) Close() error {
	var err error
	p.closeOnce.Do(func() { err = p.src.Close() })
	return err
}
