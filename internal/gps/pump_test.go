package gps

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPump_DeliversAllBytes(t *testing.T) {
	payload := strings.Repeat(nmeaLine(ggaPayload)+"\r\n", 20)
	p := NewPump(io.NopCloser(strings.NewReader(payload)), 4, testLogger())
	go p.Run(context.Background())

	var got bytes.Buffer
	timeout := time.After(2 * time.Second)
	for {
		select {
		case chunk, ok := <-p.C():
			if !ok {
				if got.String() != payload {
					t.Fatalf("got %d bytes want %d", got.Len(), len(payload))
				}
				if !errors.Is(p.Err(), io.EOF) {
					t.Fatalf("err=%v want EOF", p.Err())
				}
				return
			}
			got.Write(chunk)
		case <-timeout:
			t.Fatalf("pump did not finish")
		}
	}
}

type blockingSource struct {
	closed chan struct{}
}

func (b *blockingSource) Read(p []byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingSource) Close() error {
	close(b.closed)
	return nil
}

func TestPump_CancelUnblocksRead(t *testing.T) {
	src := &blockingSource{closed: make(chan struct{})}
	p := NewPump(src, 1, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if _, ok := <-p.C(); ok {
		t.Fatalf("channel should be closed")
	}
}
