package serialport

import (
	"context"
	"io"
	"time"

	"midirouter-go/x/mathx"
	"midirouter-go/x/shmring"
)

// AsyncReader turns a blocking byte stream (a host tty, stdin) into a
// pollable line. A background goroutine moves whatever the stream yields
// into a receive ring; Buffered and Read only look at that ring. Bytes
// that arrive while the ring is full are dropped.
type AsyncReader struct {
	r    io.Reader
	w    io.Writer
	rx   *shmring.Ring
	lost uint32
	done chan struct{}
	err  error
}

// NewAsyncReader starts the reader goroutine; it exits when ctx is done
// or the stream reaches EOF. w may be nil for receive-only streams.
func NewAsyncReader(ctx context.Context, r io.Reader, w io.Writer, ring int) *AsyncReader {
	a := &AsyncReader{
		r:    r,
		w:    w,
		rx:   shmring.New(mathx.Coalesce(ring, DefaultRing)),
		done: make(chan struct{}),
	}
	go a.run(ctx)
	return a
}

func (a *AsyncReader) run(ctx context.Context) {
	defer close(a.done)
	buf := make([]byte, 64)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := a.r.Read(buf)
		if n > 0 {
			if w := a.rx.TryWriteFrom(buf[:n]); w < n {
				a.lost += uint32(n - w)
			}
		}
		if err != nil {
			a.err = err
			if err == io.EOF {
				return
			}
			// transient: back off and retry
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
		}
	}
}

func (a *AsyncReader) Buffered() int { return a.rx.Available() }

func (a *AsyncReader) Read(p []byte) (int, error) { return a.rx.TryReadInto(p), nil }

func (a *AsyncReader) Write(p []byte) (int, error) {
	if a.w == nil {
		return len(p), nil
	}
	return a.w.Write(p)
}

// Readable fires when the receive ring goes from empty to non-empty.
func (a *AsyncReader) Readable() <-chan struct{} { return a.rx.Readable() }

// Done is closed when the reader goroutine exits.
func (a *AsyncReader) Done() <-chan struct{} { return a.done }

// Err is the last stream error; only meaningful after Done.
func (a *AsyncReader) Err() error { return a.err }

// Lost counts received bytes dropped on a full ring. Read it after Done.
func (a *AsyncReader) Lost() uint32 { return a.lost }
