package shmring

import (
	"testing"
)

// fakeIO models partial producer progress (accept up to k bytes).
type fakeIO struct{ k int }

func (f fakeIO) write(p []byte) int {
	if len(p) > f.k {
		return f.k
	}
	return len(p)
}

func TestOrderAcrossWrapWithPartialProgress(t *testing.T) {
	r := New(64)
	prod := fakeIO{k: 7}

	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	p := src
	dst := make([]byte, N)
	off := 0

	for off < N {
		if len(p) > 0 {
			if step := prod.write(p); step > 0 {
				step = r.TryWriteFrom(p[:step])
				p = p[step:]
			}
		}
		var tmp [17]byte
		n := r.TryReadInto(tmp[:])
		copy(dst[off:], tmp[:n])
		off += n
	}

	for i := 0; i < N; i++ {
		if dst[i] != src[i] {
			t.Fatalf("mismatch at %d: got=%d want=%d", i, dst[i], src[i])
		}
	}
}

func TestPartialAcceptWhenFull(t *testing.T) {
	r := New(8)
	if n := r.TryWriteFrom([]byte{1, 2, 3, 4, 5}); n != 5 {
		t.Fatalf("first write = %d", n)
	}
	if n := r.TryWriteFrom([]byte{6, 7, 8, 9, 10}); n != 3 {
		t.Fatalf("second write = %d, want 3", n)
	}
	if r.Space() != 0 || r.Available() != 8 {
		t.Fatalf("space=%d avail=%d", r.Space(), r.Available())
	}
	if n := r.TryWriteFrom([]byte{11}); n != 0 {
		t.Fatalf("write into full ring = %d", n)
	}
	got := make([]byte, 8)
	if n := r.TryReadInto(got); n != 8 {
		t.Fatalf("read = %d", n)
	}
	for i, b := range got {
		if b != byte(i+1) {
			t.Fatalf("got[%d]=%d", i, b)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	r := New(4)
	r.TryWriteFrom([]byte{9, 8})
	var tmp [4]byte
	if n := r.Peek(tmp[:]); n != 2 || tmp[0] != 9 {
		t.Fatalf("peek n=%d tmp=%v", n, tmp)
	}
	if r.Available() != 2 {
		t.Fatalf("peek consumed: avail=%d", r.Available())
	}
	if n := r.Discard(1); n != 1 || r.Available() != 1 {
		t.Fatalf("discard n=%d avail=%d", n, r.Available())
	}
	r.Reset()
	if r.Available() != 0 {
		t.Fatal("reset left bytes behind")
	}
}

func TestReadableWritableEdges(t *testing.T) {
	r := New(4)
	select {
	case <-r.Readable():
		t.Fatal("unexpected Readable on empty ring")
	default:
	}
	r.TryWriteFrom([]byte{1, 2, 3, 4})
	select {
	case <-r.Readable():
	default:
		t.Fatal("expected Readable")
	}
	r.TryReadInto(make([]byte, 1))
	select {
	case <-r.Writable():
	default:
		t.Fatal("expected Writable after leaving full")
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for size 48")
		}
	}()
	New(48)
}
