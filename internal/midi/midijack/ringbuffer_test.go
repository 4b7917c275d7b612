package midijack

import (
	"bytes"
	"testing"
)

func TestRingBufferRoundsCapacityUp(t *testing.T) {
	r := newRingBuffer(100)
	if got := r.Capacity(); got != 128 {
		t.Fatalf("Capacity = %d, want 128", got)
	}
	r = newRingBuffer(ringBufferSize)
	if got := r.Capacity(); got != ringBufferSize {
		t.Fatalf("Capacity = %d, want %d", got, ringBufferSize)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	r := newRingBuffer(16)

	first := []byte("0123456789")
	if n := r.Write(first); n != len(first) {
		t.Fatalf("Write = %d, want %d", n, len(first))
	}
	got := make([]byte, len(first))
	if n := r.Read(got); n != len(first) || !bytes.Equal(got, first) {
		t.Fatalf("Read = %d %q", n, got)
	}

	// The next write straddles the end of the backing slice.
	second := []byte("abcdefghijkl")
	if n := r.Write(second); n != len(second) {
		t.Fatalf("wrapping Write = %d, want %d", n, len(second))
	}
	got = make([]byte, len(second))
	if n := r.Read(got); n != len(second) || !bytes.Equal(got, second) {
		t.Fatalf("wrapping Read = %d %q", n, got)
	}
}

func TestRingBufferSpaceAccounting(t *testing.T) {
	r := newRingBuffer(16)
	if r.ReadSpace() != 0 || r.WriteSpace() != 16 {
		t.Fatalf("fresh ring: read %d write %d", r.ReadSpace(), r.WriteSpace())
	}
	r.Write([]byte{1, 2, 3})
	if r.ReadSpace() != 3 || r.WriteSpace() != 13 {
		t.Fatalf("after write: read %d write %d", r.ReadSpace(), r.WriteSpace())
	}
	r.Read(make([]byte, 2))
	if r.ReadSpace() != 1 || r.WriteSpace() != 15 {
		t.Fatalf("after read: read %d write %d", r.ReadSpace(), r.WriteSpace())
	}
}

func TestRingBufferWriteIsBoundedByFreeSpace(t *testing.T) {
	r := newRingBuffer(8)
	if n := r.Write([]byte("abcdef")); n != 6 {
		t.Fatalf("Write = %d, want 6", n)
	}
	if n := r.Write([]byte("ghijkl")); n != 2 {
		t.Fatalf("overflowing Write = %d, want 2", n)
	}
	got := make([]byte, 8)
	if n := r.Read(got); n != 8 || !bytes.Equal(got, []byte("abcdefgh")) {
		t.Fatalf("Read = %d %q", n, got)
	}
	if n := r.Read(got); n != 0 {
		t.Fatalf("Read on empty ring = %d, want 0", n)
	}
}

func TestRingBufferSingleProducerSingleConsumer(t *testing.T) {
	r := newRingBuffer(64)
	const total = 100000

	done := make(chan struct{})
	go func() {
		defer close(done)
		var next byte
		buf := make([]byte, 7)
		read := 0
		for read < total {
			n := r.Read(buf)
			for i := 0; i < n; i++ {
				if buf[i] != next {
					t.Errorf("byte %d = %d, want %d", read+i, buf[i], next)
					return
				}
				next++
			}
			read += n
		}
	}()

	var next byte
	chunk := make([]byte, 13)
	written := 0
	for written < total {
		n := len(chunk)
		if remaining := total - written; n > remaining {
			n = remaining
		}
		v := next
		for i := 0; i < n; i++ {
			chunk[i] = v
			v++
		}
		w := r.Write(chunk[:n])
		next += byte(w)
		written += w
	}
	<-done
}
