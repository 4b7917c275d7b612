package midijack

import "time"

// binarySemaphore is an event-style semaphore. Notify sets it, TryWait and
// WaitTimeout consume it. Repeated notifies before a wait collapse into one.
// Notify and TryWait never block, so both are safe on the real-time thread.
type binarySemaphore struct {
	c chan struct{}
}

func newBinarySemaphore() *binarySemaphore {
	return &binarySemaphore{c: make(chan struct{}, 1)}
}

// Notify signals the semaphore.
func (s *binarySemaphore) Notify() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// TryWait consumes the signal if present and reports whether it did.
func (s *binarySemaphore) TryWait() bool {
	select {
	case <-s.c:
		return true
	default:
		return false
	}
}

// WaitTimeout blocks until the semaphore is signalled or d elapses. It
// reports whether the signal was consumed.
func (s *binarySemaphore) WaitTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.c:
		return true
	case <-t.C:
		return false
	}
}
