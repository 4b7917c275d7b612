package midijack

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aethertone/midi/sdk/contracts"
)

const (
	// ringBufferSize is the capacity of each outbound ringbuffer in bytes.
	ringBufferSize = 16384
	// sizeRecordLen is the width of one length record in the size ring.
	sizeRecordLen = 4
)

// ErrPortRegister is the driver-level failure raised when the server refuses
// to register a port during an explicit open.
var ErrPortRegister = errors.New("midijack: error creating port")

// portSlot wraps a Port so the registered-port slot can be swapped
// atomically between the user thread and the process callback.
type portSlot struct {
	p Port
}

// jackData is the state shared between the user thread and the process
// callback. The callback reaches it as the method receiver and must not
// block or allocate while holding it.
type jackData struct {
	client Client
	port   atomic.Pointer[portSlot]

	// Outbound handoff, output backends only. One producer (SendMessage),
	// one consumer (the process callback). The payload is written before its
	// length record so a readable record always has its payload in place.
	buffSize    *ringBuffer
	buffMessage *ringBuffer
	scratch     []byte // callback-side staging, sized to the payload ring
	outDropped  atomic.Uint64

	// Shutdown handshake, output backends only. ClosePort signals
	// shutdownReq and waits on shutdownAck; the callback acks on the first
	// invocation that observes the request.
	shutdownReq *binarySemaphore
	shutdownAck *binarySemaphore

	// lastTime is the server clock at the previous input event. Real-time
	// thread only.
	lastTime uint64

	// in binds the callback to the application input state. Non-owning.
	in *inputState
}

// register creates the local port if none exists. A second open while a port
// exists is a no-op.
func (d *jackData) register(name string, direction PortDirection) error {
	if d.port.Load() != nil {
		return nil
	}
	if d.client == nil {
		return fmt.Errorf("%w: JACK server unavailable", ErrPortRegister)
	}
	p, err := d.client.RegisterPort(name, direction)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPortRegister, err)
	}
	d.port.Store(&portSlot{p: p})
	return nil
}

// unregister removes the port if present, exactly once across concurrent
// callers.
func (d *jackData) unregister() error {
	slot := d.port.Swap(nil)
	if slot == nil {
		return nil
	}
	return d.client.UnregisterPort(slot.p)
}

// inputState is the application-side input binding the process callback
// delivers into. The callback reads the delivery mode and flags and pushes
// to the queue; the application owns everything else.
type inputState struct {
	queue    chan contracts.Message
	callback atomic.Value // contracts.MessageHandler
	dropped  atomic.Uint64

	// firstMessage is true until the first event after construction. Set
	// before the client is activated, cleared on the real-time thread.
	firstMessage bool

	// continueSysex marks a multi-buffer sysex reassembly in progress on the
	// application side; events are discarded while it is set.
	continueSysex atomic.Bool

	ignoreSysex atomic.Bool
	ignoreTime  atomic.Bool
	ignoreSense atomic.Bool

	// filter, when non-nil, allow-lists commands before delivery. Installed
	// at construction, read on the real-time thread.
	filter *contracts.MIDIEventFilter
}

// handler returns the installed callback, or nil for queue delivery.
func (s *inputState) handler() contracts.MessageHandler {
	fn, _ := s.callback.Load().(contracts.MessageHandler)
	return fn
}

// skip reports whether a message with the given status byte should be
// discarded before delivery.
func (s *inputState) skip(status byte) bool {
	switch {
	case status == 0xF0 && s.ignoreSysex.Load():
		return true
	case (status == 0xF1 || status == 0xF8) && s.ignoreTime.Load():
		return true
	case status == 0xFE && s.ignoreSense.Load():
		return true
	}
	if f := s.filter; f != nil && len(f.Commands) > 0 {
		cmd := status
		if status < 0xF0 {
			cmd = status & 0xF0
		}
		if !commandAllowed(cmd, f.Commands) {
			return true
		}
	}
	return false
}

func commandAllowed(command byte, allowed []contracts.MIDICommand) bool {
	for _, c := range allowed {
		if command == byte(c) {
			return true
		}
	}
	return false
}
