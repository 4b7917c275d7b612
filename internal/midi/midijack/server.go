// Package midijack implements the MIDI client contracts on top of a JACK
// audio/MIDI server. The server invokes a process callback once per period on
// a dedicated real-time thread; everything that thread touches is lock-free
// and allocation-free in steady state.
package midijack

import "errors"

// PortDirection tells the server which way a port carries MIDI.
type PortDirection int8

const (
	// In ports receive MIDI from peers.
	In PortDirection = iota
	// Out ports emit MIDI to peers.
	Out
)

// ProcessCallback is invoked by the server once per period on its real-time
// thread with the period's frame count. It must not block or allocate.
type ProcessCallback func(nframes uint32) int

// RawEvent is one MIDI event as presented by the server for a single period.
// Data aliases server-owned memory and is only valid inside the callback.
type RawEvent struct {
	Frame uint32
	Data  []byte
}

// Driver opens connections to a MIDI server. The real driver links against
// JACK and is compiled in with the `jack` build tag; without it a stub that
// always fails to open serves in its place.
type Driver interface {
	// Open connects to the server under the given client name without
	// auto-starting the server. It fails when the server is not running.
	Open(clientName string) (Client, error)
}

// Client is one open connection to the server.
type Client interface {
	// SetProcessCallback registers cb to run once per period. Must be called
	// before Activate.
	SetProcessCallback(cb ProcessCallback) error
	// Activate starts the server calling the process callback.
	Activate() error
	// RegisterPort creates a MIDI port owned by this client.
	RegisterPort(name string, direction PortDirection) (Port, error)
	// UnregisterPort removes a port. The process callback must no longer
	// touch the port's buffers by the time this is called.
	UnregisterPort(p Port) error
	// Ports lists the names of all MIDI ports of the given direction known
	// to the server, including other clients' ports. Any server-side memory
	// backing the list is released before returning.
	Ports(direction PortDirection) []string
	// ConnectPorts wires the named source port to the named destination.
	ConnectPorts(src, dst string) error
	// Time returns the server's monotonic clock in microseconds. Safe to
	// call from the process callback.
	Time() uint64
	// Close disconnects from the server.
	Close() error
}

// ErrRenameUnsupported is returned by Port.SetName when the server (or the
// binding) lacks the port rename capability; callers fall back to a local
// rename.
var ErrRenameUnsupported = errors.New("port rename not supported")

// Port is a registered MIDI port. The per-period buffer accessors are only
// valid on the real-time thread, inside the process callback.
type Port interface {
	// Name returns the full port name as known to the server.
	Name() string
	// SetName renames the port, or returns ErrRenameUnsupported.
	SetName(name string) error
	// MidiEvents returns the events delivered to this input port during the
	// current period, in buffer order.
	MidiEvents(nframes uint32) []RawEvent
	// MidiOutBuffer acquires and clears this output port's buffer for the
	// current period.
	MidiOutBuffer(nframes uint32) OutBuffer
}

// OutBuffer is an output port's buffer for one period.
type OutBuffer interface {
	// Write appends one event at the given frame offset. It fails when the
	// period buffer is out of space; the event is then lost.
	Write(frame uint32, data []byte) error
}
