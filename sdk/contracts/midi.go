package contracts

// API identifies the backend a client was built on.
type API int

const (
	// Unspecified lets the factory pick the default backend.
	Unspecified API = iota
	// UnixJack is the JACK audio/MIDI server backend.
	UnixJack
)

// String returns the human-readable backend name.
func (a API) String() string {
	switch a {
	case UnixJack:
		return "UNIX_JACK"
	default:
		return "unspecified"
	}
}

// Message is a single MIDI message as delivered by an input backend or handed
// to an output backend.
type Message struct {
	// Bytes holds the raw MIDI bytes, status byte first. The slice is owned by
	// the receiver; backends copy event data before delivery.
	Bytes []byte
	// Timestamp is the elapsed time in seconds since the previous input
	// message, measured on the server's monotonic clock. The first message
	// after a port is opened carries 0.
	Timestamp float64
}

// MessageHandler receives input messages on the server's real-time thread.
// Handlers must not block.
type MessageHandler func(Message)

// MIDI is the surface shared by input and output backends.
type MIDI interface {
	// OpenPort registers the local port and connects it to the peer port at
	// the given index. An out-of-range index leaves the port registered but
	// unconnected. A second open while a port exists is a no-op.
	OpenPort(port int, name string) error
	// OpenVirtualPort registers the local port without connecting a peer.
	OpenVirtualPort(name string) error
	// ClosePort unregisters the port if one is open. It is idempotent.
	ClosePort() error
	// PortCount reports the number of peer ports. It returns 0 when the
	// server is unreachable.
	PortCount() int
	// PortName returns the name of the peer port at the given index, or an
	// empty string if the index is out of range.
	PortName(port int) string
	// SetPortName renames the open port.
	SetPortName(name string) error
	// SetClientName changes the advertised client name where the backend
	// supports it.
	SetClientName(name string) error
	// CurrentAPI reports which backend this client was built on.
	CurrentAPI() API
	// Close tears the client down: closes the port if open and releases the
	// server connection. Safe to call more than once.
	Close() error
}

// MIDIIn receives MIDI messages from the server.
type MIDIIn interface {
	MIDI

	// SetCallback routes incoming messages to fn instead of the queue. It
	// must be installed before the port is opened.
	SetCallback(fn MessageHandler)
	// CancelCallback restores queue delivery.
	CancelCallback()
	// Messages returns the bounded queue messages land on when no callback
	// is installed. The channel is owned by the backend and assumes a single
	// consumer.
	Messages() <-chan Message
	// IgnoreTypes drops sysex, time code / clock, or active sensing messages
	// before delivery.
	IgnoreTypes(sysex, timeCode, activeSense bool)
	// Dropped reports how many messages were lost to queue overflow.
	Dropped() uint64
}

// MIDIOut sends MIDI messages to the server.
type MIDIOut interface {
	MIDI

	// SendMessage queues one message for emission on the next process cycle.
	// It never blocks. Calls must come from a single goroutine; on overflow
	// the whole message is dropped and reported through Dropped.
	SendMessage(bytes []byte) error
	// Dropped reports how many messages were lost to buffer overflow.
	Dropped() uint64
}

// ObserverCallbacks carries the notifications an Observer may emit.
type ObserverCallbacks struct {
	PortAdded   func(name string)
	PortRemoved func(name string)
}

// Observer watches server topology where the backend supports it.
type Observer interface {
	Close() error
}

// Backend binds one backend's constructors so generic code can parameterize
// itself over any of them.
type Backend struct {
	API         API
	NewInput    func(*ClientOptions) (MIDIIn, error)
	NewOutput   func(*ClientOptions) (MIDIOut, error)
	NewObserver func(ObserverCallbacks) (Observer, error)
}
