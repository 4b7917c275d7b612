package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
// Channel voice messages are matched on their high nibble; system messages on
// the full status byte.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to allow through.
}

// ClientOptions defines the configuration options for a MIDI client.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	API             API              // Backend to build the client on.
	ClientName      string           // Name advertised to the MIDI server.
	QueueSizeLimit  int              // Capacity of the input message queue.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithAPI pins the client to a specific backend.
func WithAPI(api API) Option {
	return func(opts *ClientOptions) {
		opts.API = api
	}
}

// WithClientName sets the name advertised to the MIDI server.
func WithClientName(name string) Option {
	return func(opts *ClientOptions) {
		opts.ClientName = name
	}
}

// WithQueueSizeLimit sets the capacity of the input message queue. Messages
// arriving while the queue is full are dropped.
func WithQueueSizeLimit(limit int) Option {
	return func(opts *ClientOptions) {
		opts.QueueSizeLimit = limit
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}
