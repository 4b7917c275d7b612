package midi

import (
	"github.com/aethertone/midi/sdk/contracts"
)

// NewMIDIIn creates a new MIDI input client with the specified options.
// It applies default options and initializes the backend.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.MIDIIn: An instance of the MIDI input client.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIIn(opts ...contracts.Option) (contracts.MIDIIn, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := backendFor(options.API)
	if err != nil {
		return nil, err
	}
	return backend.NewInput(&options)
}

// NewMIDIOut creates a new MIDI output client with the specified options.
//
// Returns:
//   - contracts.MIDIOut: An instance of the MIDI output client.
//   - error: An error, if any occurred during the creation of the client.
func NewMIDIOut(opts ...contracts.Option) (contracts.MIDIOut, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := backendFor(options.API)
	if err != nil {
		return nil, err
	}
	return backend.NewOutput(&options)
}

// NewObserver creates a topology observer for the selected backend.
func NewObserver(callbacks contracts.ObserverCallbacks, opts ...contracts.Option) (contracts.Observer, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := backendFor(options.API)
	if err != nil {
		return nil, err
	}
	return backend.NewObserver(callbacks)
}
