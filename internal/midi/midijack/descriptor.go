package midijack

import "github.com/aethertone/midi/sdk/contracts"

// Backend describes the JACK backend to the generic layer.
func Backend() contracts.Backend {
	return contracts.Backend{
		API:         contracts.UnixJack,
		NewInput:    NewMIDIIn,
		NewOutput:   NewMIDIOut,
		NewObserver: NewObserver,
	}
}
